package model

import (
	"time"

	"gorm.io/gorm"
)

// SubmittedAnswer is append-only: the full batch is written once when the
// attempt is finalized and never rewritten.
type SubmittedAnswer struct {
	ID                  uint           `gorm:"primarykey" json:"id"`
	AttemptID           uint           `json:"attempt_id" gorm:"not null;index"`
	QuestionID          uint           `json:"question_id" gorm:"not null;index"`
	Question            Question       `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SelectedAnswerIndex int            `json:"selected_answer_index" gorm:"not null"`
	IsCorrect           bool           `json:"is_correct" gorm:"not null"`
	TimeTakenSeconds    int            `json:"time_taken_seconds"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}
