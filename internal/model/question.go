package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	TestID             uint           `json:"test_id" gorm:"not null;index"`
	Text               string         `json:"text" gorm:"type:text;not null"`
	Options            datatypes.JSON `json:"options" gorm:"type:jsonb;not null"` // JSON array of option strings
	CorrectAnswerIndex int            `json:"-" gorm:"not null"`
	Category           string         `json:"category" gorm:"not null;index"` // "LOGICAL", "VERBAL", "ATTENTION", ...
	OrderInTest        int            `json:"order_in_test" gorm:"not null"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}
