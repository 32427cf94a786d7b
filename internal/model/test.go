package model

import (
	"time"

	"gorm.io/gorm"
)

type Test struct {
	ID                   uint           `gorm:"primarykey" json:"id"`
	Title                string         `json:"title" gorm:"not null;uniqueIndex"` // "Backend Engineer Screening"
	Description          string         `json:"description,omitempty"`
	MaxCopyEventsAllowed int            `json:"max_copy_events_allowed" gorm:"not null;default:3"`
	Questions            []Question     `json:"questions,omitempty" gorm:"foreignKey:TestID"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}
