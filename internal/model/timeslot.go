package model

import (
	"time"

	"gorm.io/gorm"
)

// TimeSlot restricts when a public link is usable. StartDateTime and
// EndDateTime are stored as naive wall-clock readings and must be
// interpreted in Timezone (an IANA name) when compared against now.
type TimeSlot struct {
	ID                  uint           `gorm:"primarykey" json:"id"`
	Name                string         `json:"name,omitempty"`
	StartDateTime       time.Time      `json:"start_date_time" gorm:"not null"`
	EndDateTime         time.Time      `json:"end_date_time" gorm:"not null"`
	Timezone            string         `json:"timezone" gorm:"not null;default:'UTC'"` // e.g. "Asia/Kolkata"
	MaxParticipants     *int           `json:"max_participants,omitempty"`
	CurrentParticipants int            `json:"current_participants" gorm:"not null;default:0"`
	IsActive            bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}
