package model

import (
	"time"

	"gorm.io/gorm"
)

// PublicLink is a shareable URL token that lets anyone start an attempt for
// a test, optionally fenced by an expiry, a usage cap, and a time slot.
type PublicLink struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	TestID     uint       `json:"test_id" gorm:"not null;index"`
	Test       Test       `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Token      string     `json:"token" gorm:"not null;uniqueIndex"`
	Title      string     `json:"title,omitempty"`
	IsActive   bool       `json:"is_active" gorm:"not null;default:true"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	MaxUses    *int       `json:"max_uses,omitempty"`
	UsedCount  int        `json:"used_count" gorm:"not null;default:0"`
	TimeSlotID *uint      `json:"time_slot_id,omitempty" gorm:"index"`
	TimeSlot   *TimeSlot  `json:"time_slot,omitempty" gorm:"foreignKey:TimeSlotID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Invitation is a single-candidate token. One completed attempt per
// invitation; re-opening an in-progress attempt is idempotent.
type Invitation struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	TestID         uint       `json:"test_id" gorm:"not null;index"`
	Test           Test       `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Token          string     `json:"token" gorm:"not null;uniqueIndex"`
	CandidateEmail string     `json:"candidate_email" gorm:"not null;index"`
	IsActive       bool       `json:"is_active" gorm:"not null;default:true"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
