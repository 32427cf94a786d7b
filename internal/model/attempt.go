package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptTerminated AttemptStatus = "TERMINATED"
	AttemptExpired    AttemptStatus = "EXPIRED"
)

// IsTerminal reports whether no further mutation of the attempt is allowed.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptTerminated || s == AttemptExpired
}

// Attempt is one candidate's single pass through a test. It is backed by
// either an Invitation or a PublicLink, never both. A partial unique index
// on InvitationID enforces one live attempt per invitation at the schema
// level. MaxCopyEventsAllowed is snapshotted from the test at creation so
// later changes to the test's violation budget do not affect in-flight
// attempts.
type Attempt struct {
	ID           uint  `gorm:"primarykey" json:"id"`
	TestID       uint  `json:"test_id" gorm:"not null;index"`
	Test         Test  `json:"test,omitempty" gorm:"foreignKey:TestID"`
	InvitationID *uint `json:"invitation_id,omitempty" gorm:"index:uidx_attempts_invitation,unique,where:deleted_at IS NULL"`
	PublicLinkID *uint `json:"public_link_id,omitempty" gorm:"index"`

	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email" gorm:"index"`

	Status      AttemptStatus `json:"status" gorm:"not null;default:'IN_PROGRESS';index"`
	StartedAt   time.Time     `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`

	RawScore          *int           `json:"raw_score,omitempty"`
	Percentile        *float64       `json:"percentile,omitempty"`
	CategorySubScores datatypes.JSON `json:"category_sub_scores,omitempty" gorm:"type:jsonb"`

	CopyEventCount       int     `json:"copy_event_count" gorm:"not null;default:0"`
	MaxCopyEventsAllowed int     `json:"max_copy_events_allowed" gorm:"not null"`
	TerminationReason    *string `json:"termination_reason,omitempty" gorm:"type:text"`

	Answers []SubmittedAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
