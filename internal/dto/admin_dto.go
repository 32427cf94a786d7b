package dto

import "time"

// QuestionCreateDTO is used within TestCreateDTO for admin test creation.
type QuestionCreateDTO struct {
	Text               string   `json:"text" binding:"required"`
	Options            []string `json:"options" binding:"required,min=2,dive,required"`
	CorrectAnswerIndex int      `json:"correct_answer_index" binding:"min=0"`
	Category           string   `json:"category" binding:"required"`
	OrderInTest        int      `json:"order_in_test" binding:"required,min=1"`
}

// TestCreateDTO is for admin to create a new test with all its questions.
type TestCreateDTO struct {
	Title                string              `json:"title" binding:"required"`
	Description          string              `json:"description,omitempty"`
	MaxCopyEventsAllowed *int                `json:"max_copy_events_allowed,omitempty" binding:"omitempty,min=1"`
	Questions            []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// PublicLinkCreateDTO creates a shareable link for a test.
type PublicLinkCreateDTO struct {
	Title      string     `json:"title,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	MaxUses    *int       `json:"max_uses,omitempty" binding:"omitempty,min=1"`
	TimeSlotID *uint      `json:"time_slot_id,omitempty"`
}

// InvitationCreateDTO creates a single-candidate invitation for a test.
type InvitationCreateDTO struct {
	CandidateEmail string     `json:"candidate_email" binding:"required,email"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// TimeSlotCreateDTO creates an access window. Start and end are naive
// wall-clock readings in Timezone.
type TimeSlotCreateDTO struct {
	Name            string    `json:"name,omitempty"`
	StartDateTime   time.Time `json:"start_date_time" binding:"required"`
	EndDateTime     time.Time `json:"end_date_time" binding:"required"`
	Timezone        string    `json:"timezone" binding:"required"`
	MaxParticipants *int      `json:"max_participants,omitempty" binding:"omitempty,min=1"`
}

type PublicLinkResponseDTO struct {
	ID         uint       `json:"id"`
	TestID     uint       `json:"test_id"`
	Token      string     `json:"token"`
	Title      string     `json:"title,omitempty"`
	IsActive   bool       `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	MaxUses    *int       `json:"max_uses,omitempty"`
	UsedCount  int        `json:"used_count"`
	TimeSlotID *uint      `json:"time_slot_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type InvitationResponseDTO struct {
	ID             uint       `json:"id"`
	TestID         uint       `json:"test_id"`
	Token          string     `json:"token"`
	CandidateEmail string     `json:"candidate_email"`
	IsActive       bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type TimeSlotResponseDTO struct {
	ID                  uint      `json:"id"`
	Name                string    `json:"name,omitempty"`
	StartDateTime       time.Time `json:"start_date_time"`
	EndDateTime         time.Time `json:"end_date_time"`
	Timezone            string    `json:"timezone"`
	MaxParticipants     *int      `json:"max_participants,omitempty"`
	CurrentParticipants int       `json:"current_participants"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}
