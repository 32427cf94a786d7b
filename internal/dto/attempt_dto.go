package dto

import "time"

// AttemptStartDTO starts an attempt through either a public link token or
// an invitation token (exactly one must be set).
type AttemptStartDTO struct {
	LinkToken       string `json:"link_token,omitempty"`
	InvitationToken string `json:"invitation_token,omitempty"`
	CandidateName   string `json:"candidate_name,omitempty"`
	CandidateEmail  string `json:"candidate_email,omitempty"`
}

// SubmittedAnswerDTO is one answer within the finalization batch.
type SubmittedAnswerDTO struct {
	AnswerIndex      int `json:"answer_index" binding:"min=0"`
	TimeTakenSeconds int `json:"time_taken_seconds,omitempty"`
}

// AttemptFinalizeDTO submits the full answer batch, keyed by question ID.
type AttemptFinalizeDTO struct {
	Answers map[uint]SubmittedAnswerDTO `json:"answers" binding:"required"`
}

// ProctorEventDTO is a single browser-reported proctoring signal.
type ProctorEventDTO struct {
	Type      string                 `json:"type" binding:"required"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// ProctorEventBatchDTO is the request body for a proctor event batch.
type ProctorEventBatchDTO struct {
	Events []ProctorEventDTO `json:"events" binding:"required,min=1,dive"`
}

// ViolationStateDTO reports the attempt's violation state after a batch so
// the client can stop rendering the test immediately on termination.
type ViolationStateDTO struct {
	Accepted   int     `json:"accepted"`
	CopyCount  int     `json:"copy_count"`
	MaxAllowed int     `json:"max_allowed"`
	Terminated bool    `json:"terminated"`
	Reason     *string `json:"reason,omitempty"`
}

// CategoryScoreDTO is one per-category bucket of the score breakdown.
type CategoryScoreDTO struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

type AnswerResponseDTO struct {
	QuestionID          uint   `json:"question_id"`
	SelectedAnswerIndex int    `json:"selected_answer_index"`
	IsCorrect           bool   `json:"is_correct"`
	TimeTakenSeconds    int    `json:"time_taken_seconds"`
	Category            string `json:"category,omitempty"`
}

// AttemptDetailDTO is the full view of an attempt.
type AttemptDetailDTO struct {
	ID                   uint                        `json:"id"`
	TestID               uint                        `json:"test_id"`
	TestTitle            string                      `json:"test_title,omitempty"`
	CandidateName        string                      `json:"candidate_name,omitempty"`
	CandidateEmail       string                      `json:"candidate_email,omitempty"`
	Status               string                      `json:"status"`
	StartedAt            time.Time                   `json:"started_at"`
	CompletedAt          *time.Time                  `json:"completed_at,omitempty"`
	RawScore             *int                        `json:"raw_score,omitempty"`
	Percentile           *float64                    `json:"percentile,omitempty"`
	CategorySubScores    map[string]CategoryScoreDTO `json:"category_sub_scores,omitempty"`
	CopyEventCount       int                         `json:"copy_event_count"`
	MaxCopyEventsAllowed int                         `json:"max_copy_events_allowed"`
	TerminationReason    *string                     `json:"termination_reason,omitempty"`
	Answers              []AnswerResponseDTO         `json:"answers,omitempty"`
}

// AttemptSummaryDTO is for the admin attempt listing.
type AttemptSummaryDTO struct {
	ID             uint       `json:"id"`
	TestID         uint       `json:"test_id"`
	CandidateName  string     `json:"candidate_name,omitempty"`
	CandidateEmail string     `json:"candidate_email,omitempty"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	RawScore       *int       `json:"raw_score,omitempty"`
	Percentile     *float64   `json:"percentile,omitempty"`
	CopyEventCount int        `json:"copy_event_count"`
}
