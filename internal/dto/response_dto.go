package dto

import "time"

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// AccessDeniedResponse carries the deny reason and, for time-window
// failures, the computed window so the UI can show "come back at X".
type AccessDeniedResponse struct {
	Message     string     `json:"message"`
	Reason      string     `json:"reason"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

type QuestionResponseDTO struct {
	ID          uint     `json:"id"`
	TestID      uint     `json:"test_id"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Category    string   `json:"category"`
	OrderInTest int      `json:"order_in_test"`
}

// TestResponseDTO is the candidate-facing view of a test. Questions carry
// no answer key.
type TestResponseDTO struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Questions   []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}
