package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prateek-combat/critest/config"
	"github.com/prateek-combat/critest/internal/model"
	"github.com/rs/zerolog/log"
)

// TerminationPayload is the one-way result document handed to the external
// webhook/email dispatcher when an attempt is force-terminated.
type TerminationPayload struct {
	AttemptID         uint                     `json:"attempt_id"`
	TestID            uint                     `json:"test_id"`
	CandidateEmail    string                   `json:"candidate_email,omitempty"`
	CandidateName     string                   `json:"candidate_name,omitempty"`
	Status            string                   `json:"status"`
	RawScore          int                      `json:"raw_score"`
	MaxScore          int                      `json:"max_score"`
	Percentile        float64                  `json:"percentile"`
	CategorySubScores map[string]CategoryScore `json:"category_sub_scores,omitempty"`
	StartedAt         time.Time                `json:"started_at"`
	CompletedAt       *time.Time               `json:"completed_at,omitempty"`
	Meta              map[string]interface{}   `json:"meta,omitempty"`
}

// TerminationNotifier dispatches a termination result exactly once per
// termination. Delivery is fire-and-forget: a failure is logged and never
// rolls back or hides the attempt's terminal state.
type TerminationNotifier interface {
	Notify(attempt *model.Attempt, test *model.Test, reason string, score ScoreResult)
}

type webhookNotifier struct {
	url    string
	client *http.Client
}

func NewTerminationNotifier(cfg *config.Config) TerminationNotifier {
	if cfg.Notification.WebhookURL == "" {
		log.Warn().Msg("NOTIFICATION_WEBHOOK_URL is not set. Termination notifications will be dropped.")
		return &noopNotifier{}
	}
	return &webhookNotifier{
		url:    cfg.Notification.WebhookURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *webhookNotifier) Notify(attempt *model.Attempt, test *model.Test, reason string, score ScoreResult) {
	payload := TerminationPayload{
		AttemptID:         attempt.ID,
		TestID:            test.ID,
		CandidateEmail:    attempt.CandidateEmail,
		CandidateName:     attempt.CandidateName,
		Status:            string(attempt.Status),
		RawScore:          score.RawScore,
		MaxScore:          len(test.Questions),
		Percentile:        score.Percentile,
		CategorySubScores: score.CategorySubScores,
		StartedAt:         attempt.StartedAt,
		CompletedAt:       attempt.CompletedAt,
		Meta: map[string]interface{}{
			"termination_reason": reason,
			"copy_event_count":   attempt.CopyEventCount,
			"max_copy_events":    attempt.MaxCopyEventsAllowed,
		},
	}

	// Dispatched off the request path so the candidate response is never
	// blocked on the webhook.
	go func() {
		body, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to marshal termination payload")
			return
		}
		resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Termination webhook dispatch failed")
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Error().Int("status", resp.StatusCode).Uint("attemptID", attempt.ID).
				Msg(fmt.Sprintf("Termination webhook returned non-success status %d", resp.StatusCode))
			return
		}
		log.Info().Uint("attemptID", attempt.ID).Msg("Termination notification dispatched")
	}()
}

type noopNotifier struct{}

func (*noopNotifier) Notify(attempt *model.Attempt, _ *model.Test, _ string, _ ScoreResult) {
	log.Debug().Uint("attemptID", attempt.ID).Msg("Termination notification dropped (no webhook configured)")
}
