package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prateek-combat/critest/internal/dto"
	"github.com/prateek-combat/critest/internal/model"
	"github.com/prateek-combat/critest/internal/repository"
	"github.com/rs/zerolog/log"
)

// ViolationService accumulates proctoring events against an attempt's
// violation budget and drives the forced-termination path.
type ViolationService interface {
	RecordEvents(attemptID uint, batch dto.ProctorEventBatchDTO) (*dto.ViolationStateDTO, error)
}

type violationService struct {
	attemptRepo repository.AttemptRepository
	eventRepo   repository.ProctorEventRepository
	testRepo    repository.TestRepository
	scoring     ScoringService
	notifier    TerminationNotifier
	clock       Clock
}

func NewViolationService(
	attemptRepo repository.AttemptRepository,
	eventRepo repository.ProctorEventRepository,
	testRepo repository.TestRepository,
	scoring ScoringService,
	notifier TerminationNotifier,
	clock Clock,
) ViolationService {
	return &violationService{
		attemptRepo: attemptRepo,
		eventRepo:   eventRepo,
		testRepo:    testRepo,
		scoring:     scoring,
		notifier:    notifier,
		clock:       clock,
	}
}

// RecordEvents persists the whole batch to the audit log unconditionally,
// then applies the strike-worthy portion as one atomic delta. The threshold
// check uses the post-batch cumulative count, so a single batch large enough
// to cross the budget terminates the attempt in this call. Events arriving
// after termination are recorded for forensics but never double-count and
// never trigger a second notification.
func (s *violationService) RecordEvents(attemptID uint, batch dto.ProctorEventBatchDTO) (*dto.ViolationStateDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}

	events, strikes := s.buildEvents(attemptID, batch.Events)
	if err := s.eventRepo.CreateBatch(events); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("RecordEvents: failed to persist proctor event batch")
		return nil, fmt.Errorf("failed to record proctor events: %w", err)
	}

	if attempt.Status.IsTerminal() || strikes == 0 {
		return violationState(attempt, len(batch.Events), false), nil
	}

	reason := fmt.Sprintf("Integrity violation limit reached (%d strikes allowed)", attempt.MaxCopyEventsAllowed)
	updated, terminatedNow, err := s.attemptRepo.ApplyViolationDelta(attemptID, strikes, reason, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyTerminated) {
			// A concurrent batch won the terminal transition; this one still
			// recorded its audit events.
			return violationState(updated, len(batch.Events), false), nil
		}
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("RecordEvents: failed to apply violation delta")
		return nil, err
	}

	if terminatedNow {
		log.Info().Uint("attemptID", attemptID).Int("copyEventCount", updated.CopyEventCount).
			Msg("Attempt terminated on violation threshold breach")
		s.scoreAndNotify(updated, reason)
	}

	return violationState(updated, len(batch.Events), terminatedNow), nil
}

// buildEvents maps the incoming batch to audit rows and counts the
// strike-worthy ones.
func (s *violationService) buildEvents(attemptID uint, in []dto.ProctorEventDTO) ([]model.ProctorEvent, int) {
	events := make([]model.ProctorEvent, 0, len(in))
	strikes := 0
	for _, e := range in {
		eventType := model.ProctorEventType(e.Type)
		strikeWorthy := eventType.IsStrikeWorthy()
		if strikeWorthy {
			strikes++
		}
		occurredAt := e.Timestamp
		if occurredAt.IsZero() {
			occurredAt = s.clock.Now()
		}
		var extra []byte
		if len(e.Extra) > 0 {
			if b, err := json.Marshal(e.Extra); err == nil {
				extra = b
			}
		}
		events = append(events, model.ProctorEvent{
			AttemptID:    attemptID,
			Type:         eventType,
			OccurredAt:   occurredAt,
			Extra:        extra,
			StrikeWorthy: strikeWorthy,
		})
	}
	return events, strikes
}

// scoreAndNotify scores the terminated attempt on whatever answers exist at
// this moment and hands the result to the notifier. Failures here are logged
// only; the attempt row is already terminal and remains the source of truth.
func (s *violationService) scoreAndNotify(attempt *model.Attempt, reason string) {
	test, err := s.testRepo.FindByIDWithQuestions(attempt.TestID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Termination scoring: failed to load test")
		return
	}
	answers, err := s.attemptRepo.FindAnswers(attempt.ID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Termination scoring: failed to load answers")
		answers = nil
	}

	score := s.scoring.Score(test, answers)
	subScores, err := score.SubScoresJSON()
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Termination scoring: failed to encode sub-scores")
	} else if err := s.attemptRepo.StoreScore(attempt.ID, score.RawScore, score.Percentile, subScores); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Termination scoring: failed to store score")
	}

	s.notifier.Notify(attempt, test, reason, score)
}

func violationState(attempt *model.Attempt, accepted int, terminatedNow bool) *dto.ViolationStateDTO {
	state := &dto.ViolationStateDTO{
		Accepted:   accepted,
		CopyCount:  attempt.CopyEventCount,
		MaxAllowed: attempt.MaxCopyEventsAllowed,
		Terminated: terminatedNow || attempt.Status == model.AttemptTerminated,
		Reason:     attempt.TerminationReason,
	}
	return state
}
