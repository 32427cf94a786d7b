package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/prateek-combat/critest/internal/dto"
	"github.com/prateek-combat/critest/internal/model"
	"github.com/prateek-combat/critest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AccessDeniedError carries the gate's typed decision up to the controller,
// which maps it to a 403 with the deny reason and any computed window.
type AccessDeniedError struct {
	Decision AccessDecision
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + string(e.Decision.Reason)
}

// AttemptService owns the attempt lifecycle: gated creation, finalization
// with scoring, and read views.
type AttemptService interface {
	StartAttempt(req dto.AttemptStartDTO) (*dto.AttemptDetailDTO, error)
	FinalizeAttempt(attemptID uint, req dto.AttemptFinalizeDTO) (*dto.AttemptDetailDTO, error)
	GetAttempt(attemptID uint) (*dto.AttemptDetailDTO, error)
	GetAttemptsForTest(testID uint) ([]dto.AttemptSummaryDTO, error)
}

type attemptService struct {
	attemptRepo    repository.AttemptRepository
	testRepo       repository.TestRepository
	linkRepo       repository.PublicLinkRepository
	invitationRepo repository.InvitationRepository
	slotRepo       repository.TimeSlotRepository
	gate           AccessGateService
	scoring        ScoringService
	clock          Clock
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	testRepo repository.TestRepository,
	linkRepo repository.PublicLinkRepository,
	invitationRepo repository.InvitationRepository,
	slotRepo repository.TimeSlotRepository,
	gate AccessGateService,
	scoring ScoringService,
	clock Clock,
) AttemptService {
	return &attemptService{
		attemptRepo:    attemptRepo,
		testRepo:       testRepo,
		linkRepo:       linkRepo,
		invitationRepo: invitationRepo,
		slotRepo:       slotRepo,
		gate:           gate,
		scoring:        scoring,
		clock:          clock,
	}
}

func (s *attemptService) StartAttempt(req dto.AttemptStartDTO) (*dto.AttemptDetailDTO, error) {
	switch {
	case req.LinkToken != "" && req.InvitationToken != "":
		return nil, fmt.Errorf("exactly one of link_token and invitation_token must be provided")
	case req.LinkToken != "":
		return s.startViaLink(req)
	case req.InvitationToken != "":
		return s.startViaInvitation(req)
	default:
		return nil, fmt.Errorf("exactly one of link_token and invitation_token must be provided")
	}
}

func (s *attemptService) startViaLink(req dto.AttemptStartDTO) (*dto.AttemptDetailDTO, error) {
	link, err := s.linkRepo.FindByToken(req.LinkToken)
	if err != nil {
		return nil, err
	}

	if decision := s.gate.CheckLink(link); !decision.Allowed {
		return nil, &AccessDeniedError{Decision: decision}
	}

	// The gate only reads the counters; the usage and seat claims below are
	// conditional increments so concurrent starts cannot oversubscribe.
	if err := s.linkRepo.ConsumeUse(link.ID); err != nil {
		if err == repository.ErrUsageLimitReached {
			return nil, &AccessDeniedError{Decision: AccessDecision{Reason: DenyUsageLimitReached}}
		}
		return nil, err
	}
	if link.TimeSlotID != nil {
		if err := s.slotRepo.ReserveSeat(*link.TimeSlotID); err != nil {
			if relErr := s.linkRepo.ReleaseUse(link.ID); relErr != nil {
				log.Error().Err(relErr).Uint("linkID", link.ID).Msg("StartAttempt: failed to release link use after seat denial")
			}
			if err == repository.ErrSlotFull {
				return nil, &AccessDeniedError{Decision: AccessDecision{Reason: DenySlotFull}}
			}
			return nil, err
		}
	}

	linkID := link.ID
	attempt := &model.Attempt{
		TestID:               link.TestID,
		PublicLinkID:         &linkID,
		CandidateName:        req.CandidateName,
		CandidateEmail:       req.CandidateEmail,
		Status:               model.AttemptInProgress,
		StartedAt:            s.clock.Now(),
		MaxCopyEventsAllowed: link.Test.MaxCopyEventsAllowed,
	}
	if err := s.attemptRepo.Create(attempt); err != nil {
		log.Error().Err(err).Uint("linkID", link.ID).Msg("StartAttempt: failed to create attempt, releasing claims")
		if link.TimeSlotID != nil {
			if relErr := s.slotRepo.ReleaseSeat(*link.TimeSlotID); relErr != nil {
				log.Error().Err(relErr).Uint("slotID", *link.TimeSlotID).Msg("StartAttempt: seat release failed")
			}
		}
		if relErr := s.linkRepo.ReleaseUse(link.ID); relErr != nil {
			log.Error().Err(relErr).Uint("linkID", link.ID).Msg("StartAttempt: link use release failed")
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	return s.toDetailDTO(attempt, &link.Test), nil
}

func (s *attemptService) startViaInvitation(req dto.AttemptStartDTO) (*dto.AttemptDetailDTO, error) {
	invitation, err := s.invitationRepo.FindByToken(req.InvitationToken)
	if err != nil {
		return nil, err
	}

	// One attempt per invitation: a finished attempt blocks re-starts, an
	// in-progress one is simply re-opened. The lookup is advisory; the
	// partial unique index on invitation_id is the real guard, and a
	// duplicate-key failure on Create below is handled the same way.
	existing, err := s.attemptRepo.FindLatestByInvitationID(invitation.ID)
	if err == nil {
		return s.reopenOrReject(existing, &invitation.Test)
	}
	if err != repository.ErrAttemptNotFound {
		return nil, err
	}

	if decision := s.gate.CheckInvitation(invitation); !decision.Allowed {
		return nil, &AccessDeniedError{Decision: decision}
	}

	candidateEmail := req.CandidateEmail
	if candidateEmail == "" {
		candidateEmail = invitation.CandidateEmail
	}
	invitationID := invitation.ID
	attempt := &model.Attempt{
		TestID:               invitation.TestID,
		InvitationID:         &invitationID,
		CandidateName:        req.CandidateName,
		CandidateEmail:       candidateEmail,
		Status:               model.AttemptInProgress,
		StartedAt:            s.clock.Now(),
		MaxCopyEventsAllowed: invitation.Test.MaxCopyEventsAllowed,
	}
	if err := s.attemptRepo.Create(attempt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent start won the insert between the lookup above and
			// here; surface its attempt instead.
			existing, findErr := s.attemptRepo.FindLatestByInvitationID(invitation.ID)
			if findErr != nil {
				return nil, findErr
			}
			return s.reopenOrReject(existing, &invitation.Test)
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}
	return s.toDetailDTO(attempt, &invitation.Test), nil
}

func (s *attemptService) reopenOrReject(existing *model.Attempt, test *model.Test) (*dto.AttemptDetailDTO, error) {
	if existing.Status.IsTerminal() {
		return nil, repository.ErrAlreadyCompleted
	}
	return s.toDetailDTO(existing, test), nil
}

// FinalizeAttempt writes the full answer batch, scores it, and completes the
// attempt. Answers for questions outside the test are ignored. A terminated
// attempt cannot be completed.
func (s *attemptService) FinalizeAttempt(attemptID uint, req dto.AttemptFinalizeDTO) (*dto.AttemptDetailDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	test, err := s.testRepo.FindByIDWithQuestions(attempt.TestID)
	if err != nil {
		return nil, err
	}

	answers := make([]model.SubmittedAnswer, 0, len(req.Answers))
	for _, q := range test.Questions {
		submitted, ok := req.Answers[q.ID]
		if !ok {
			continue
		}
		answers = append(answers, model.SubmittedAnswer{
			QuestionID:          q.ID,
			SelectedAnswerIndex: submitted.AnswerIndex,
			IsCorrect:           submitted.AnswerIndex == q.CorrectAnswerIndex,
			TimeTakenSeconds:    submitted.TimeTakenSeconds,
		})
	}

	score := s.scoring.Score(test, answers)
	subScores, err := score.SubScoresJSON()
	if err != nil {
		return nil, err
	}

	updated, err := s.attemptRepo.Finalize(attemptID, answers, score.RawScore, score.Percentile, subScores, s.clock.Now())
	if err != nil {
		return nil, err
	}
	updated.Answers = answers
	return s.toDetailDTO(updated, test), nil
}

func (s *attemptService) GetAttempt(attemptID uint) (*dto.AttemptDetailDTO, error) {
	attempt, err := s.attemptRepo.FindByIDWithDetails(attemptID)
	if err != nil {
		return nil, err
	}
	return s.toDetailDTO(attempt, &attempt.Test), nil
}

func (s *attemptService) GetAttemptsForTest(testID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.FindAllByTestID(testID)
	if err != nil {
		return nil, fmt.Errorf("error fetching attempts for test %d: %w", testID, err)
	}

	var dtos []dto.AttemptSummaryDTO
	for _, attempt := range attempts {
		var summary dto.AttemptSummaryDTO
		if errCp := copier.Copy(&summary, &attempt); errCp != nil {
			log.Error().Err(errCp).Uint("attemptID", attempt.ID).Msg("GetAttemptsForTest: error copying attempt to summary DTO")
			continue
		}
		summary.Status = string(attempt.Status)
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

func (s *attemptService) toDetailDTO(attempt *model.Attempt, test *model.Test) *dto.AttemptDetailDTO {
	questionCategory := make(map[uint]string, len(test.Questions))
	for _, q := range test.Questions {
		questionCategory[q.ID] = q.Category
	}

	resp := &dto.AttemptDetailDTO{
		ID:                   attempt.ID,
		TestID:               attempt.TestID,
		TestTitle:            test.Title,
		CandidateName:        attempt.CandidateName,
		CandidateEmail:       attempt.CandidateEmail,
		Status:               string(attempt.Status),
		StartedAt:            attempt.StartedAt,
		CompletedAt:          attempt.CompletedAt,
		RawScore:             attempt.RawScore,
		Percentile:           attempt.Percentile,
		CopyEventCount:       attempt.CopyEventCount,
		MaxCopyEventsAllowed: attempt.MaxCopyEventsAllowed,
		TerminationReason:    attempt.TerminationReason,
	}

	if len(attempt.CategorySubScores) > 0 {
		var subScores map[string]dto.CategoryScoreDTO
		if err := json.Unmarshal(attempt.CategorySubScores, &subScores); err != nil {
			log.Warn().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to decode stored category sub-scores")
		} else {
			resp.CategorySubScores = subScores
		}
	}

	for _, a := range attempt.Answers {
		resp.Answers = append(resp.Answers, dto.AnswerResponseDTO{
			QuestionID:          a.QuestionID,
			SelectedAnswerIndex: a.SelectedAnswerIndex,
			IsCorrect:           a.IsCorrect,
			TimeTakenSeconds:    a.TimeTakenSeconds,
			Category:            questionCategory[a.QuestionID],
		})
	}
	return resp
}
