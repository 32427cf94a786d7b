package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prateek-combat/critest/internal/dto"
	"github.com/prateek-combat/critest/internal/model"
	"github.com/prateek-combat/critest/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type attemptFixture struct {
	db       *gorm.DB
	svc      AttemptService
	linkRepo repository.PublicLinkRepository
	slotRepo repository.TimeSlotRepository
	now      time.Time
}

func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()
	db := newTestDB(t)
	now := time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC)
	clock := fixedClock{t: now}
	resolver := NewTimezoneResolver()

	linkRepo := repository.NewPublicLinkRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	svc := NewAttemptService(
		repository.NewAttemptRepository(db),
		repository.NewTestRepository(db),
		linkRepo,
		repository.NewInvitationRepository(db),
		slotRepo,
		NewAccessGateService(clock, resolver),
		NewScoringService(),
		clock,
	)
	return &attemptFixture{db: db, svc: svc, linkRepo: linkRepo, slotRepo: slotRepo, now: now}
}

func seedLink(t *testing.T, db *gorm.DB, test *model.Test, maxUses *int) *model.PublicLink {
	t.Helper()
	link := model.PublicLink{
		TestID:   test.ID,
		Token:    uuid.NewString(),
		IsActive: true,
		MaxUses:  maxUses,
	}
	require.NoError(t, db.Create(&link).Error)
	return &link
}

// seedSlot persists a one-hour UTC slot whose window contains now.
func seedSlot(t *testing.T, db *gorm.DB, maxParticipants *int, now time.Time) *model.TimeSlot {
	t.Helper()
	slot := model.TimeSlot{
		StartDateTime:   now.Add(-30 * time.Minute),
		EndDateTime:     now.Add(30 * time.Minute),
		Timezone:        "UTC",
		MaxParticipants: maxParticipants,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&slot).Error)
	return &slot
}

func seedSlotLink(t *testing.T, db *gorm.DB, test *model.Test, slot *model.TimeSlot) *model.PublicLink {
	t.Helper()
	link := model.PublicLink{
		TestID:     test.ID,
		Token:      uuid.NewString(),
		IsActive:   true,
		TimeSlotID: &slot.ID,
	}
	require.NoError(t, db.Create(&link).Error)
	return &link
}

func seedInvitation(t *testing.T, db *gorm.DB, test *model.Test, email string) *model.Invitation {
	t.Helper()
	invitation := model.Invitation{
		TestID:         test.ID,
		Token:          uuid.NewString(),
		CandidateEmail: email,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&invitation).Error)
	return &invitation
}

func TestStartAttemptViaLink(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 5, []string{"LOGICAL", "QUANTITATIVE"}, 3)
	link := seedLink(t, f.db, test, nil)

	detail, err := f.svc.StartAttempt(dto.AttemptStartDTO{
		LinkToken:      link.Token,
		CandidateName:  "Asha Rao",
		CandidateEmail: "asha@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, test.ID, detail.TestID)
	assert.Equal(t, string(model.AttemptInProgress), detail.Status)
	assert.True(t, detail.StartedAt.Equal(f.now))
	assert.Equal(t, test.MaxCopyEventsAllowed, detail.MaxCopyEventsAllowed)

	reloaded, err := f.linkRepo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.UsedCount)
}

func TestStartAttemptRequiresExactlyOneToken(t *testing.T) {
	f := newAttemptFixture(t)

	_, err := f.svc.StartAttempt(dto.AttemptStartDTO{})
	assert.Error(t, err)

	_, err = f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: "a", InvitationToken: "b"})
	assert.Error(t, err)
}

func TestStartAttemptLinkUsageCap(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 3, []string{"LOGICAL"}, 3)
	link := seedLink(t, f.db, test, intPtr(1))

	_, err := f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token, CandidateName: "First"})
	require.NoError(t, err)

	_, err = f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token, CandidateName: "Second"})
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, DenyUsageLimitReached, denied.Decision.Reason)

	reloaded, err := f.linkRepo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.UsedCount, "denied start must not consume a use")
}

func TestStartAttemptSlotFull(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 3, []string{"LOGICAL"}, 3)

	slot := seedSlot(t, f.db, intPtr(1), f.now)
	link := seedSlotLink(t, f.db, test, slot)

	_, err := f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token, CandidateName: "First"})
	require.NoError(t, err)

	_, err = f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token, CandidateName: "Second"})
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, DenySlotFull, denied.Decision.Reason)

	reloaded, err := f.linkRepo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.UsedCount, "denied start must not hold a use")
}

func TestStartAttemptUnknownLink(t *testing.T) {
	f := newAttemptFixture(t)
	_, err := f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: "no-such-token"})
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestStartAttemptViaInvitationIsIdempotentWhileInProgress(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 3, []string{"LOGICAL"}, 3)
	invitation := seedInvitation(t, f.db, test, "dev@example.com")

	first, err := f.svc.StartAttempt(dto.AttemptStartDTO{InvitationToken: invitation.Token, CandidateName: "Dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", first.CandidateEmail, "email defaults to the invitation's")

	// The candidate refreshes the browser; same attempt comes back.
	second, err := f.svc.StartAttempt(dto.AttemptStartDTO{InvitationToken: invitation.Token})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestStartAttemptViaInvitationBlockedAfterFinish(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 3, []string{"LOGICAL"}, 3)
	invitation := seedInvitation(t, f.db, test, "dev@example.com")

	started, err := f.svc.StartAttempt(dto.AttemptStartDTO{InvitationToken: invitation.Token})
	require.NoError(t, err)

	_, err = f.svc.FinalizeAttempt(started.ID, dto.AttemptFinalizeDTO{Answers: map[uint]dto.SubmittedAnswerDTO{}})
	require.NoError(t, err)

	_, err = f.svc.StartAttempt(dto.AttemptStartDTO{InvitationToken: invitation.Token})
	assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)
}

func TestOneLiveAttemptPerInvitationEnforcedBySchema(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 3, []string{"LOGICAL"}, 3)
	invitation := seedInvitation(t, f.db, test, "dev@example.com")

	attemptRepo := repository.NewAttemptRepository(f.db)
	first := &model.Attempt{
		TestID:               test.ID,
		InvitationID:         &invitation.ID,
		Status:               model.AttemptInProgress,
		StartedAt:            f.now,
		MaxCopyEventsAllowed: test.MaxCopyEventsAllowed,
	}
	require.NoError(t, attemptRepo.Create(first))

	// A second insert for the same invitation must fail at the schema level,
	// not rely on the service's lookup seeing the first row.
	second := &model.Attempt{
		TestID:               test.ID,
		InvitationID:         &invitation.ID,
		Status:               model.AttemptInProgress,
		StartedAt:            f.now,
		MaxCopyEventsAllowed: test.MaxCopyEventsAllowed,
	}
	err := attemptRepo.Create(second)
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Link-backed attempts carry a NULL invitation_id and stay unlimited.
	for i := 0; i < 2; i++ {
		require.NoError(t, attemptRepo.Create(&model.Attempt{
			TestID:               test.ID,
			Status:               model.AttemptInProgress,
			StartedAt:            f.now,
			MaxCopyEventsAllowed: test.MaxCopyEventsAllowed,
		}))
	}

	// StartAttempt still resolves to the surviving attempt.
	reopened, err := f.svc.StartAttempt(dto.AttemptStartDTO{InvitationToken: invitation.Token})
	require.NoError(t, err)
	assert.Equal(t, first.ID, reopened.ID)
}

func TestFinalizeAttemptScoresAndCompletes(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 5, []string{"LOGICAL", "QUANTITATIVE"}, 3)
	link := seedLink(t, f.db, test, nil)

	started, err := f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token, CandidateName: "Asha"})
	require.NoError(t, err)

	// Correct answer index is 0 for every seeded question; answer the first
	// three correctly and the fourth wrong, leave the fifth blank.
	answers := map[uint]dto.SubmittedAnswerDTO{
		test.Questions[0].ID: {AnswerIndex: 0, TimeTakenSeconds: 12},
		test.Questions[1].ID: {AnswerIndex: 0, TimeTakenSeconds: 8},
		test.Questions[2].ID: {AnswerIndex: 0},
		test.Questions[3].ID: {AnswerIndex: 2},
	}
	detail, err := f.svc.FinalizeAttempt(started.ID, dto.AttemptFinalizeDTO{Answers: answers})
	require.NoError(t, err)

	assert.Equal(t, string(model.AttemptCompleted), detail.Status)
	require.NotNil(t, detail.RawScore)
	assert.Equal(t, 3, *detail.RawScore)
	require.NotNil(t, detail.Percentile)
	assert.InDelta(t, 60.0, *detail.Percentile, 0.001)
	require.NotNil(t, detail.CompletedAt)
	assert.Len(t, detail.Answers, 4)

	// Categories were assigned round-robin: LOGICAL holds questions 1, 3, 5.
	require.Contains(t, detail.CategorySubScores, "LOGICAL")
	assert.Equal(t, dto.CategoryScoreDTO{Correct: 2, Total: 3}, detail.CategorySubScores["LOGICAL"])
	assert.Equal(t, dto.CategoryScoreDTO{Correct: 1, Total: 2}, detail.CategorySubScores["QUANTITATIVE"])
}

func TestFinalizeAttemptIgnoresForeignQuestions(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 2, []string{"LOGICAL"}, 3)
	other := seedTest(t, f.db, 2, []string{"VERBAL"}, 3)
	link := seedLink(t, f.db, test, nil)

	started, err := f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token})
	require.NoError(t, err)

	detail, err := f.svc.FinalizeAttempt(started.ID, dto.AttemptFinalizeDTO{Answers: map[uint]dto.SubmittedAnswerDTO{
		test.Questions[0].ID:  {AnswerIndex: 0},
		other.Questions[0].ID: {AnswerIndex: 0},
	}})
	require.NoError(t, err)

	require.NotNil(t, detail.RawScore)
	assert.Equal(t, 1, *detail.RawScore)
	assert.Len(t, detail.Answers, 1)
}

func TestFinalizeAttemptIsNotRepeatable(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 3, []string{"LOGICAL"}, 3)
	link := seedLink(t, f.db, test, nil)

	started, err := f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token})
	require.NoError(t, err)

	_, err = f.svc.FinalizeAttempt(started.ID, dto.AttemptFinalizeDTO{Answers: map[uint]dto.SubmittedAnswerDTO{
		test.Questions[0].ID: {AnswerIndex: 0},
	}})
	require.NoError(t, err)

	_, err = f.svc.FinalizeAttempt(started.ID, dto.AttemptFinalizeDTO{Answers: map[uint]dto.SubmittedAnswerDTO{
		test.Questions[0].ID: {AnswerIndex: 1},
	}})
	assert.ErrorIs(t, err, repository.ErrAlreadyFinalized)
}

func TestFinalizeAttemptRejectedAfterTermination(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 3, []string{"LOGICAL"}, 3)
	attempt := seedAttempt(t, f.db, test, f.now)

	completedAt := f.now.Add(5 * time.Minute)
	reason := "Integrity violation limit reached (3 strikes allowed)"
	require.NoError(t, f.db.Model(&model.Attempt{}).
		Where("id = ?", attempt.ID).
		Updates(map[string]interface{}{
			"status":             model.AttemptTerminated,
			"termination_reason": reason,
			"completed_at":       completedAt,
		}).Error)

	_, err := f.svc.FinalizeAttempt(attempt.ID, dto.AttemptFinalizeDTO{Answers: map[uint]dto.SubmittedAnswerDTO{
		test.Questions[0].ID: {AnswerIndex: 0},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrAlreadyFinalized))
}

func TestGetAttemptsForTest(t *testing.T) {
	f := newAttemptFixture(t)
	test := seedTest(t, f.db, 3, []string{"LOGICAL"}, 3)
	link := seedLink(t, f.db, test, nil)

	_, err := f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token, CandidateName: "One"})
	require.NoError(t, err)
	_, err = f.svc.StartAttempt(dto.AttemptStartDTO{LinkToken: link.Token, CandidateName: "Two"})
	require.NoError(t, err)

	summaries, err := f.svc.GetAttemptsForTest(test.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		assert.Equal(t, string(model.AttemptInProgress), s.Status)
	}
}
