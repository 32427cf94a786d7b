package repository

import (
	"errors"
	"time"

	"github.com/prateek-combat/critest/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(attempt *model.Attempt) error
	FindByID(id uint) (*model.Attempt, error)
	FindByIDWithDetails(id uint) (*model.Attempt, error)
	FindLatestByInvitationID(invitationID uint) (*model.Attempt, error)
	FindAllByTestID(testID uint) ([]model.Attempt, error)
	FindAnswers(attemptID uint) ([]model.SubmittedAnswer, error)
	ApplyViolationDelta(attemptID uint, delta int, reason string, now time.Time) (*model.Attempt, bool, error)
	Finalize(attemptID uint, answers []model.SubmittedAnswer, rawScore int, percentile float64, subScores datatypes.JSON, now time.Time) (*model.Attempt, error)
	StoreScore(attemptID uint, rawScore int, percentile float64, subScores datatypes.JSON) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.Attempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithDetails(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Preload("Test").
		Preload("Answers.Question").
		First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindLatestByInvitationID(invitationID uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Where("invitation_id = ?", invitationID).
		Order("created_at DESC").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindAllByTestID(testID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.
		Where("test_id = ?", testID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindAnswers(attemptID uint) ([]model.SubmittedAnswer, error) {
	var answers []model.SubmittedAnswer
	err := r.db.
		Where("attempt_id = ?", attemptID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

// ApplyViolationDelta atomically adds delta to the attempt's violation count
// and, if the new count reaches the attempt's budget, flips the attempt to
// TERMINATED in the same transaction. The increment and the terminal flip are
// both guarded on status = IN_PROGRESS, so two concurrent batches cannot both
// read a stale count and skip termination, and at most one caller ever
// observes terminatedNow = true.
func (r *attemptRepository) ApplyViolationDelta(attemptID uint, delta int, reason string, now time.Time) (*model.Attempt, bool, error) {
	var attempt model.Attempt
	terminatedNow := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Attempt{}).
			Where("id = ? AND status = ?", attemptID, model.AttemptInProgress).
			UpdateColumn("copy_event_count", gorm.Expr("copy_event_count + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(&attempt, attemptID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrAttemptNotFound
				}
				return err
			}
			return ErrAlreadyTerminated
		}

		if err := tx.First(&attempt, attemptID).Error; err != nil {
			return err
		}
		if attempt.CopyEventCount < attempt.MaxCopyEventsAllowed {
			return nil
		}

		flip := tx.Model(&model.Attempt{}).
			Where("id = ? AND status = ?", attemptID, model.AttemptInProgress).
			Updates(map[string]interface{}{
				"status":             model.AttemptTerminated,
				"termination_reason": reason,
				"completed_at":       now,
			})
		if flip.Error != nil {
			return flip.Error
		}
		terminatedNow = flip.RowsAffected == 1
		return tx.First(&attempt, attemptID).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyTerminated) {
			return &attempt, false, err
		}
		return nil, false, err
	}
	return &attempt, terminatedNow, nil
}

// Finalize writes the answer batch and score and flips the attempt to
// COMPLETED, all in one transaction. A TERMINATED attempt cannot be
// completed and a COMPLETED attempt is never overwritten.
func (r *attemptRepository) Finalize(attemptID uint, answers []model.SubmittedAnswer, rawScore int, percentile float64, subScores datatypes.JSON, now time.Time) (*model.Attempt, error) {
	var attempt model.Attempt

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Attempt{}).
			Where("id = ? AND status = ?", attemptID, model.AttemptInProgress).
			Updates(map[string]interface{}{
				"status":              model.AttemptCompleted,
				"completed_at":        now,
				"raw_score":           rawScore,
				"percentile":          percentile,
				"category_sub_scores": subScores,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(&attempt, attemptID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrAttemptNotFound
				}
				return err
			}
			return ErrAlreadyFinalized
		}

		for i := range answers {
			answers[i].AttemptID = attemptID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return tx.First(&attempt, attemptID).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyFinalized) {
			return &attempt, err
		}
		return nil, err
	}
	return &attempt, nil
}

// StoreScore persists a partial-data score onto an already terminated
// attempt. Guarded on TERMINATED so it can never touch a completed one.
func (r *attemptRepository) StoreScore(attemptID uint, rawScore int, percentile float64, subScores datatypes.JSON) error {
	return r.db.Model(&model.Attempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptTerminated).
		Updates(map[string]interface{}{
			"raw_score":           rawScore,
			"percentile":          percentile,
			"category_sub_scores": subScores,
		}).Error
}
