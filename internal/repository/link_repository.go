package repository

import (
	"errors"

	"github.com/prateek-combat/critest/internal/model"
	"gorm.io/gorm"
)

type PublicLinkRepository interface {
	Create(link *model.PublicLink) error
	FindByToken(token string) (*model.PublicLink, error)
	ConsumeUse(linkID uint) error
	ReleaseUse(linkID uint) error
}

type publicLinkRepository struct {
	db *gorm.DB
}

func NewPublicLinkRepository(db *gorm.DB) PublicLinkRepository {
	return &publicLinkRepository{db: db}
}

func (r *publicLinkRepository) Create(link *model.PublicLink) error {
	return r.db.Create(link).Error
}

func (r *publicLinkRepository) FindByToken(token string) (*model.PublicLink, error) {
	var link model.PublicLink
	err := r.db.
		Preload("Test").
		Preload("TimeSlot").
		Where("token = ?", token).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

// ConsumeUse claims one use of the link with a conditional increment, so two
// concurrent starts against a link with one remaining use cannot both
// succeed. Zero affected rows means the cap is exhausted.
func (r *publicLinkRepository) ConsumeUse(linkID uint) error {
	res := r.db.Model(&model.PublicLink{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", linkID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUsageLimitReached
	}
	return nil
}

// ReleaseUse compensates ConsumeUse when a later step of attempt creation
// fails.
func (r *publicLinkRepository) ReleaseUse(linkID uint) error {
	return r.db.Model(&model.PublicLink{}).
		Where("id = ? AND used_count > 0", linkID).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}
