package repository

import (
	"errors"

	"github.com/prateek-combat/critest/internal/model"
	"gorm.io/gorm"
)

type InvitationRepository interface {
	Create(invitation *model.Invitation) error
	FindByToken(token string) (*model.Invitation, error)
}

type invitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(invitation *model.Invitation) error {
	return r.db.Create(invitation).Error
}

func (r *invitationRepository) FindByToken(token string) (*model.Invitation, error) {
	var invitation model.Invitation
	err := r.db.
		Preload("Test").
		Where("token = ?", token).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return &invitation, nil
}
