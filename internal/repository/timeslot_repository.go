package repository

import (
	"errors"

	"github.com/prateek-combat/critest/internal/model"
	"gorm.io/gorm"
)

type TimeSlotRepository interface {
	Create(slot *model.TimeSlot) error
	FindByID(id uint) (*model.TimeSlot, error)
	ReserveSeat(slotID uint) error
	ReleaseSeat(slotID uint) error
}

type timeSlotRepository struct {
	db *gorm.DB
}

func NewTimeSlotRepository(db *gorm.DB) TimeSlotRepository {
	return &timeSlotRepository{db: db}
}

func (r *timeSlotRepository) Create(slot *model.TimeSlot) error {
	return r.db.Create(slot).Error
}

func (r *timeSlotRepository) FindByID(id uint) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	if err := r.db.First(&slot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// ReserveSeat claims one seat with a conditional increment against the
// participant cap, closing the check-then-act race between the access gate's
// capacity read and attempt creation.
func (r *timeSlotRepository) ReserveSeat(slotID uint) error {
	res := r.db.Model(&model.TimeSlot{}).
		Where("id = ? AND (max_participants IS NULL OR current_participants < max_participants)", slotID).
		UpdateColumn("current_participants", gorm.Expr("current_participants + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSlotFull
	}
	return nil
}

func (r *timeSlotRepository) ReleaseSeat(slotID uint) error {
	return r.db.Model(&model.TimeSlot{}).
		Where("id = ? AND current_participants > 0", slotID).
		UpdateColumn("current_participants", gorm.Expr("current_participants - 1")).Error
}
