package repository

import (
	"github.com/prateek-combat/critest/internal/model"
	"gorm.io/gorm"
)

type ProctorEventRepository interface {
	CreateBatch(events []model.ProctorEvent) error
	FindByAttemptID(attemptID uint) ([]model.ProctorEvent, error)
}

type proctorEventRepository struct {
	db *gorm.DB
}

func NewProctorEventRepository(db *gorm.DB) ProctorEventRepository {
	return &proctorEventRepository{db: db}
}

// CreateBatch appends a batch to the audit log. The log is written even for
// attempts that already reached a terminal status.
func (r *proctorEventRepository) CreateBatch(events []model.ProctorEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.Create(&events).Error
}

func (r *proctorEventRepository) FindByAttemptID(attemptID uint) ([]model.ProctorEvent, error) {
	var events []model.ProctorEvent
	err := r.db.
		Where("attempt_id = ?", attemptID).
		Order("id ASC").
		Find(&events).Error
	return events, err
}
