package repository

import (
	"errors"

	"github.com/prateek-combat/critest/internal/model"
	"gorm.io/gorm"
)

type TestRepository interface {
	Create(test *model.Test) error
	FindByID(id uint) (*model.Test, error)
	FindByIDWithQuestions(id uint) (*model.Test, error)
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(test *model.Test) error {
	// GORM creates the associated questions along with the test.
	return r.db.Create(test).Error
}

func (r *testRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.First(&test, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(id uint) (*model.Test, error) {
	var test model.Test
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order_in_test ASC")
	}).First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	return &test, nil
}
