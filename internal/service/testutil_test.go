package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prateek-combat/critest/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

type captureNotifier struct {
	calls      int
	lastReason string
	lastScore  ScoreResult
}

func (n *captureNotifier) Notify(_ *model.Attempt, _ *model.Test, reason string, score ScoreResult) {
	n.calls++
	n.lastReason = reason
	n.lastScore = score
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Test{},
		&model.Question{},
		&model.TimeSlot{},
		&model.PublicLink{},
		&model.Invitation{},
		&model.Attempt{},
		&model.SubmittedAnswer{},
		&model.ProctorEvent{},
	))
	return db
}

// seedTest creates a test whose questions all have correct answer index 0,
// spread across the given categories in order (round-robin).
func seedTest(t *testing.T, db *gorm.DB, questionCount int, categories []string, maxCopyEvents int) *model.Test {
	t.Helper()
	options, err := json.Marshal([]string{"Option A", "Option B", "Option C", "Option D"})
	require.NoError(t, err)

	test := model.Test{
		Title:                "Screening " + uuid.NewString(),
		MaxCopyEventsAllowed: maxCopyEvents,
	}
	for i := 0; i < questionCount; i++ {
		test.Questions = append(test.Questions, model.Question{
			Text:               fmt.Sprintf("Question %d", i+1),
			Options:            datatypes.JSON(options),
			CorrectAnswerIndex: 0,
			Category:           categories[i%len(categories)],
			OrderInTest:        i + 1,
		})
	}
	require.NoError(t, db.Create(&test).Error)
	return &test
}

func seedAttempt(t *testing.T, db *gorm.DB, test *model.Test, startedAt time.Time) *model.Attempt {
	t.Helper()
	attempt := model.Attempt{
		TestID:               test.ID,
		Status:               model.AttemptInProgress,
		StartedAt:            startedAt,
		MaxCopyEventsAllowed: test.MaxCopyEventsAllowed,
	}
	require.NoError(t, db.Create(&attempt).Error)
	return &attempt
}
