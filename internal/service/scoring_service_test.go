package service

import (
	"testing"

	"github.com/prateek-combat/critest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(id uint, category string, correctIdx int) model.Question {
	return model.Question{ID: id, Category: category, CorrectAnswerIndex: correctIdx}
}

func TestScoreCleanCompletion(t *testing.T) {
	scoring := NewScoringService()
	test := &model.Test{Questions: []model.Question{
		question(1, "LOGICAL", 0),
		question(2, "LOGICAL", 1),
		question(3, "LOGICAL", 2),
		question(4, "LOGICAL", 0),
		question(5, "LOGICAL", 3),
	}}
	answers := []model.SubmittedAnswer{
		{QuestionID: 1, SelectedAnswerIndex: 0}, // correct
		{QuestionID: 2, SelectedAnswerIndex: 1}, // correct
		{QuestionID: 3, SelectedAnswerIndex: 2}, // correct
		{QuestionID: 4, SelectedAnswerIndex: 1},
		{QuestionID: 5, SelectedAnswerIndex: 0},
	}

	result := scoring.Score(test, answers)

	assert.Equal(t, 3, result.RawScore)
	assert.InDelta(t, 60.0, result.Percentile, 0.0001)
	require.Contains(t, result.CategorySubScores, "LOGICAL")
	assert.Equal(t, CategoryScore{Correct: 3, Total: 5}, result.CategorySubScores["LOGICAL"])
}

func TestScoreEveryCategoryPresentWithFullTotals(t *testing.T) {
	scoring := NewScoringService()
	test := &model.Test{Questions: []model.Question{
		question(1, "LOGICAL", 0),
		question(2, "LOGICAL", 0),
		question(3, "VERBAL", 0),
		question(4, "ATTENTION", 0),
	}}

	// Only a LOGICAL question answered; VERBAL and ATTENTION untouched.
	result := scoring.Score(test, []model.SubmittedAnswer{
		{QuestionID: 1, SelectedAnswerIndex: 0},
	})

	assert.Equal(t, 1, result.RawScore)
	assert.Equal(t, CategoryScore{Correct: 1, Total: 2}, result.CategorySubScores["LOGICAL"])
	assert.Equal(t, CategoryScore{Correct: 0, Total: 1}, result.CategorySubScores["VERBAL"])
	assert.Equal(t, CategoryScore{Correct: 0, Total: 1}, result.CategorySubScores["ATTENTION"])
}

func TestScoreUnansweredQuestionsAreNotAnError(t *testing.T) {
	scoring := NewScoringService()
	test := &model.Test{Questions: []model.Question{
		question(1, "LOGICAL", 0),
		question(2, "LOGICAL", 0),
	}}

	result := scoring.Score(test, nil)

	assert.Equal(t, 0, result.RawScore)
	assert.Zero(t, result.Percentile)
	assert.Equal(t, CategoryScore{Correct: 0, Total: 2}, result.CategorySubScores["LOGICAL"])
}

func TestScoreIgnoresAnswersForForeignQuestions(t *testing.T) {
	scoring := NewScoringService()
	test := &model.Test{Questions: []model.Question{
		question(1, "LOGICAL", 0),
	}}

	result := scoring.Score(test, []model.SubmittedAnswer{
		{QuestionID: 1, SelectedAnswerIndex: 0},
		{QuestionID: 999, SelectedAnswerIndex: 0},
	})

	assert.Equal(t, 1, result.RawScore)
	assert.InDelta(t, 100.0, result.Percentile, 0.0001)
}

func TestScoreEmptyTest(t *testing.T) {
	scoring := NewScoringService()
	result := scoring.Score(&model.Test{}, nil)

	assert.Equal(t, 0, result.RawScore)
	assert.Zero(t, result.Percentile)
	assert.Empty(t, result.CategorySubScores)
}
