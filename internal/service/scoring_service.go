package service

import (
	"encoding/json"
	"fmt"

	"github.com/prateek-combat/critest/internal/model"
	"gorm.io/datatypes"
)

// CategoryScore is one per-category bucket of a score breakdown.
type CategoryScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ScoreResult holds the outcome of scoring an attempt. Percentile is the
// raw proportion of correct answers against the test's own question count,
// scaled to 0-100; it is not a cohort rank.
type ScoreResult struct {
	RawScore          int
	Percentile        float64
	CategorySubScores map[string]CategoryScore
}

// SubScoresJSON serializes the category breakdown for storage.
func (r ScoreResult) SubScoresJSON() (datatypes.JSON, error) {
	b, err := json.Marshal(r.CategorySubScores)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal category sub-scores: %w", err)
	}
	return datatypes.JSON(b), nil
}

type ScoringService interface {
	Score(test *model.Test, answers []model.SubmittedAnswer) ScoreResult
}

type scoringService struct{}

func NewScoringService() ScoringService {
	return &scoringService{}
}

// Score compares submitted answers against the test's answer key. Every
// category present in the test appears in the breakdown with its full
// question total, even when none of its questions were answered; unanswered
// questions count toward totals but never toward correct.
func (s *scoringService) Score(test *model.Test, answers []model.SubmittedAnswer) ScoreResult {
	subScores := make(map[string]CategoryScore, 4)
	questionByID := make(map[uint]model.Question, len(test.Questions))
	for _, q := range test.Questions {
		questionByID[q.ID] = q
		cs := subScores[q.Category]
		cs.Total++
		subScores[q.Category] = cs
	}

	rawScore := 0
	for _, a := range answers {
		q, ok := questionByID[a.QuestionID]
		if !ok {
			continue
		}
		if a.SelectedAnswerIndex == q.CorrectAnswerIndex {
			rawScore++
			cs := subScores[q.Category]
			cs.Correct++
			subScores[q.Category] = cs
		}
	}

	percentile := 0.0
	if len(test.Questions) > 0 {
		percentile = float64(rawScore) / float64(len(test.Questions)) * 100
	}

	return ScoreResult{
		RawScore:          rawScore,
		Percentile:        percentile,
		CategorySubScores: subScores,
	}
}
