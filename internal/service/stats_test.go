package service

import (
	"testing"
	"time"

	"kidoai-service/internal/models"
)

func answers(valid ...bool) []models.Answer {
	out := make([]models.Answer, 0, len(valid))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range valid {
		out = append(out, models.Answer{
			Answer:    "respuesta",
			IsValid:   v,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestComputeStats(t *testing.T) {
	testCases := []struct {
		name             string
		answers          []models.Answer
		expectedTotal    int
		expectedCorrect  int
		expectedAccuracy float64
		expectedStreak   int
	}{
		{"empty log", answers(), 0, 0, 0, 0},
		{"all correct", answers(true, true, true), 3, 3, 100, 3},
		{"all wrong", answers(false, false), 2, 0, 0, 0},
		{"streak broken mid-list", answers(true, false, true, true), 4, 3, 75, 2},
		{"streak broken at end", answers(true, true, false), 3, 2, 66.67, 0},
		{"single correct", answers(true), 1, 1, 100, 1},
		{"rounding to two decimals", answers(true, true, false, false, false, false), 6, 2, 33.33, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stats := ComputeStats(tc.answers)

			if stats.TotalAnswers != tc.expectedTotal {
				t.Errorf("Expected TotalAnswers %d, got %d", tc.expectedTotal, stats.TotalAnswers)
			}
			if stats.CorrectAnswers != tc.expectedCorrect {
				t.Errorf("Expected CorrectAnswers %d, got %d", tc.expectedCorrect, stats.CorrectAnswers)
			}
			if stats.IncorrectAnswers != tc.expectedTotal-tc.expectedCorrect {
				t.Errorf("Expected IncorrectAnswers %d, got %d", tc.expectedTotal-tc.expectedCorrect, stats.IncorrectAnswers)
			}
			if stats.Accuracy != tc.expectedAccuracy {
				t.Errorf("Expected Accuracy %.2f, got %.2f", tc.expectedAccuracy, stats.Accuracy)
			}
			if stats.Streak != tc.expectedStreak {
				t.Errorf("Expected Streak %d, got %d", tc.expectedStreak, stats.Streak)
			}
			if stats.Accuracy < 0 || stats.Accuracy > 100 {
				t.Errorf("Accuracy %.2f out of [0,100]", stats.Accuracy)
			}
		})
	}
}

func hasBadge(badges []models.Badge, id string) bool {
	for _, b := range badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

func TestEarnedBadges(t *testing.T) {
	testCases := []struct {
		name     string
		stats    models.UserStats
		score    int
		earned   []string
		missing  []string
	}{
		{
			name:    "fresh account",
			stats:   models.UserStats{},
			score:   0,
			missing: []string{models.BadgeFirstAnswer, models.BadgePerfectStreak, models.BadgeDedicated, models.BadgeCentury, models.BadgeMaster},
		},
		{
			name:    "first answer only",
			stats:   models.UserStats{TotalAnswers: 1, Streak: 1},
			score:   10,
			earned:  []string{models.BadgeFirstAnswer},
			missing: []string{models.BadgePerfectStreak, models.BadgeDedicated, models.BadgeCentury},
		},
		{
			// Badge predicates are independent: a high score without a
			// streak earns century but never perfect_streak.
			name:    "century without streak",
			stats:   models.UserStats{TotalAnswers: 20, Streak: 0},
			score:   100,
			earned:  []string{models.BadgeFirstAnswer, models.BadgeCentury},
			missing: []string{models.BadgePerfectStreak, models.BadgeDedicated, models.BadgeMaster},
		},
		{
			name:    "ten correct in a row",
			stats:   models.UserStats{TotalAnswers: 10, CorrectAnswers: 10, Streak: 10},
			score:   100,
			earned:  []string{models.BadgeFirstAnswer, models.BadgePerfectStreak, models.BadgeCentury},
			missing: []string{models.BadgeDedicated, models.BadgeMaster},
		},
		{
			name:    "dedicated by count not score",
			stats:   models.UserStats{TotalAnswers: 50, Streak: 0},
			score:   40,
			earned:  []string{models.BadgeFirstAnswer, models.BadgeDedicated},
			missing: []string{models.BadgeCentury, models.BadgeMaster},
		},
		{
			name:   "master",
			stats:  models.UserStats{TotalAnswers: 200, Streak: 12},
			score:  1000,
			earned: []string{models.BadgeFirstAnswer, models.BadgePerfectStreak, models.BadgeDedicated, models.BadgeCentury, models.BadgeMaster},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			badges := EarnedBadges(tc.stats, tc.score)
			for _, id := range tc.earned {
				if !hasBadge(badges, id) {
					t.Errorf("Expected badge %s to be earned", id)
				}
			}
			for _, id := range tc.missing {
				if hasBadge(badges, id) {
					t.Errorf("Expected badge %s NOT to be earned", id)
				}
			}
		})
	}
}

func TestNextBadge(t *testing.T) {
	testCases := []struct {
		score    int
		expected string
	}{
		{0, models.BadgeFirstAnswer},
		{1, models.BadgePerfectStreak},
		{50, models.BadgeCentury},
		{100, models.BadgeMaster},
		{999, models.BadgeMaster},
		{1000, ""},
	}

	for _, tc := range testCases {
		next := NextBadge(tc.score)
		if tc.expected == "" {
			if next != nil {
				t.Errorf("score %d: expected no next badge, got %s", tc.score, next.ID)
			}
			continue
		}
		if next == nil {
			t.Errorf("score %d: expected next badge %s, got nil", tc.score, tc.expected)
			continue
		}
		if next.ID != tc.expected {
			t.Errorf("score %d: expected next badge %s, got %s", tc.score, tc.expected, next.ID)
		}
	}
}
