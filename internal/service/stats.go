package service

import (
	"math"

	"kidoai-service/internal/models"
)

// ComputeStats derives accuracy and the current streak from the answer log.
// Accuracy is 0 when there are no answers, never NaN.
func ComputeStats(answers []models.Answer) models.UserStats {
	total := len(answers)
	correct := 0
	for _, a := range answers {
		if a.IsValid {
			correct++
		}
	}

	accuracy := 0.0
	if total > 0 {
		accuracy = math.Round(float64(correct)/float64(total)*100*100) / 100
	}

	// Streak: trailing run of correct answers, scanning newest first.
	streak := 0
	for i := total - 1; i >= 0; i-- {
		if !answers[i].IsValid {
			break
		}
		streak++
	}

	return models.UserStats{
		TotalAnswers:     total,
		CorrectAnswers:   correct,
		IncorrectAnswers: total - correct,
		Accuracy:         accuracy,
		Streak:           streak,
	}
}

// EarnedBadges filters the catalog with the per-badge predicate table.
// The rules are deliberately asymmetric: first_answer and dedicated look at
// answer count, perfect_streak at the streak, everything else at the score.
func EarnedBadges(stats models.UserStats, score int) []models.Badge {
	earned := []models.Badge{}
	for _, badge := range models.BadgeCatalog {
		var ok bool
		switch badge.ID {
		case models.BadgeFirstAnswer:
			ok = stats.TotalAnswers >= 1
		case models.BadgePerfectStreak:
			ok = stats.Streak >= badge.Requirement
		case models.BadgeDedicated:
			ok = stats.TotalAnswers >= badge.Requirement
		default:
			ok = score >= badge.Requirement
		}
		if ok {
			earned = append(earned, badge)
		}
	}
	return earned
}

// NextBadge returns the first score-ordered catalog entry the user has not
// reached yet, for the profile progress bar. Nil when everything is earned.
func NextBadge(score int) *models.Badge {
	for i := range models.BadgeCatalog {
		if score < models.BadgeCatalog[i].Requirement {
			return &models.BadgeCatalog[i]
		}
	}
	return nil
}
