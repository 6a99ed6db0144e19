package service

import (
	"context"
	"math"

	"kidoai-service/internal/models"
	"kidoai-service/internal/repository"
)

const dashboardLimit = 50

type LeaderboardService struct {
	Repo *repository.UserRepository
}

func NewLeaderboardService(repo *repository.UserRepository) *LeaderboardService {
	return &LeaderboardService{Repo: repo}
}

// Leaderboard returns the top users ranked by score. Ranks continue from
// offset so a paginating client can stitch pages together.
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit, offset int) ([]models.LeaderboardEntry, error) {
	users, err := s.Repo.FindActiveByScore(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	return RankUsers(users, offset), nil
}

// Dashboard powers the public top-50 view: same sort, no accuracy column.
func (s *LeaderboardService) Dashboard(ctx context.Context) ([]models.DashboardUser, error) {
	users, err := s.Repo.FindActiveByScore(ctx, dashboardLimit)
	if err != nil {
		return nil, err
	}
	entries := make([]models.DashboardUser, 0, len(users))
	for _, u := range users {
		entries = append(entries, models.DashboardUser{
			Name:       u.Name,
			Score:      u.Score,
			Difficulty: u.Difficulty,
		})
	}
	return entries, nil
}

// RankUsers assigns 1-based ranks to an already score-sorted slice and
// computes each user's accuracy to one decimal place.
func RankUsers(users []models.User, offset int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		accuracy := 0.0
		if len(u.Answers) > 0 {
			correct := 0
			for _, a := range u.Answers {
				if a.IsValid {
					correct++
				}
			}
			accuracy = math.Round(float64(correct)/float64(len(u.Answers))*100*10) / 10
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:       offset + i + 1,
			Name:       u.Name,
			Score:      u.Score,
			Difficulty: u.Difficulty,
			Accuracy:   accuracy,
		})
	}
	return entries
}
