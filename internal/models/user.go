package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Answer is one submission in a user's log. Answers are append-only and
// never edited, so insertion order is chronological order.
type Answer struct {
	Answer    string    `bson:"answer" json:"answer"`
	IsValid   bool      `bson:"isValid" json:"isValid"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash,omitempty" json:"-"`
	GoogleID     string        `bson:"googleId,omitempty" json:"googleId,omitempty"`
	Difficulty   Difficulty    `bson:"difficulty" json:"difficulty"`
	Score        int           `bson:"score" json:"score"`
	Answers      []Answer      `bson:"answers" json:"answers"`
	IsActive     bool          `bson:"isActive" json:"isActive"`
	LastLogin    time.Time     `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// HasPassword reports whether the account can authenticate with a password.
// Google-only accounts carry no hash until the user sets one via editProfile.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// PublicProfile is the user shape returned by auth and profile endpoints.
type PublicProfile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Difficulty Difficulty `json:"difficulty"`
	Score      int        `json:"score"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		Difficulty: u.Difficulty,
		Score:      u.Score,
	}
}

// UserStats is derived from the answer log and score on every read; nothing
// in here is persisted.
type UserStats struct {
	TotalAnswers     int     `json:"totalAnswers"`
	CorrectAnswers   int     `json:"correctAnswers"`
	IncorrectAnswers int     `json:"incorrectAnswers"`
	Accuracy         float64 `json:"accuracy"`
	Streak           int     `json:"streak"`
}

type LeaderboardEntry struct {
	Rank       int        `json:"rank"`
	Name       string     `json:"name"`
	Score      int        `json:"score"`
	Difficulty Difficulty `json:"difficulty"`
	Accuracy   float64    `json:"accuracy"`
}

type DashboardUser struct {
	Name       string     `json:"name"`
	Score      int        `json:"score"`
	Difficulty Difficulty `json:"difficulty"`
}

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}
