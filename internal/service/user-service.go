package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kidoai-service/internal/apperror"
	"kidoai-service/internal/events"
	"kidoai-service/internal/models"
	"kidoai-service/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// scorePerCorrect is the fixed increment for a valid answer. The score only
// ever goes up.
const scorePerCorrect = 10

// UserStore is the slice of the user repository the account flows need.
// *repository.UserRepository satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailOrGoogleID(ctx context.Context, email, googleID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id bson.ObjectID, name string, difficulty models.Difficulty, passwordHash string) error
	SetLastLogin(ctx context.Context, id bson.ObjectID, at time.Time) error
	LinkGoogleID(ctx context.Context, id bson.ObjectID, googleID string, at time.Time) error
	PushAnswer(ctx context.Context, id bson.ObjectID, answer models.Answer, scoreDelta int) (*models.User, error)
}

type UserService struct {
	Repo      UserStore
	Tokens    *TokenService
	publisher *events.EventPublisher
}

func NewUserService(repo UserStore, tokens *TokenService, publisher *events.EventPublisher) *UserService {
	return &UserService{Repo: repo, Tokens: tokens, publisher: publisher}
}

type AuthResult struct {
	User  models.PublicProfile
	Token string
}

// Signup registers a password-based account. Email comparison is
// case-insensitive: the address is lowercased before lookup and storage.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("An account with this email already exists")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Difficulty:   models.DifficultyEasy,
		Score:        0,
		Answers:      []models.Answer{},
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperror.Conflict("An account with this email already exists")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.Tokens.Generate(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.EventUserRegistered, map[string]any{
		"userId": user.ID.Hex(),
		"email":  user.Email,
	})

	return &AuthResult{User: user.Public(), Token: token}, nil
}

// Login never reveals whether the email or the password was wrong.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	if user.GoogleID != "" && !user.HasPassword() {
		return nil, apperror.BadRequest("This account uses Google sign-in. Please use 'Sign in with Google'.")
	}
	if !ComparePassword(password, user.PasswordHash) {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	if err := s.Repo.SetLastLogin(ctx, user.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("error updating last login: %w", err)
	}

	token, err := s.Tokens.Generate(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.EventUserLogin, map[string]any{
		"userId": user.ID.Hex(),
		"method": "password",
	})

	return &AuthResult{User: user.Public(), Token: token}, nil
}

// LoginWithGoogle resolves a verified Google identity to a local account,
// creating or linking as needed. Each branch is a single document write,
// with the login stamp folded in. The external token is never stored; only
// the locally issued bearer token goes back to the client.
func (s *UserService) LoginWithGoogle(ctx context.Context, email, name, googleID string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Repo.FindByEmailOrGoogleID(ctx, email, googleID)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	now := time.Now()
	switch {
	case user == nil:
		user = &models.User{
			Name:       strings.TrimSpace(name),
			Email:      email,
			GoogleID:   googleID,
			Difficulty: models.DifficultyEasy,
			Score:      0,
			Answers:    []models.Answer{},
			IsActive:   true,
			LastLogin:  now,
		}
		if err := s.Repo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}
	case user.GoogleID == "":
		// Existing password account: link the Google identity, keep the hash.
		if err := s.Repo.LinkGoogleID(ctx, user.ID, googleID, now); err != nil {
			return nil, fmt.Errorf("error linking google account: %w", err)
		}
		user.GoogleID = googleID
	default:
		if err := s.Repo.SetLastLogin(ctx, user.ID, now); err != nil {
			return nil, fmt.Errorf("error updating last login: %w", err)
		}
	}

	token, err := s.Tokens.Generate(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.EventUserLogin, map[string]any{
		"userId": user.ID.Hex(),
		"method": "google",
	})

	return &AuthResult{User: user.Public(), Token: token}, nil
}

func (s *UserService) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	return user, nil
}

// UpdateProfile applies the provided subset of {name, difficulty, password}.
// Hashing happens here, before persistence; the repository never sees a
// plaintext password.
func (s *UserService) UpdateProfile(ctx context.Context, id bson.ObjectID, name, password string, difficulty models.Difficulty) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	hash := ""
	if password != "" {
		hash, err = HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
	}

	if err := s.Repo.UpdateProfile(ctx, user.ID, strings.TrimSpace(name), difficulty, hash); err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserService) VerifyPassword(ctx context.Context, id bson.ObjectID, password string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.GoogleID != "" && !user.HasPassword() {
		return apperror.BadRequest("This account uses Google sign-in and has no password")
	}
	if !ComparePassword(password, user.PasswordHash) {
		return apperror.Unauthorized("Incorrect password")
	}
	return nil
}

type SubmitResult struct {
	Message      string `json:"message"`
	Score        int    `json:"score"`
	TotalAnswers int    `json:"totalAnswers"`
}

// SubmitAnswer appends one answer event and bumps the score for a correct
// one. Resubmitting the same payload appends again; there is no idempotency
// key on purpose.
func (s *UserService) SubmitAnswer(ctx context.Context, id bson.ObjectID, answer string, isValid bool) (*SubmitResult, error) {
	delta := 0
	if isValid {
		delta = scorePerCorrect
	}

	user, err := s.Repo.PushAnswer(ctx, id, models.Answer{
		Answer:    strings.TrimSpace(answer),
		IsValid:   isValid,
		Timestamp: time.Now(),
	}, delta)
	if err != nil {
		return nil, fmt.Errorf("error saving answer: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}

	message := "Not quite right. Keep trying!"
	if isValid {
		message = fmt.Sprintf("Correct! +%d points", scorePerCorrect)
	}

	s.publisher.Publish(events.EventAnswerSubmitted, map[string]any{
		"userId":  user.ID.Hex(),
		"isValid": isValid,
		"score":   user.Score,
	})

	return &SubmitResult{
		Message:      message,
		Score:        user.Score,
		TotalAnswers: len(user.Answers),
	}, nil
}
