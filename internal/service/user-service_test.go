package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"kidoai-service/internal/apperror"
	"kidoai-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeUserStore keeps users in memory and records every write so tests can
// assert on what was persisted and how many times.
type fakeUserStore struct {
	users  []*models.User
	writes []string
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	f.users = append(f.users, user)
	f.writes = append(f.writes, "Create")
	return nil
}

func (f *fakeUserStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByEmailOrGoogleID(ctx context.Context, email, googleID string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email || (googleID != "" && u.GoogleID == googleID) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, id bson.ObjectID, name string, difficulty models.Difficulty, passwordHash string) error {
	u, _ := f.FindByID(ctx, id)
	if u != nil {
		if name != "" {
			u.Name = name
		}
		if difficulty != "" {
			u.Difficulty = difficulty
		}
		if passwordHash != "" {
			u.PasswordHash = passwordHash
		}
	}
	f.writes = append(f.writes, "UpdateProfile")
	return nil
}

func (f *fakeUserStore) SetLastLogin(ctx context.Context, id bson.ObjectID, at time.Time) error {
	if u, _ := f.FindByID(ctx, id); u != nil {
		u.LastLogin = at
	}
	f.writes = append(f.writes, "SetLastLogin")
	return nil
}

func (f *fakeUserStore) LinkGoogleID(ctx context.Context, id bson.ObjectID, googleID string, at time.Time) error {
	if u, _ := f.FindByID(ctx, id); u != nil {
		u.GoogleID = googleID
		u.LastLogin = at
	}
	f.writes = append(f.writes, "LinkGoogleID")
	return nil
}

func (f *fakeUserStore) PushAnswer(ctx context.Context, id bson.ObjectID, answer models.Answer, scoreDelta int) (*models.User, error) {
	u, _ := f.FindByID(ctx, id)
	if u == nil {
		return nil, nil
	}
	u.Answers = append(u.Answers, answer)
	u.Score += scoreDelta
	f.writes = append(f.writes, "PushAnswer")
	return u, nil
}

func newTestUserService(store *fakeUserStore) *UserService {
	return NewUserService(store, NewTokenService("test-secret", 1), nil)
}

func passwordUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return &models.User{
		ID:           bson.NewObjectID(),
		Name:         "Kid",
		Email:        email,
		PasswordHash: hash,
		Difficulty:   models.DifficultyEasy,
		IsActive:     true,
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	store := &fakeUserStore{users: []*models.User{passwordUser(t, "kid@example.com", "Password1")}}
	svc := newTestUserService(store)

	attempts := []string{"kid@example.com", "KID@example.com", "  Kid@Example.COM  "}
	for _, email := range attempts {
		t.Run(email, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), "Other Kid", email, "Password2")
			var apiErr *apperror.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected APIError, got %v", err)
			}
			if apiErr.Status != 409 {
				t.Errorf("Expected status 409, got %d", apiErr.Status)
			}
		})
	}
	if len(store.users) != 1 {
		t.Errorf("Expected no new accounts, got %d users", len(store.users))
	}
}

func TestSignupCreatesAccount(t *testing.T) {
	store := &fakeUserStore{}
	svc := newTestUserService(store)

	result, err := svc.Signup(context.Background(), "Kid", "New@Example.com", "Password1")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if result.User.Email != "new@example.com" {
		t.Errorf("Expected lowercased email, got %s", result.User.Email)
	}
	if result.Token == "" {
		t.Error("Expected a token")
	}
	if store.users[0].PasswordHash == "Password1" {
		t.Error("Password stored in plaintext")
	}
}

func TestLoginNeverLeaksWhichFieldWasWrong(t *testing.T) {
	store := &fakeUserStore{users: []*models.User{passwordUser(t, "kid@example.com", "Password1")}}
	svc := newTestUserService(store)

	testCases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "ghost@example.com", "Password1"},
		{"wrong password", "kid@example.com", "WrongPass1"},
	}

	var messages []string
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.email, tc.password)
			var apiErr *apperror.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected APIError, got %v", err)
			}
			if apiErr.Status != 401 {
				t.Errorf("Expected status 401, got %d", apiErr.Status)
			}
			messages = append(messages, apiErr.Message)
		})
	}

	if len(messages) == 2 && messages[0] != messages[1] {
		t.Errorf("Failure messages differ and leak the failing field: %q vs %q", messages[0], messages[1])
	}
}

func TestLoginGoogleOnlyAccount(t *testing.T) {
	store := &fakeUserStore{users: []*models.User{{
		ID:       bson.NewObjectID(),
		Name:     "Kid",
		Email:    "kid@example.com",
		GoogleID: "g-123",
		IsActive: true,
	}}}
	svc := newTestUserService(store)

	_, err := svc.Login(context.Background(), "kid@example.com", "Password1")
	var apiErr *apperror.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != 400 {
		t.Errorf("Expected status 400, got %d", apiErr.Status)
	}
}

func TestLoginWithGoogle(t *testing.T) {
	t.Run("links existing password account without touching the hash", func(t *testing.T) {
		existing := passwordUser(t, "kid@example.com", "Password1")
		hashBefore := existing.PasswordHash
		store := &fakeUserStore{users: []*models.User{existing}}
		svc := newTestUserService(store)

		result, err := svc.LoginWithGoogle(context.Background(), "kid@example.com", "Kid", "g-123")
		if err != nil {
			t.Fatalf("LoginWithGoogle failed: %v", err)
		}
		if existing.GoogleID != "g-123" {
			t.Errorf("Expected googleId g-123, got %q", existing.GoogleID)
		}
		if existing.PasswordHash != hashBefore {
			t.Error("Password hash changed while linking")
		}
		if result.User.ID != existing.ID.Hex() {
			t.Errorf("Expected existing account %s, got %s", existing.ID.Hex(), result.User.ID)
		}
		if len(store.writes) != 1 || store.writes[0] != "LinkGoogleID" {
			t.Errorf("Expected a single LinkGoogleID write, got %v", store.writes)
		}
	})

	t.Run("creates a new account in one write", func(t *testing.T) {
		store := &fakeUserStore{}
		svc := newTestUserService(store)

		result, err := svc.LoginWithGoogle(context.Background(), "New@Example.com", "New Kid", "g-456")
		if err != nil {
			t.Fatalf("LoginWithGoogle failed: %v", err)
		}
		if result.User.Email != "new@example.com" {
			t.Errorf("Expected lowercased email, got %s", result.User.Email)
		}
		if len(store.writes) != 1 || store.writes[0] != "Create" {
			t.Errorf("Expected a single Create write, got %v", store.writes)
		}
		if store.users[0].LastLogin.IsZero() {
			t.Error("Expected lastLogin to be set on creation")
		}
	})

	t.Run("returning account only stamps the login", func(t *testing.T) {
		store := &fakeUserStore{users: []*models.User{{
			ID:       bson.NewObjectID(),
			Email:    "kid@example.com",
			GoogleID: "g-123",
			IsActive: true,
		}}}
		svc := newTestUserService(store)

		if _, err := svc.LoginWithGoogle(context.Background(), "kid@example.com", "Kid", "g-123"); err != nil {
			t.Fatalf("LoginWithGoogle failed: %v", err)
		}
		if len(store.writes) != 1 || store.writes[0] != "SetLastLogin" {
			t.Errorf("Expected a single SetLastLogin write, got %v", store.writes)
		}
	})
}

func TestSubmitAnswerScoring(t *testing.T) {
	user := passwordUser(t, "kid@example.com", "Password1")
	store := &fakeUserStore{users: []*models.User{user}}
	svc := newTestUserService(store)

	correct, err := svc.SubmitAnswer(context.Background(), user.ID, "gato", true)
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if correct.Score != 10 {
		t.Errorf("Expected score 10, got %d", correct.Score)
	}

	wrong, err := svc.SubmitAnswer(context.Background(), user.ID, "perro", false)
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if wrong.Score != 10 {
		t.Errorf("Expected score unchanged at 10, got %d", wrong.Score)
	}
	if wrong.TotalAnswers != 2 {
		t.Errorf("Expected 2 answers, got %d", wrong.TotalAnswers)
	}
}
