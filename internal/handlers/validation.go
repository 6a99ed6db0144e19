package handlers

import (
	"regexp"
	"strings"
	"unicode"

	"kidoai-service/internal/models"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

type fieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

func validateName(name string, required bool) *fieldError {
	name = strings.TrimSpace(name)
	if name == "" {
		if required {
			return &fieldError{Field: "name", Msg: "Name is required"}
		}
		return nil
	}
	if len(name) < 2 || len(name) > 50 {
		return &fieldError{Field: "name", Msg: "Name must be between 2 and 50 characters"}
	}
	if !nameRe.MatchString(name) {
		return &fieldError{Field: "name", Msg: "Name can only contain letters, spaces, hyphens, and apostrophes"}
	}
	return nil
}

func validateEmail(email string) *fieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return &fieldError{Field: "email", Msg: "Email is required"}
	}
	if !emailRe.MatchString(email) {
		return &fieldError{Field: "email", Msg: "Invalid email address"}
	}
	return nil
}

func validatePassword(password string, required bool) *fieldError {
	if password == "" {
		if required {
			return &fieldError{Field: "password", Msg: "Password is required"}
		}
		return nil
	}
	if len(password) < 8 {
		return &fieldError{Field: "password", Msg: "Password must be at least 8 characters long"}
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return &fieldError{Field: "password", Msg: "Password must contain at least one uppercase letter, one lowercase letter, and one number"}
	}
	return nil
}

// validateAnswer trims first so a whitespace-only answer is rejected, not
// stored as an empty string.
func validateAnswer(answer string) *fieldError {
	if strings.TrimSpace(answer) == "" {
		return &fieldError{Field: "answer", Msg: "Answer is required"}
	}
	return nil
}

func validateDifficulty(difficulty string) *fieldError {
	if difficulty == "" {
		return nil
	}
	if !models.Difficulty(difficulty).Valid() {
		return &fieldError{Field: "difficulty", Msg: "Difficulty must be easy, medium, or hard"}
	}
	return nil
}
