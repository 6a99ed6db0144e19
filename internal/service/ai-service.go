package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"kidoai-service/internal/apperror"
)

const (
	quizPrompt = `You are a language teacher creating quizzes for students.
Create 1 question in Spanish with its translation hint.
Return ONLY valid JSON in this exact format:
[{"text": "¿Question in Spanish?", "hint": "English hint", "options": [{"id": "1", "text": "Option 1", "isCorrect": false}, {"id": "2", "text": "Option 2", "isCorrect": true}, {"id": "3", "text": "Option 3", "isCorrect": false}, {"id": "4", "text": "Option 4", "isCorrect": false}]}]
Make sure exactly one option has isCorrect: true.`

	speechPrompt = `You are a language teacher. Generate a short, clear English sentence (maximum 8 words) for speech practice.
Return ONLY the sentence, no quotes, no explanation, just the plain sentence.`
)

// AIService is a thin proxy over an OpenAI-compatible chat-completion
// endpoint. One upstream call per request, no retries: the endpoints behind
// it are rate limited precisely because each call costs money.
type AIService struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	Model   string
}

func NewAIService(baseURL, apiKey, model string) *AIService {
	return &AIService{
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
	}
}

type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
	MaxTokens   int                     `json:"max_tokens"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

type QuizOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuizQuestion struct {
	Text    string       `json:"text"`
	Hint    string       `json:"hint"`
	Options []QuizOption `json:"options"`
}

type SpeechChallenge struct {
	Sentence  string `json:"sentence"`
	WordCount int    `json:"wordCount"`
}

// QuizQuestion asks the model for one multiple-choice question and parses
// the constrained JSON payload out of its reply.
func (s *AIService) QuizQuestion(ctx context.Context) (*QuizQuestion, error) {
	content, err := s.complete(ctx, quizPrompt, 500)
	if err != nil {
		return nil, err
	}

	var questions []QuizQuestion
	raw := ExtractJSON(content)
	if raw == "" {
		return nil, apperror.Internal("Failed to generate question")
	}
	if err := json.Unmarshal([]byte(raw), &questions); err != nil || len(questions) == 0 {
		return nil, apperror.Internal("Failed to generate question")
	}
	return &questions[0], nil
}

// SpeechSentence asks the model for a short plain-text sentence.
func (s *AIService) SpeechSentence(ctx context.Context) (*SpeechChallenge, error) {
	content, err := s.complete(ctx, speechPrompt, 50)
	if err != nil {
		return nil, err
	}

	sentence := TrimQuotes(strings.TrimSpace(content))
	if sentence == "" {
		return nil, apperror.Internal("Failed to generate sentence")
	}
	return &SpeechChallenge{
		Sentence:  sentence,
		WordCount: len(strings.Fields(sentence)),
	}, nil
}

func (s *AIService) complete(ctx context.Context, systemPrompt string, maxTokens int) (string, error) {
	if s.APIKey == "" {
		return "", apperror.Internal("AI service not configured")
	}

	request := chatCompletionRequest{
		Model: s.Model,
		Messages: []chatCompletionMessage{
			{Role: "system", Content: systemPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	}
	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}

var fencedJSON = regexp.MustCompile("(?s)```json(.*?)```")

// ExtractJSON pulls a JSON document out of a model reply: a ```json fenced
// block when present, the raw text otherwise. Empty string when neither
// parses.
func ExtractJSON(text string) string {
	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		candidate := strings.TrimSpace(match[1])
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}
	candidate := strings.TrimSpace(text)
	if json.Valid([]byte(candidate)) {
		return candidate
	}
	return ""
}

// TrimQuotes strips single and double quote characters anywhere in the
// string, matching how speech sentences are cleaned for display.
func TrimQuotes(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\'' || r == '"' {
			return -1
		}
		return r
	}, s)
}
