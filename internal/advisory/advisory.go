// Package advisory gates AI-generated financial advice behind a per-owner
// lifetime quota.
package advisory

import (
	"context"
	"errors"
	"fmt"
)

// DefaultQuota is the number of successful generations each owner gets.
const DefaultQuota = 3

// PlaceholderCredential is treated the same as a missing API key.
const PlaceholderCredential = "YOUR_OPENAI_API_KEY_PLACEHOLDER"

type Status string

const (
	StatusSuccess          Status = "success"
	StatusLimitReached     Status = "limit_reached"
	StatusInsufficientData Status = "insufficient_data"
	StatusNotConfigured    Status = "not_configured"
	StatusServiceError     Status = "service_error"
	StatusBusy             Status = "busy"
)

// User-facing messages returned in Result.Error.
const (
	MsgLimitReached     = "AI advice generation limit reached."
	MsgInsufficientData = "Not enough financial data to generate advice. Please add some income and expense transactions."
	MsgNotConfigured    = "AI service not configured by administrator (API key missing)."
	MsgEmptyAdvice      = "AI could not extract advice at this moment. Please try again later."
	MsgCommunication    = "Error communicating with AI service."
	MsgBusy             = "An advice request is already in progress. Please wait for it to finish."
)

// Result is the outcome of one advice request. Exactly one of Advice or
// Error is set.
type Result struct {
	Status          Status `json:"status"`
	Advice          string `json:"advice,omitempty"`
	AdviceHTML      string `json:"adviceHtml,omitempty"`
	Error           string `json:"error,omitempty"`
	GenerationsLeft int    `json:"generationsLeft"`
}

// Generator produces advice text for a prompt.
type Generator interface {
	// Configured reports whether a usable credential is present.
	Configured() bool
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ErrEmptyAdvice is returned by generators when the provider answered but no
// advice text could be extracted.
var ErrEmptyAdvice = errors.New("no advice in provider response")

// StatusError is a non-success HTTP status from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("advice provider returned status %d", e.Code)
}

// IsPlaceholderCredential reports whether key is empty or the shipped placeholder.
func IsPlaceholderCredential(key string) bool {
	return key == "" || key == PlaceholderCredential
}

// failureMessage maps a generator error to the message shown to the owner.
func failureMessage(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("Failed to get advice from AI service (Status: %d).", se.Code)
	case errors.Is(err, ErrEmptyAdvice):
		return MsgEmptyAdvice
	default:
		return MsgCommunication
	}
}

// NewGenerator builds the generator for provider ("openai" or "gemini").
func NewGenerator(ctx context.Context, provider, apiKey, model, baseURL string) (Generator, error) {
	switch provider {
	case "", "openai":
		return NewOpenAIGenerator(apiKey, model, baseURL, nil), nil
	case "gemini":
		g, err := NewGeminiGenerator(ctx, apiKey, model, baseURL)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("unknown advice provider %q", provider)
}
