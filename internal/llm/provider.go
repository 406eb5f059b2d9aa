package llm

import (
	"context"
	"fmt"

	"swipe/interview/internal/models"
)

// Generation purposes. Providers may tune sampling per purpose.
const (
	PurposeQuestions = "questions"
	PurposeEvaluate  = "evaluate"
	PurposeSummary   = "summary"
)

// Provider produces raw model text for a rendered prompt. Callers own parsing.
type Provider interface {
	GenerateContent(ctx context.Context, prompt string, requestID string, purpose string) (*models.GenerationResponse, error)
	GetProviderName() string
}

// ErrorCode classifies a provider failure.
type ErrorCode string

const (
	ErrCodeAPIKey       ErrorCode = "invalid_api_key"
	ErrCodeRateLimit    ErrorCode = "rate_limit_exceeded"
	ErrCodeServiceDown  ErrorCode = "service_unavailable"
	ErrCodeInvalidInput ErrorCode = "invalid_input"
	ErrCodeTimeout      ErrorCode = "timeout"
)

// ProviderError wraps a failed call to a model backend.
type ProviderError struct {
	Provider string
	Code     ErrorCode
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Message)
	if e.Code != "" {
		msg += " [" + string(e.Code) + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Temporary reports whether retrying later could succeed.
func (e *ProviderError) Temporary() bool {
	switch e.Code {
	case ErrCodeRateLimit, ErrCodeServiceDown, ErrCodeTimeout:
		return true
	}
	return false
}
