package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuestionSet    = errors.New("invalid question set")
	ErrAlreadySubmitted      = errors.New("question already submitted")
	ErrNotActiveQuestion     = errors.New("question is not the active question")
	ErrNotSubmitted          = errors.New("active question has not been submitted")
	ErrSessionFinished       = errors.New("session is finished")
	ErrSessionNotFound       = errors.New("session not found")
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrDecisionPending       = errors.New("unfinished interview requires a resume or discard decision")
	ErrDecisionResolved      = errors.New("unfinished interview was already resolved")
	ErrEvaluationUnavailable = errors.New("evaluation unavailable")
)

// InvalidQuestionSetError explains why a generated or supplied set was rejected.
type InvalidQuestionSetError struct {
	Reason string
}

func (e *InvalidQuestionSetError) Error() string {
	return "invalid question set: " + e.Reason
}

func (e *InvalidQuestionSetError) Is(target error) bool {
	return target == ErrInvalidQuestionSet
}

// PersistenceWriteError is returned when durable storage rejects a write.
// In-memory progress is kept regardless.
type PersistenceWriteError struct {
	Key string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("persistence write failed for %s: %v", e.Key, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
