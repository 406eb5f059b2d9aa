package models

import "time"

// raw LLM output returned by a provider
type GenerationResponse struct {
	Content   string             `json:"content"`
	RequestID string             `json:"request_id"`
	Metadata  GenerationMetadata `json:"metadata"`
}

// additional information about a generation call
type GenerationMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Purpose        string `json:"purpose"`
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
}

// StartInterviewResponse is returned when a session is created.
type StartInterviewResponse struct {
	Candidate Candidate `json:"candidate"`
	Session   Session   `json:"session"`
}

// SubmitResponse reports the evaluation of a submitted answer.
type SubmitResponse struct {
	Session    Session  `json:"session"`
	Score      float64  `json:"score"`
	Feedback   string   `json:"feedback"`
	Confidence float64  `json:"confidence"`
	Source     string   `json:"source"`
	Found      []string `json:"foundPoints,omitempty"`
}

// TimerResponse is the live countdown for the active question.
type TimerResponse struct {
	SessionID        string    `json:"sessionId"`
	QuestionIndex    int       `json:"questionIndex"`
	RemainingSeconds int       `json:"remainingSeconds"`
	Level            string    `json:"level"`
	Paused           bool      `json:"paused"`
	ServerTime       time.Time `json:"serverTime"`
}

// PendingDecision is an in-progress candidate awaiting resume or discard.
type PendingDecision struct {
	CandidateID string    `json:"candidateId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	StartedAt   time.Time `json:"startedAt"`
	// SessionID is the abandoned session; a different value means another
	// instance already resumed the candidate.
	SessionID string `json:"sessionId,omitempty"`
}

type CandidateListResponse struct {
	Candidates []Candidate `json:"candidates"`
	Total      int         `json:"total"`
}
