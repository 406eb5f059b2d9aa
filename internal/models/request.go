package models

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StartInterviewRequest creates a candidate and starts their session. Questions
// are generated from ResumeText unless supplied directly.
type StartInterviewRequest struct {
	Name           string     `json:"name" validate:"max=200"`
	Email          string     `json:"email" validate:"omitempty,email"`
	Phone          string     `json:"phone" validate:"max=40"`
	Position       string     `json:"position" validate:"max=200"`
	ResumeFilename string     `json:"resumeFilename" validate:"max=255"`
	ResumeSize     int64      `json:"resumeSize" validate:"gte=0"`
	ResumeText     string     `json:"resumeText"`
	Questions      []Question `json:"questions,omitempty"`
}

func (r *StartInterviewRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Position = strings.TrimSpace(r.Position)

	if r.ResumeText == "" && len(r.Questions) == 0 {
		return &ErrorResponse{
			Code:    "missing_resume",
			Message: "Either resumeText or questions is required",
		}
	}
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	if len(r.Questions) > 0 {
		r.Questions = NormalizeQuestions(r.Questions)
		if err := ValidateQuestionSet(r.Questions); err != nil {
			return &ErrorResponse{Code: "invalid_question_set", Message: err.Error()}
		}
	}
	return nil
}

// Decision on an unfinished interview found at startup.
type Decision string

const (
	DecisionResume  Decision = "resume"
	DecisionDiscard Decision = "discard"
)

type DecisionRequest struct {
	Decision Decision `json:"decision" validate:"required,oneof=resume discard"`
}

func (r *DecisionRequest) Validate() error {
	r.Decision = Decision(strings.ToLower(strings.TrimSpace(string(r.Decision))))
	if err := validate.Struct(r); err != nil {
		return &ErrorResponse{
			Code:    "invalid_decision",
			Message: "Decision must be one of: resume, discard",
		}
	}
	return nil
}

// DraftRequest carries the in-progress answer text; empty is allowed.
type DraftRequest struct {
	Text string `json:"text" validate:"max=20000"`
}

func (r *DraftRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &ErrorResponse{Code: "answer_too_long", Message: "Answer text exceeds 20000 characters"}
	}
	return nil
}

// SubmitRequest submits the final answer for a question.
type SubmitRequest struct {
	Text string `json:"text" validate:"max=20000"`
}

func (r *SubmitRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &ErrorResponse{Code: "answer_too_long", Message: "Answer text exceeds 20000 characters"}
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ErrorResponse{Code: "invalid_request", Message: err.Error()}
	}
	details := make([]ValidationErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, ValidationErrorDetail{
			Field:  strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
			Reason: fe.Tag(),
		})
	}
	return &ErrorResponse{
		Code:    "validation_error",
		Message: "Request validation failed",
		Details: details,
	}
}
