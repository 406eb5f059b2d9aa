package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"swipe/interview/internal/llm"
	"swipe/interview/internal/models"
	"swipe/interview/internal/prompts"
	"swipe/interview/internal/resume"
	"swipe/interview/internal/utils"
)

// ErrGeneratorUnavailable means no LLM provider is configured; callers must
// supply questions themselves.
var ErrGeneratorUnavailable = errors.New("question generation unavailable: no LLM provider configured")

// Generator produces the six interview questions for a candidate.
type Generator interface {
	Generate(ctx context.Context, requestID, resumeText string) ([]models.Question, error)
}

// LLMGenerator asks an LLM provider for questions tailored to the resume.
type LLMGenerator struct {
	provider llm.Provider
	prompts  prompts.Renderer
	timeout  time.Duration
	logger   *zap.Logger
}

func NewLLMGenerator(provider llm.Provider, pp prompts.Renderer, timeout time.Duration, logger *zap.Logger) *LLMGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGenerator{provider: provider, prompts: pp, timeout: timeout, logger: logger}
}

type generatedQuestion struct {
	ID             string   `json:"qId"`
	Difficulty     string   `json:"difficulty"`
	Text           string   `json:"text"`
	ExpectedPoints []string `json:"expected_points"`
}

func (g *LLMGenerator) Generate(ctx context.Context, requestID, resumeText string) ([]models.Question, error) {
	if g.provider == nil {
		return nil, ErrGeneratorUnavailable
	}

	variant := "generic"
	data := map[string]interface{}{}
	if strings.TrimSpace(resumeText) != "" {
		variant = "resume"
		data["ResumeText"] = resume.Truncate(resumeText, resume.MaxPromptChars)
		data["Technologies"] = resume.Technologies(resumeText)
		data["ExperienceLevel"] = resume.ExperienceLevel(resumeText)
	}

	prompt, err := g.prompts.Render(prompts.ModeQuestions, variant, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build question prompt: %w", err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.provider.GenerateContent(ctx, prompt, requestID, llm.PurposeQuestions)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	qs, err := Parse(resp.Content)
	if err != nil {
		g.logger.Warn("rejected generated questions",
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, err
	}
	return qs, nil
}

// Parse converts raw model output into a validated question set. Extra items
// beyond six are dropped; fewer than six is an error.
func Parse(content string) ([]models.Question, error) {
	raw, ok := utils.ExtractJSON(content)
	if !ok {
		return nil, &models.InvalidQuestionSetError{Reason: "response contained no JSON"}
	}
	var items []generatedQuestion
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, &models.InvalidQuestionSetError{Reason: "response is not a question array: " + err.Error()}
	}
	if len(items) < models.QuestionsPerSession {
		return nil, &models.InvalidQuestionSetError{
			Reason: fmt.Sprintf("expected %d questions, got %d", models.QuestionsPerSession, len(items)),
		}
	}

	qs := make([]models.Question, 0, models.QuestionsPerSession)
	for _, item := range items[:models.QuestionsPerSession] {
		difficulty := models.Difficulty(utils.NormalizeDifficulty(item.Difficulty))
		qs = append(qs, models.NewQuestion(item.ID, item.Text, difficulty, item.ExpectedPoints))
	}
	qs = models.NormalizeQuestions(qs)

	if err := models.ValidateQuestionSet(qs); err != nil {
		return nil, err
	}
	return qs, nil
}
