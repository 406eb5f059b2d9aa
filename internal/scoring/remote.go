package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"swipe/interview/internal/llm"
	"swipe/interview/internal/models"
	"swipe/interview/internal/prompts"
	"swipe/interview/internal/utils"
)

const (
	defaultRemoteFeedback   = "Evaluation completed."
	defaultRemoteConfidence = 0.8
)

// RemoteEvaluator scores answers with an LLM provider.
type RemoteEvaluator struct {
	provider llm.Provider
	prompts  prompts.Renderer
	timeout  time.Duration
}

func NewRemoteEvaluator(provider llm.Provider, pp prompts.Renderer, timeout time.Duration) *RemoteEvaluator {
	return &RemoteEvaluator{provider: provider, prompts: pp, timeout: timeout}
}

func (r *RemoteEvaluator) Name() string { return string(SourceRemote) }

// remoteVerdict requires a numeric score. The other fields are optional and
// fall back to defaults when missing or of the wrong type.
type remoteVerdict struct {
	Score       *float64        `json:"score"`
	Feedback    json.RawMessage `json:"feedback"`
	FoundPoints json.RawMessage `json:"found_points"`
	Confidence  json.RawMessage `json:"confidence"`
}

// optional decodes raw into T, or returns def when raw is absent or mistyped.
func optional[T any](raw json.RawMessage, def T) T {
	if len(raw) == 0 || string(raw) == "null" {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func (r *RemoteEvaluator) Evaluate(ctx context.Context, req Request) (Result, error) {
	if r.provider == nil || r.prompts == nil {
		return Result{}, fmt.Errorf("%w: no provider configured", models.ErrEvaluationUnavailable)
	}

	prompt, err := r.prompts.Render(prompts.ModeEvaluate, string(req.Difficulty), map[string]interface{}{
		"Question":       req.Question,
		"Answer":         req.Answer,
		"Difficulty":     string(req.Difficulty),
		"ExpectedPoints": req.ExpectedPoints,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", models.ErrEvaluationUnavailable, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := r.provider.GenerateContent(ctx, prompt, req.RequestID, llm.PurposeEvaluate)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", models.ErrEvaluationUnavailable, err)
	}

	raw, ok := utils.ExtractJSON(resp.Content)
	if !ok {
		return Result{}, fmt.Errorf("%w: response contained no JSON", models.ErrEvaluationUnavailable)
	}
	var verdict remoteVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return Result{}, fmt.Errorf("%w: malformed response: %v", models.ErrEvaluationUnavailable, err)
	}
	if verdict.Score == nil {
		return Result{}, fmt.Errorf("%w: response missing score", models.ErrEvaluationUnavailable)
	}

	res := Result{
		Score:       clampScore(*verdict.Score),
		Feedback:    optional(verdict.Feedback, ""),
		FoundPoints: optional[[]string](verdict.FoundPoints, nil),
		Confidence:  clampConfidence(optional(verdict.Confidence, defaultRemoteConfidence)),
		Source:      SourceRemote,
	}
	if res.Feedback == "" {
		res.Feedback = defaultRemoteFeedback
	}
	if res.FoundPoints == nil {
		res.FoundPoints = []string{}
	}
	return res, nil
}
