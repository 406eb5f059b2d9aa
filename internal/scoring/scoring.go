package scoring

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"swipe/interview/internal/metrics"
	"swipe/interview/internal/models"
)

// Source identifies which strategy produced a Result.
type Source string

const (
	SourceEmpty     Source = "empty"
	SourceRemote    Source = "remote"
	SourceHeuristic Source = "heuristic"
)

const (
	noAnswerFeedback    = "No answer provided."
	heuristicConfidence = 0.5
)

// Request is everything an evaluator sees about one answer.
type Request struct {
	RequestID      string
	Question       string
	Answer         string
	Difficulty     models.Difficulty
	ExpectedPoints []string
}

// Result is a score in [0,10] with feedback and metadata.
type Result struct {
	Score       float64  `json:"score"`
	Feedback    string   `json:"feedback"`
	FoundPoints []string `json:"foundPoints"`
	Confidence  float64  `json:"confidence"`
	Source      Source   `json:"source"`
}

// Evaluator is one scoring strategy. Failures must wrap
// models.ErrEvaluationUnavailable.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// Engine tries evaluators in priority order and always ends with the
// heuristic, so Evaluate never fails.
type Engine struct {
	evaluators []Evaluator
	heuristic  *Heuristic
	logger     *zap.Logger
}

func NewEngine(logger *zap.Logger, evaluators ...Evaluator) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	var chain []Evaluator
	for _, e := range evaluators {
		if e != nil {
			chain = append(chain, e)
		}
	}
	return &Engine{
		evaluators: chain,
		heuristic:  NewHeuristic(),
		logger:     logger,
	}
}

func (e *Engine) Evaluate(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.Answer) == "" {
		metrics.ObserveEvaluation(string(SourceEmpty))
		return Result{
			Score:       0,
			Feedback:    noAnswerFeedback,
			FoundPoints: []string{},
			Confidence:  1.0,
			Source:      SourceEmpty,
		}
	}

	for _, ev := range e.evaluators {
		res, err := ev.Evaluate(ctx, req)
		if err == nil {
			metrics.ObserveEvaluation(string(res.Source))
			return res
		}
		metrics.ObserveEvaluatorFailure(ev.Name())
		e.logger.Warn("evaluator failed, falling back",
			zap.String("evaluator", ev.Name()),
			zap.String("request_id", req.RequestID),
			zap.Error(err))
	}

	res := e.heuristic.Score(req)
	metrics.ObserveEvaluation(string(res.Source))
	return res
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > models.MaxQuestionScore {
		return models.MaxQuestionScore
	}
	return v
}
