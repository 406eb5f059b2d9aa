package scoring

import (
	"context"
	"math"
	"strings"

	"swipe/interview/internal/utils"
)

// Heuristic is the deterministic keyword and length based scorer.
type Heuristic struct {
	vocabulary []string
}

func NewHeuristic() *Heuristic {
	return &Heuristic{vocabulary: technicalKeywords}
}

func (h *Heuristic) Name() string { return string(SourceHeuristic) }

// Evaluate never fails.
func (h *Heuristic) Evaluate(_ context.Context, req Request) (Result, error) {
	return h.Score(req), nil
}

func (h *Heuristic) Score(req Request) Result {
	answer := strings.ToLower(req.Answer)
	if strings.TrimSpace(answer) == "" {
		return Result{Score: 0, Feedback: noAnswerFeedback, FoundPoints: []string{}, Confidence: heuristicConfidence, Source: SourceHeuristic}
	}
	words := utils.WordCount(answer)

	score := 2.0

	found := []string{}
	if len(req.ExpectedPoints) > 0 {
		for _, p := range req.ExpectedPoints {
			if strings.Contains(answer, strings.ToLower(p)) {
				found = append(found, p)
			}
		}
		score += float64(len(found)) / float64(len(req.ExpectedPoints)) * 4
	}

	technical := 0
	for _, kw := range h.vocabulary {
		if strings.Contains(answer, kw) {
			technical++
		}
	}
	score += math.Min(float64(technical)*0.2, 2)

	switch {
	case words >= 100:
		score += 1.5
	case words >= 50:
		score += 1
	case words >= 20:
		score += 0.5
	}

	for _, cues := range [][]string{exampleCues, reasoningCues, enumerationCues} {
		if containsAny(answer, cues) {
			score += 0.5
		}
	}

	if words >= 30 && technical > 0 && score < 4 {
		score = 4
	}

	final := clampScore(math.Round(score))
	return Result{
		Score:       final,
		Feedback:    heuristicFeedback(final),
		FoundPoints: found,
		Confidence:  heuristicConfidence,
		Source:      SourceHeuristic,
	}
}

func heuristicFeedback(score float64) string {
	switch {
	case score >= 8:
		return "Excellent answer with comprehensive technical coverage and good detail."
	case score >= 6:
		return "Good answer covering key concepts with adequate technical depth."
	case score >= 4:
		return "Basic understanding demonstrated, but could include more technical details and examples."
	case score >= 2:
		return "Limited technical knowledge shown. Answer needs more depth and relevant concepts."
	default:
		return "Answer lacks technical accuracy and key concepts. Significant improvement needed."
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
