package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"swipe/interview/internal/llm"
	"swipe/interview/internal/models"
	"swipe/interview/internal/prompts"
	"swipe/interview/internal/utils"
)

// passing score for the per-difficulty breakdown
const passScore = 6.0

type Source string

const (
	SourceRemote   Source = "remote"
	SourceTemplate Source = "template"
)

// Summary is the aggregated outcome of a finished interview.
type Summary struct {
	FinalScore int    `json:"finalScore"`
	Text       string `json:"summary"`
	Source     Source `json:"source"`
}

// FinalScore is the weighted percentage of the maximum achievable score.
// Unanswered questions count as zero.
func FinalScore(questions []models.Question) int {
	var weighted, maxScore float64
	for _, q := range questions {
		w := float64(q.Difficulty.Weight())
		weighted += q.ScoreValue() * w
		maxScore += models.MaxQuestionScore * w
	}
	if maxScore == 0 {
		return 0
	}
	return int(math.Round(100 * weighted / maxScore))
}

// TemplateSummary is the summary used when no remote summarizer answers.
func TemplateSummary(finalScore int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interview completed with %d%% overall score. ", finalScore)
	switch {
	case finalScore >= 80:
		b.WriteString("Excellent performance across all difficulty levels. Strong technical knowledge demonstrated.")
	case finalScore >= 60:
		b.WriteString("Good performance with solid understanding of key concepts. Some areas for improvement in advanced topics.")
	case finalScore >= 40:
		b.WriteString("Basic understanding shown but needs improvement in technical depth and problem-solving skills.")
	default:
		b.WriteString("Significant gaps in technical knowledge. Recommend additional study and practice before next interview.")
	}
	return b.String()
}

// Aggregator computes the final score and asks an optional LLM for the
// summary text.
type Aggregator struct {
	provider llm.Provider
	prompts  prompts.Renderer
	timeout  time.Duration
	logger   *zap.Logger
}

func NewAggregator(provider llm.Provider, pp prompts.Renderer, timeout time.Duration, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{provider: provider, prompts: pp, timeout: timeout, logger: logger}
}

func (a *Aggregator) Summarize(ctx context.Context, requestID string, questions []models.Question) Summary {
	score := FinalScore(questions)
	if a.provider != nil && a.prompts != nil {
		text, err := a.remoteSummary(ctx, requestID, score, questions)
		if err == nil {
			return Summary{FinalScore: score, Text: text, Source: SourceRemote}
		}
		a.logger.Warn("remote summary unavailable, using template",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
	return Summary{FinalScore: score, Text: TemplateSummary(score), Source: SourceTemplate}
}

type summaryItem struct {
	Difficulty models.Difficulty
	Text       string
	Score      float64
}

func (a *Aggregator) remoteSummary(ctx context.Context, requestID string, score int, questions []models.Question) (string, error) {
	data := map[string]interface{}{"FinalScore": score}
	items := make([]summaryItem, 0, len(questions))
	passed := map[models.Difficulty]int{}
	total := map[models.Difficulty]int{}
	for _, q := range questions {
		items = append(items, summaryItem{Difficulty: q.Difficulty, Text: q.Text, Score: q.ScoreValue()})
		total[q.Difficulty]++
		if q.ScoreValue() >= passScore {
			passed[q.Difficulty]++
		}
	}
	data["Questions"] = items
	data["EasyPassed"], data["EasyTotal"] = passed[models.DifficultyEasy], total[models.DifficultyEasy]
	data["MediumPassed"], data["MediumTotal"] = passed[models.DifficultyMedium], total[models.DifficultyMedium]
	data["HardPassed"], data["HardTotal"] = passed[models.DifficultyHard], total[models.DifficultyHard]

	prompt, err := a.prompts.Render(prompts.ModeSummary, "default", data)
	if err != nil {
		return "", err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	resp, err := a.provider.GenerateContent(ctx, prompt, requestID, llm.PurposeSummary)
	if err != nil {
		return "", err
	}

	raw, ok := utils.ExtractJSON(resp.Content)
	if !ok {
		return "", fmt.Errorf("summary response contained no JSON")
	}
	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("malformed summary response: %w", err)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return "", fmt.Errorf("summary response missing text")
	}
	return strings.TrimSpace(parsed.Summary), nil
}
