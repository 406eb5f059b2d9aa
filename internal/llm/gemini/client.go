package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"swipe/interview/internal/llm"
	"swipe/interview/internal/models"
)

// sampling temperature per generation purpose
var purposeTemperature = map[string]float32{
	llm.PurposeQuestions: 0.6,
	llm.PurposeEvaluate:  0.2,
	llm.PurposeSummary:   0.3,
}

// Client asks Gemini for JSON output and returns the concatenated text parts.
type Client struct {
	genai *genai.Client
	model string
}

func NewClient(cfg *Config) (*Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	gc, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, providerError(llm.ErrCodeAPIKey, "client setup failed", err)
	}
	return &Client{genai: gc, model: cfg.Model}, nil
}

func (c *Client) GetProviderName() string { return ProviderName }

func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string, purpose string) (*models.GenerationResponse, error) {
	started := time.Now()

	genCfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if temp, ok := purposeTemperature[purpose]; ok {
		genCfg.Temperature = &temp
	}

	result, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		return nil, providerError(classify(err), "generate "+purpose, err)
	}

	content := responseText(result)
	if content == "" {
		return nil, providerError(llm.ErrCodeInvalidInput, "empty response for "+purpose, nil)
	}

	return &models.GenerationResponse{
		Content:   content,
		RequestID: requestID,
		Metadata: models.GenerationMetadata{
			ProcessingTime: int(time.Since(started).Milliseconds()),
			Purpose:        purpose,
			Provider:       ProviderName,
			Model:          c.model,
		},
	}, nil
}

// responseText joins the text parts of the first candidate.
func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func classify(err error) llm.ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.ErrCodeTimeout
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "resource_exhausted", "quota"} {
		if strings.Contains(msg, marker) {
			return llm.ErrCodeRateLimit
		}
	}
	return llm.ErrCodeServiceDown
}

func providerError(code llm.ErrorCode, message string, err error) *llm.ProviderError {
	return &llm.ProviderError{Provider: ProviderName, Code: code, Message: message, Err: err}
}
