package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"swipe/interview/internal/llm"
)

// stubGemini serves generateContent calls for model "test-model".
func stubGemini(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{APIKey: "test", Model: "test-model", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func writeCandidate(w http.ResponseWriter, parts ...string) {
	encoded := make([]map[string]any, 0, len(parts))
	for _, p := range parts {
		encoded = append(encoded, map[string]any{"text": p})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{{"content": map[string]any{"role": "model", "parts": encoded}}},
	})
}

func TestGenerateContentJoinsParts(t *testing.T) {
	client := stubGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "grade this answer") || !strings.Contains(string(body), "application/json") {
			t.Errorf("request body missing prompt or mime type: %s", body)
		}
		writeCandidate(w, `{"score": `, `7}`)
	})

	resp, err := client.GenerateContent(context.Background(), "grade this answer", "req-1", llm.PurposeEvaluate)
	if err != nil {
		t.Fatalf("GenerateContent returned error: %v", err)
	}
	if resp.Content != `{"score": 7}` || resp.RequestID != "req-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Metadata.Model != "test-model" || resp.Metadata.Purpose != llm.PurposeEvaluate || resp.Metadata.Provider != ProviderName {
		t.Fatalf("unexpected metadata: %+v", resp.Metadata)
	}
}

func TestGenerateContentFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    llm.ErrorCode
	}{
		{"quota", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
		}, llm.ErrCodeRateLimit},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}, llm.ErrCodeServiceDown},
		{"blank text", func(w http.ResponseWriter, r *http.Request) {
			writeCandidate(w, "  ")
		}, llm.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := stubGemini(t, tt.handler)
			_, err := client.GenerateContent(context.Background(), "prompt", "req", llm.PurposeSummary)
			var provErr *llm.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if provErr.Code != tt.code {
				t.Fatalf("expected code %s, got %s (%v)", tt.code, provErr.Code, err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cases := map[error]llm.ErrorCode{
		context.DeadlineExceeded:                             llm.ErrCodeTimeout,
		fmt.Errorf("call: %w", context.DeadlineExceeded):     llm.ErrCodeTimeout,
		errors.New("Error 429, Message: Resource exhausted"): llm.ErrCodeRateLimit,
		errors.New("daily Quota exceeded"):                   llm.ErrCodeRateLimit,
		errors.New("connection refused"):                     llm.ErrCodeServiceDown,
	}
	for err, want := range cases {
		if got := classify(err); got != want {
			t.Fatalf("classify(%v) = %s, want %s", err, got, want)
		}
	}
}
