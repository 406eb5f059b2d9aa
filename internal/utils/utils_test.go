package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"swipe/interview/internal/models"
)

func TestNormalizeDifficulty(t *testing.T) {
	if got := NormalizeDifficulty("  Medium "); got != "medium" {
		t.Fatalf("NormalizeDifficulty: expected medium, got %s", got)
	}
}

func TestStripFences(t *testing.T) {
	input := "```json\n{\"score\": 7}\n```\n"
	want := `{"score": 7}`

	if got := StripFences(input); got != want {
		t.Fatalf("StripFences: expected %q, got %q", want, got)
	}

	raw := "  plain  "
	if got := StripFences(raw); got != "plain" {
		t.Fatalf("StripFences (no fences): expected trimmed string, got %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		`{"score": 5}`:                          `{"score": 5}`,
		"Here you go:\n{\"score\": 5}\nThanks!": `{"score": 5}`,
		"```json\n[{\"a\":1},{\"a\":2}]\n```":   `[{"a":1},{"a":2}]`,
		"prefix [1, 2] suffix":                  `[1, 2]`,
	}
	for input, want := range cases {
		got, ok := ExtractJSON(input)
		if !ok || got != want {
			t.Fatalf("ExtractJSON(%q) = %q, %v; expected %q", input, got, ok, want)
		}
	}

	if _, ok := ExtractJSON("no json here"); ok {
		t.Fatal("expected no JSON to be found")
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one two\tthree\nfour "); got != 4 {
		t.Fatalf("expected 4 words, got %d", got)
	}
	if got := WordCount("   "); got != 0 {
		t.Fatalf("expected 0 words, got %d", got)
	}
}

func TestResponseWriters(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"score": 8})
	if rec.Code != http.StatusCreated || rec.Header().Get("Content-Type") != contentTypeJSON {
		t.Fatalf("JSON: unexpected status %d or content type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if strings.TrimSpace(rec.Body.String()) != `{"score":8}` {
		t.Fatalf("JSON: unexpected body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Error(rec, http.StatusConflict, "already_submitted", "Question has already been submitted")
	var errResp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("Error: decode failed: %v", err)
	}
	if rec.Code != http.StatusConflict || errResp.Code != "already_submitted" {
		t.Fatalf("Error: unexpected response %d %+v", rec.Code, errResp)
	}

	rec = httptest.NewRecorder()
	NoContent(rec)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 || rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("NoContent: unexpected response %d %q", rec.Code, rec.Body.String())
	}
}
