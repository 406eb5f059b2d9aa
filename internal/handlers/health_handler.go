package handlers

import (
	"context"
	"net/http"
	"time"

	"swipe/interview/internal/llm"
	"swipe/interview/internal/prompts"
	"swipe/interview/internal/utils"
)

const serviceName = "interview"

// Check statuses.
const (
	CheckOK       = "ok"
	CheckFailed   = "failed"
	CheckDisabled = "disabled"
)

type ReadinessCheck struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latencyMs,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

// Pinger is a dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type probe struct {
	name     string
	required bool
	run      func(ctx context.Context) ReadinessCheck
}

type HealthHandler struct {
	probes  []probe
	timeout time.Duration
}

// NewHealthHandler checks the candidate database, the session store and the
// prompt templates. The AI provider is reported but never required since
// scoring and summaries fall back to local strategies.
func NewHealthHandler(database, sessionStore Pinger, provider llm.Provider, renderer prompts.Renderer) *HealthHandler {
	return &HealthHandler{
		timeout: 2 * time.Second,
		probes: []probe{
			{name: "database", required: true, run: ping(database)},
			{name: "session_store", required: true, run: ping(sessionStore)},
			{name: "prompts", required: true, run: func(context.Context) ReadinessCheck {
				if renderer == nil || len(renderer.Modes()) == 0 {
					return ReadinessCheck{Status: CheckFailed, Message: "no prompt templates loaded"}
				}
				return ReadinessCheck{Status: CheckOK}
			}},
			{name: "provider", run: func(context.Context) ReadinessCheck {
				if provider == nil {
					return ReadinessCheck{Status: CheckDisabled, Message: "using local scoring"}
				}
				return ReadinessCheck{Status: CheckOK, Message: provider.GetProviderName()}
			}},
		},
	}
}

func ping(p Pinger) func(ctx context.Context) ReadinessCheck {
	return func(ctx context.Context) ReadinessCheck {
		if p == nil {
			return ReadinessCheck{Status: CheckFailed, Message: "not initialized"}
		}
		started := time.Now()
		if err := p.Ping(ctx); err != nil {
			return ReadinessCheck{Status: CheckFailed, Message: err.Error()}
		}
		return ReadinessCheck{Status: CheckOK, LatencyMs: time.Since(started).Milliseconds()}
	}
}

func (h *HealthHandler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": CheckOK, "service": serviceName})
}

func (h *HealthHandler) ReadyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{Status: "ready", Service: serviceName, Checks: make(map[string]ReadinessCheck, len(h.probes))}
	for _, p := range h.probes {
		check := p.run(ctx)
		resp.Checks[p.name] = check
		if p.required && check.Status != CheckOK {
			resp.Status = "not_ready"
		}
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	utils.JSON(w, status, resp)
}
