package timer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"swipe/interview/internal/clock"
	"swipe/interview/internal/models"
)

// Source lists the sessions the watcher should time.
type Source interface {
	ActiveSessions() []models.Session
}

// TimeUpFunc is called once per question when its time runs out.
type TimeUpFunc func(sessionID string, index int)

// TickFunc receives the remaining time of every running question on each tick.
type TickFunc func(sessionID string, index int, remaining int)

// Watcher polls active sessions and emits time-up signals.
type Watcher struct {
	source   Source
	clock    clock.Clock
	interval time.Duration
	onTimeUp TimeUpFunc
	onTick   TickFunc
	logger   *zap.Logger

	mu    sync.Mutex
	fired map[string]int
}

func NewWatcher(source Source, clk clock.Clock, interval time.Duration, onTimeUp TimeUpFunc, logger *zap.Logger) *Watcher {
	if clk == nil {
		clk = clock.Real()
	}
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		source:   source,
		clock:    clk,
		interval: interval,
		onTimeUp: onTimeUp,
		logger:   logger,
		fired:    make(map[string]int),
	}
}

// SetOnTick registers an optional per-tick callback.
func (w *Watcher) SetOnTick(fn TickFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onTick = fn
}

// Check evaluates every session once at now.
func (w *Watcher) Check(now time.Time) {
	sessions := w.source.ActiveSessions()

	w.mu.Lock()
	onTick := w.onTick
	seen := make(map[string]struct{}, len(sessions))
	var due []models.Session
	for _, s := range sessions {
		seen[s.SessionID] = struct{}{}
		if s.Status != models.StatusInProgress {
			continue
		}
		q := s.ActiveQuestion()
		if q == nil || !q.Active() {
			continue
		}
		if idx, ok := w.fired[s.SessionID]; ok && idx != s.CurrentIndex {
			delete(w.fired, s.SessionID)
		}
		if Remaining(*q, now) > 0 {
			continue
		}
		if idx, ok := w.fired[s.SessionID]; ok && idx == s.CurrentIndex {
			continue
		}
		w.fired[s.SessionID] = s.CurrentIndex
		due = append(due, s)
	}
	for id := range w.fired {
		if _, ok := seen[id]; !ok {
			delete(w.fired, id)
		}
	}
	w.mu.Unlock()

	if onTick != nil {
		for _, s := range sessions {
			if s.Status != models.StatusInProgress {
				continue
			}
			if q := s.ActiveQuestion(); q != nil && q.Active() {
				onTick(s.SessionID, s.CurrentIndex, Remaining(*q, now))
			}
		}
	}

	for _, s := range due {
		w.logger.Info("question time expired",
			zap.String("session_id", s.SessionID),
			zap.Int("question_index", s.CurrentIndex))
		if w.onTimeUp != nil {
			w.onTimeUp(s.SessionID, s.CurrentIndex)
		}
	}
}

// Run ticks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(w.clock.Now())
		}
	}
}
