package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"swipe/interview/internal/broadcast"
	"swipe/interview/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Subscriber hands out live event feeds.
type Subscriber interface {
	Subscribe(sessionID string) (<-chan broadcast.Event, func())
}

// SessionLookup reports whether a session is known locally.
type SessionLookup interface {
	Session(id string) (models.Session, error)
}

// StreamHandler pushes bus events to websocket clients. Clients only listen;
// mutations go through the REST endpoints.
type StreamHandler struct {
	bus      Subscriber
	sessions SessionLookup
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewStreamHandler(bus Subscriber, sessions SessionLookup, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{
		bus:      bus,
		sessions: sessions,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
	}
}

// SessionStream sends the current snapshot and then every event of one session.
func (h *StreamHandler) SessionStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	snap, err := h.sessions.Session(sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	initial, err := broadcast.NewEvent(broadcast.EventStateUpdate, sessionID, snap)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.stream(w, r, sessionID, &initial)
}

// AllStream sends every event, for the interviewer dashboard.
func (h *StreamHandler) AllStream(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "", nil)
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request, sessionID string, initial *broadcast.Event) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.bus.Subscribe(sessionID)
	defer cancel()

	// reader only watches for close and pongs
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if initial != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(initial); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("websocket write failed", zap.String("session_id", sessionID), zap.Error(err))
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
