package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "swipe-interview-sync"

type EventType string

const (
	EventStateUpdate      EventType = "STATE_UPDATE"
	EventTimerTick        EventType = "TIMER_TICK"
	EventTimeUp           EventType = "TIME_UP"
	EventSessionFinished  EventType = "SESSION_FINISHED"
	EventCandidatesUpdate EventType = "CANDIDATES_UPDATE"
	// EventCandidatesCleared tells other instances to drop all interview state.
	EventCandidatesCleared EventType = "CANDIDATES_CLEARED"
)

// Event is one change notification. Delivery is best effort.
type Event struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Origin    string          `json:"origin"`
}

// NewEvent marshals payload into an event of type t.
func NewEvent(t EventType, sessionID string, payload interface{}) (Event, error) {
	ev := Event{Type: t, SessionID: sessionID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = raw
	}
	return ev, nil
}

const subscriberBuffer = 32

type subscriber struct {
	sessionID string
	ch        chan Event
}

// Bus fans events out to local subscribers and, when Redis is configured, to
// other instances over pub/sub.
type Bus struct {
	rdb        *redis.Client
	channel    string
	instanceID string
	logger     *zap.Logger

	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
}

// NewBus creates a bus. A nil rdb keeps the bus local to this process.
func NewBus(rdb *redis.Client, channel string, logger *zap.Logger) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		rdb:        rdb,
		channel:    channel,
		instanceID: uuid.New().String()[:8],
		logger:     logger,
		subs:       make(map[uint64]*subscriber),
	}
}

func (b *Bus) InstanceID() string { return b.instanceID }

// Publish delivers ev locally and forwards it to other instances. Timer ticks
// stay local.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.Origin == "" {
		ev.Origin = b.instanceID
	}

	b.deliver(ev)

	if b.rdb == nil || ev.Type == EventTimerTick {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to encode sync event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Warn("failed to publish sync event",
			zap.String("type", string(ev.Type)),
			zap.String("session_id", ev.SessionID),
			zap.Error(err))
	}
}

// Subscribe returns a channel of events for sessionID, or for every session
// when sessionID is empty. Events are dropped for subscribers that fall behind.
func (b *Bus) Subscribe(sessionID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscriber{sessionID: sessionID, ch: make(chan Event, subscriberBuffer)}
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

func (b *Bus) deliver(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.sessionID != "" && sub.sessionID != ev.SessionID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.logger.Debug("dropping event for slow subscriber", zap.String("type", string(ev.Type)))
		}
	}
}

// Run consumes events from other instances until ctx is done. Each remote
// event is passed to handle and then delivered to local subscribers.
func (b *Bus) Run(ctx context.Context, handle func(Event)) {
	if b.rdb == nil {
		<-ctx.Done()
		return
	}

	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	b.logger.Info("subscribed to sync channel", zap.String("channel", b.channel), zap.String("instance", b.instanceID))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("failed to decode sync event", zap.Error(err))
				continue
			}
			if ev.Origin == b.instanceID {
				continue
			}
			if handle != nil {
				handle(ev)
			}
			b.deliver(ev)
		}
	}
}
