package engine

import (
	"fmt"
	"sync"
	"time"

	"escaperoom/internal/progress"
	"escaperoom/internal/rooms"
	"escaperoom/internal/telemetry"
)

type EventType string

const (
	EventRoomStarted       EventType = "roomStarted"
	EventRoomCompleted     EventType = "roomCompleted"
	EventRoomFailed        EventType = "roomFailed"
	EventAllRoomsCompleted EventType = "allRoomsCompleted"
	EventGameReset         EventType = "gameReset"
	EventHintUsed          EventType = "hintUsed"
)

// Event is delivered to listeners after the change it describes has been
// persisted. Events are never stored.
type Event struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"roomId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type RoomStartedData struct {
	Room rooms.Room `json:"room"`
}

type RoomCompletedData struct {
	Score     int `json:"score"`
	TimeTaken int `json:"timeTaken"`
}

// RoomFailedData carries the attempt count recorded before this failure.
type RoomFailedData struct {
	Attempts int `json:"attempts"`
}

type AllRoomsCompletedData struct {
	Progress progress.PlayerProgress `json:"progress"`
}

type HintUsedData struct {
	HintsUsed int `json:"hintsUsed"`
}

type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Bus fans events out to listeners synchronously in subscription order.
// A panicking listener is logged and skipped.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners []subscription
	logger    *telemetry.Logger
}

func NewBus(logger *telemetry.Logger) *Bus {
	if logger == nil {
		logger = telemetry.Nop()
	}
	return &Bus{logger: logger}
}

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (b *Bus) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.listeners {
		if s.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Publish delivers ev to a snapshot of the current listeners, so a
// listener may unsubscribe itself or others while being called.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.listeners...)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, ev)
	}
}

func (b *Bus) deliver(s subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("events.listener_panic", map[string]any{
				"event":    string(ev.Type),
				"room":     ev.RoomID,
				"listener": s.id,
				"panic":    fmt.Sprint(r),
			})
		}
	}()
	s.fn(ev)
}

func (b *Bus) Clear() {
	b.mu.Lock()
	b.listeners = nil
	b.mu.Unlock()
}
