package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"escaperoom/internal/grading"
	"escaperoom/internal/progress"
	"escaperoom/internal/rooms"
	"escaperoom/internal/telemetry"
)

// Lifecycle errors mean the caller used the engine out of order. They are
// never produced by a wrong answer.
var (
	ErrNoProgress    = errors.New("engine: no progress, call StartGame first")
	ErrUnknownRoom   = errors.New("engine: unknown room")
	ErrRoomNotActive = errors.New("engine: room is not in progress")
)

// Result is what the player sees after a submission.
type Result struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message,omitempty"`
	Learning       string                `json:"learning,omitempty"`
	AuxiliaryEvent *rooms.AuxiliaryEvent `json:"auxiliaryEvent,omitempty"`
	Score          int                   `json:"score,omitempty"`
}

// Engine serializes its operations: each one loads, mutates and saves the
// whole snapshot while holding mu. Events raised by an operation are
// delivered after mu is released, so listeners may call back into the engine.
type Engine struct {
	mu      sync.Mutex
	catalog *rooms.Catalog
	store   *progress.Store
	grader  grading.Grader
	bus     *Bus
	logger  *telemetry.Logger
	now     func() time.Time
}

type Option func(*Engine)

func WithGrader(g grading.Grader) Option {
	return func(e *Engine) {
		if g != nil {
			e.grader = g
		}
	}
}

func WithLogger(l *telemetry.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(catalog *rooms.Catalog, store *progress.Store, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		store:   store,
		grader:  grading.NewGrader(),
		logger:  telemetry.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.bus = NewBus(e.logger)
	return e
}

func (e *Engine) Title() string { return e.catalog.Title() }

func (e *Engine) Rooms() []rooms.Room { return e.catalog.Rooms() }

func (e *Engine) RoomIDs() []string { return e.catalog.IDs() }

func (e *Engine) Room(id string) (rooms.Room, bool) { return e.catalog.Room(id) }

func (e *Engine) NextRoomID(id string) (string, bool) { return e.catalog.NextID(id) }

func (e *Engine) Subscribe(fn Listener) func() { return e.bus.Subscribe(fn) }

// Close drops every listener. The engine must not be used afterwards.
func (e *Engine) Close() { e.bus.Clear() }

// GameState returns the persisted snapshot without initializing one.
func (e *Engine) GameState(ctx context.Context) (progress.PlayerProgress, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Load(ctx)
}

// StartGame resumes the saved run, or starts a fresh one when none exists
// or the saved rooms no longer match the catalog. gameReset is emitted only
// for a fresh run.
func (e *Engine) StartGame(ctx context.Context) progress.PlayerProgress {
	op := e.begin()
	defer op.done()

	if p, ok := e.store.Load(ctx); ok {
		if e.matchesCatalog(p) {
			return p
		}
		e.logger.Warn("engine.progress_catalog_mismatch", map[string]any{"player": p.PlayerID})
	}
	p := e.store.Initialize(ctx, e.catalog.IDs())
	op.emit(EventGameReset, "", nil)
	return p
}

func (e *Engine) matchesCatalog(p progress.PlayerProgress) bool {
	ids := e.catalog.IDs()
	if len(p.Rooms) != len(ids) {
		return false
	}
	for _, id := range ids {
		if _, ok := p.Rooms[id]; !ok {
			return false
		}
	}
	return true
}

// StartRoom announces that the player entered a room. Progress is not
// touched: the room was already unlocked when the previous one completed.
func (e *Engine) StartRoom(ctx context.Context, id string) error {
	op := e.begin()
	defer op.done()

	if _, ok := e.store.Load(ctx); !ok {
		return ErrNoProgress
	}
	room, ok := e.catalog.Room(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, id)
	}
	op.emit(EventRoomStarted, id, RoomStartedData{Room: room})
	return nil
}

// SubmitResult grades sub for room id. A wrong answer is reported through
// Result and counts as an attempt; the returned error is reserved for
// lifecycle violations.
func (e *Engine) SubmitResult(ctx context.Context, id string, sub grading.Submission, timeTakenSec int) (Result, error) {
	op := e.begin()
	defer op.done()

	p, ok := e.store.Load(ctx)
	if !ok {
		return Result{}, ErrNoProgress
	}
	room, ok := e.catalog.Room(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownRoom, id)
	}
	rp, ok := p.Room(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s not in saved progress", ErrUnknownRoom, id)
	}
	if rp.Status != progress.StatusInProgress {
		return Result{}, fmt.Errorf("%w: %s is %s", ErrRoomNotActive, id, rp.Status)
	}

	verdict := e.grader.Grade(room, sub)
	if !verdict.Success {
		e.store.MarkAttempt(ctx, id)
		op.emit(EventRoomFailed, id, RoomFailedData{Attempts: rp.Attempts})
		msg := verdict.Message
		if msg == "" {
			msg = grading.MsgTryAgain
		}
		e.logger.Debug("engine.room_failed", map[string]any{"room": id, "prior_attempts": rp.Attempts})
		return Result{Success: false, Message: msg}, nil
	}

	timeTakenSec = max(0, timeTakenSec)
	score := grading.Score(rp.HintsUsed, timeTakenSec)
	var choices []string
	if sub != nil {
		choices = sub.Choices()
	}
	e.store.CompleteRoom(ctx, id, e.catalog.IDs(), progress.Completion{
		TimeTakenSec: timeTakenSec,
		Score:        score,
		Choices:      choices,
	})
	op.emit(EventRoomCompleted, id, RoomCompletedData{Score: score, TimeTaken: timeTakenSec})
	e.logger.Info("engine.room_completed", map[string]any{"room": id, "score": score, "time_taken_sec": timeTakenSec})

	if _, hasNext := e.catalog.NextID(id); !hasNext {
		if final, ok := e.store.Load(ctx); ok {
			op.emit(EventAllRoomsCompleted, "", AllRoomsCompletedData{Progress: final})
			e.logger.Info("engine.all_rooms_completed", map[string]any{"player": final.PlayerID, "total_score": final.TotalScore})
		}
	}

	return Result{
		Success:        true,
		Message:        room.OnSuccess.Message,
		Learning:       room.OnSuccess.Learning,
		AuxiliaryEvent: verdict.AuxiliaryEvent,
		Score:          score,
	}, nil
}

// UseHint records a hint for room id. It does not check whether the room
// is active.
func (e *Engine) UseHint(ctx context.Context, id string) {
	op := e.begin()
	defer op.done()

	e.store.MarkHintUsed(ctx, id)
	var data any
	if p, ok := e.store.Load(ctx); ok {
		if rp, ok := p.Room(id); ok {
			data = HintUsedData{HintsUsed: rp.HintsUsed}
		}
	}
	op.emit(EventHintUsed, id, data)
}

// ResolveAuxiliaryEvent returns the learning text for a choice made in the
// follow-up event of a timed-choice room.
func (e *Engine) ResolveAuxiliaryEvent(roomID, choiceID string) (string, bool) {
	room, ok := e.catalog.Room(roomID)
	if !ok {
		return "", false
	}
	task, ok := room.Task.(*rooms.TimedChoiceTask)
	if !ok || task.NextEvent() == nil {
		return "", false
	}
	ev := task.NextEvent()
	if !slices.ContainsFunc(ev.Choices, func(c rooms.Choice) bool { return c.ID == choiceID }) {
		return "", false
	}
	out, ok := ev.Outcomes[choiceID]
	return out.Learning, ok
}

func (e *Engine) CheckAllRoomsCompleted(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.store.Load(ctx)
	if !ok {
		return false
	}
	for _, id := range e.catalog.IDs() {
		rp, ok := p.Room(id)
		if !ok || rp.Status != progress.StatusCompleted {
			return false
		}
	}
	return true
}

func (e *Engine) ResetGame(ctx context.Context) {
	op := e.begin()
	defer op.done()

	e.store.Reset(ctx)
	op.emit(EventGameReset, "", nil)
	e.logger.Info("engine.game_reset", nil)
}

// operation holds the engine lock and queues the events it raises.
type operation struct {
	e      *Engine
	events []Event
}

func (e *Engine) begin() *operation {
	e.mu.Lock()
	return &operation{e: e}
}

func (op *operation) emit(t EventType, roomID string, data any) {
	op.events = append(op.events, Event{Type: t, RoomID: roomID, Timestamp: op.e.now().UTC(), Data: data})
}

// done releases the lock, then publishes the queued events in order.
func (op *operation) done() {
	op.e.mu.Unlock()
	for _, ev := range op.events {
		op.e.bus.Publish(ev)
	}
}
