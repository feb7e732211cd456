package progress

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"escaperoom/internal/telemetry"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultKey is the single key the snapshot is stored under.
const DefaultKey = "hx-escape-room-progress"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store loads, mutates and re-persists the whole PlayerProgress snapshot on
// every call. Persistence problems are logged and degrade to "no progress";
// they are never returned to the caller.
type Store struct {
	medium Medium
	key    string
	logger *telemetry.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(l *telemetry.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithPlayerIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func NewStore(m Medium, opts ...Option) *Store {
	s := &Store{
		medium: m,
		key:    DefaultKey,
		logger: telemetry.Nop(),
		now:    time.Now,
		newID:  NewPlayerID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func NewPlayerID() string {
	return "anon-" + uuid.NewString()
}

func (s *Store) Key() string { return s.key }

// Load returns the persisted snapshot. A missing, unreadable or
// structurally invalid blob is reported as absent.
func (s *Store) Load(ctx context.Context) (PlayerProgress, bool) {
	raw, err := s.medium.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("progress.load_failed", map[string]any{"key": s.key, "error": err})
		}
		return PlayerProgress{}, false
	}
	var p PlayerProgress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Error("progress.decode_failed", map[string]any{"key": s.key, "error": err})
		return PlayerProgress{}, false
	}
	if err := validate.Struct(p); err != nil {
		s.logger.Error("progress.invalid_snapshot", map[string]any{"key": s.key, "error": err})
		return PlayerProgress{}, false
	}
	return p, true
}

func (s *Store) HasProgress(ctx context.Context) bool {
	_, ok := s.Load(ctx)
	return ok
}

// Save stamps LastUpdated and overwrites the stored snapshot.
func (s *Store) Save(ctx context.Context, p *PlayerProgress) {
	p.LastUpdated = s.now().UTC()
	b, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("progress.encode_failed", map[string]any{"key": s.key, "error": err})
		return
	}
	if err := s.medium.Save(ctx, s.key, string(b)); err != nil {
		s.logger.Error("progress.save_failed", map[string]any{"key": s.key, "error": err})
	}
}

// Initialize builds a fresh snapshot with the first room in progress and
// every other room locked, persists it and returns it.
func (s *Store) Initialize(ctx context.Context, ids []string) PlayerProgress {
	now := s.now().UTC()
	p := PlayerProgress{
		PlayerID:    s.newID(),
		StartedAt:   now,
		LastUpdated: now,
		Rooms:       make(map[string]RoomProgress, len(ids)),
	}
	if len(ids) > 0 {
		first := ids[0]
		p.CurrentRoomID = &first
	}
	for i, id := range ids {
		status := StatusLocked
		if i == 0 {
			status = StatusInProgress
		}
		p.Rooms[id] = RoomProgress{Status: status}
	}
	s.Save(ctx, &p)
	s.logger.Info("progress.initialized", map[string]any{"player": p.PlayerID, "rooms": len(ids)})
	return p
}

// Reset removes the snapshot from the medium.
func (s *Store) Reset(ctx context.Context) {
	if err := s.medium.Remove(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("progress.reset_failed", map[string]any{"key": s.key, "error": err})
	}
}

func (s *Store) MarkAttempt(ctx context.Context, id string) {
	s.mutateRoom(ctx, id, func(rp *RoomProgress) { rp.Attempts++ })
}

func (s *Store) MarkHintUsed(ctx context.Context, id string) {
	s.mutateRoom(ctx, id, func(rp *RoomProgress) { rp.HintsUsed++ })
}

func (s *Store) mutateRoom(ctx context.Context, id string, fn func(*RoomProgress)) {
	p, ok := s.Load(ctx)
	if !ok {
		return
	}
	rp, ok := p.Rooms[id]
	if !ok {
		s.logger.Warn("progress.unknown_room", map[string]any{"room": id})
		return
	}
	fn(&rp)
	p.Rooms[id] = rp
	s.Save(ctx, &p)
}

// CompleteRoom records the result for id, adds its score to the total and
// unlocks the room that follows it in ids. Completing the last room clears
// the current room and stamps CompletedAt. Rooms that are not in progress
// are left untouched so statuses only ever move forward.
func (s *Store) CompleteRoom(ctx context.Context, id string, ids []string, c Completion) {
	p, ok := s.Load(ctx)
	if !ok {
		return
	}
	rp, ok := p.Rooms[id]
	if !ok {
		s.logger.Warn("progress.unknown_room", map[string]any{"room": id})
		return
	}
	if rp.Status != StatusInProgress {
		s.logger.Warn("progress.complete_ignored", map[string]any{"room": id, "status": string(rp.Status)})
		return
	}

	timeTaken, score := c.TimeTakenSec, c.Score
	rp.Status = StatusCompleted
	rp.TimeTakenSec = &timeTaken
	rp.Score = &score
	if len(c.Choices) > 0 {
		rp.Choices = slices.Clone(c.Choices)
	}
	p.Rooms[id] = rp
	p.TotalScore += score

	idx := slices.Index(ids, id)
	switch {
	case idx >= 0 && idx < len(ids)-1:
		next := ids[idx+1]
		if nrp, ok := p.Rooms[next]; ok {
			nrp.Status = StatusInProgress
			p.Rooms[next] = nrp
		}
		p.CurrentRoomID = &next
	case idx >= 0:
		done := s.now().UTC()
		p.CompletedAt = &done
		p.CurrentRoomID = nil
	}
	s.Save(ctx, &p)
}
