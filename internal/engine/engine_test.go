package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"escaperoom/internal/grading"
	"escaperoom/internal/progress"
	"escaperoom/internal/rooms"
	"escaperoom/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var correctSubmissions = map[string]grading.Submission{
	"room1_helm":       grading.ReorderSubmission{Order: []string{"Plan", "Decide", "Communicate", "Act"}},
	"room2_firewall":   grading.TimedChoiceSubmission{ChoiceID: "risky_pilot"},
	"room3_one_team":   grading.MultiStepSubmission{StepOneChoiceID: "support", PuzzleCompleted: true},
	"room4_upgrade":    grading.MatchingChoiceSubmission{PowerUpID: "curiosity"},
	"room5_innovation": grading.ChoiceFinalSubmission{MainChoiceID: "holiday_ai", FinalChoiceID: "failure"},
}

type fixture struct {
	engine *Engine
	medium *progress.MemoryMedium
	events []Event
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	catalog, err := rooms.Builtin()
	require.NoError(t, err)
	clock := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	f := &fixture{medium: progress.NewMemoryMedium()}
	store := progress.NewStore(f.medium, progress.WithClock(tick))
	f.engine = New(catalog, store, append([]Option{WithClock(tick)}, opts...)...)
	f.engine.Subscribe(func(ev Event) { f.events = append(f.events, ev) })
	t.Cleanup(f.engine.Close)
	return f
}

func (f *fixture) types() []EventType {
	out := make([]EventType, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

func requireStatusInvariant(t *testing.T, ids []string, p progress.PlayerProgress) {
	t.Helper()
	require.Len(t, p.Rooms, len(ids))
	cur := p.CurrentRoom()
	if cur == "" {
		for _, id := range ids {
			require.Equal(t, progress.StatusCompleted, p.Rooms[id].Status, id)
		}
		return
	}
	curIdx := -1
	inProgress := 0
	for i, id := range ids {
		if id == cur {
			curIdx = i
		}
		if p.Rooms[id].Status == progress.StatusInProgress {
			inProgress++
		}
	}
	require.GreaterOrEqual(t, curIdx, 0)
	require.Equal(t, 1, inProgress)
	for i, id := range ids {
		switch {
		case i < curIdx:
			require.Equal(t, progress.StatusCompleted, p.Rooms[id].Status, id)
		case i == curIdx:
			require.Equal(t, progress.StatusInProgress, p.Rooms[id].Status, id)
		default:
			require.Equal(t, progress.StatusLocked, p.Rooms[id].Status, id)
		}
	}
}

func TestStartGameInitializesOnceAndResumes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.engine.StartGame(ctx)
	assert.Equal(t, "room1_helm", first.CurrentRoom())
	requireStatusInvariant(t, f.engine.RoomIDs(), first)
	assert.Equal(t, []EventType{EventGameReset}, f.types())

	second := f.engine.StartGame(ctx)
	third := f.engine.StartGame(ctx)
	a, err := json.Marshal(second)
	require.NoError(t, err)
	b, err := json.Marshal(third)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, first.PlayerID, second.PlayerID)
	assert.Len(t, f.events, 1, "resume must not emit gameReset")
}

func TestResetClearsFully(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.StartGame(ctx)
	_, err := f.engine.SubmitResult(ctx, "room1_helm", correctSubmissions["room1_helm"], 10)
	require.NoError(t, err)

	f.engine.ResetGame(ctx)
	_, ok := f.engine.GameState(ctx)
	assert.False(t, ok)
	assert.False(t, f.engine.CheckAllRoomsCompleted(ctx))

	p := f.engine.StartGame(ctx)
	assert.Equal(t, "room1_helm", p.CurrentRoom())
	assert.Equal(t, 0, p.TotalScore)
	requireStatusInvariant(t, f.engine.RoomIDs(), p)
	for _, id := range f.engine.RoomIDs()[1:] {
		assert.Equal(t, progress.StatusLocked, p.Rooms[id].Status)
	}
	assert.Equal(t, EventGameReset, f.events[len(f.events)-1].Type)
}

func TestFullRunCompletesEveryRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.StartGame(ctx)

	times := map[string]int{
		"room1_helm":       25,
		"room2_firewall":   40,
		"room3_one_team":   10,
		"room4_upgrade":    100,
		"room5_innovation": 5,
	}
	prevTotal := 0
	sum := 0
	for _, id := range f.engine.RoomIDs() {
		require.NoError(t, f.engine.StartRoom(ctx, id))
		res, err := f.engine.SubmitResult(ctx, id, correctSubmissions[id], times[id])
		require.NoError(t, err)
		require.True(t, res.Success, id)
		room, _ := f.engine.Room(id)
		assert.Equal(t, room.OnSuccess.Message, res.Message)
		assert.Equal(t, room.OnSuccess.Learning, res.Learning)
		assert.GreaterOrEqual(t, res.Score, 50)
		assert.LessOrEqual(t, res.Score, 100)
		sum += res.Score

		p, ok := f.engine.GameState(ctx)
		require.True(t, ok)
		requireStatusInvariant(t, f.engine.RoomIDs(), p)
		assert.GreaterOrEqual(t, p.TotalScore, prevTotal)
		prevTotal = p.TotalScore
	}

	assert.True(t, f.engine.CheckAllRoomsCompleted(ctx))
	p, ok := f.engine.GameState(ctx)
	require.True(t, ok)
	assert.Equal(t, 98+96+99+90+100, sum)
	assert.Equal(t, sum, p.TotalScore)
	assert.NotNil(t, p.CompletedAt)
	assert.Nil(t, p.CurrentRoomID)
	assert.Equal(t, []string{"holiday_ai", "failure"}, p.Rooms["room5_innovation"].Choices)

	last := f.events[len(f.events)-1]
	require.Equal(t, EventAllRoomsCompleted, last.Type)
	data, ok := last.Data.(AllRoomsCompletedData)
	require.True(t, ok)
	assert.Equal(t, sum, data.Progress.TotalScore)
	assert.Equal(t, EventRoomCompleted, f.events[len(f.events)-2].Type)
}

func TestFailThenSucceedCountsOneAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.StartGame(ctx)

	res, err := f.engine.SubmitResult(ctx, "room1_helm", grading.ReorderSubmission{Order: []string{"Act", "Plan", "Decide", "Communicate"}}, 5)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, grading.MsgReorderWrong, res.Message)

	p, _ := f.engine.GameState(ctx)
	assert.Equal(t, progress.StatusInProgress, p.Rooms["room1_helm"].Status)

	res, err = f.engine.SubmitResult(ctx, "room1_helm", correctSubmissions["room1_helm"], 5)
	require.NoError(t, err)
	assert.True(t, res.Success)

	p, _ = f.engine.GameState(ctx)
	assert.Equal(t, 1, p.Rooms["room1_helm"].Attempts)
	assert.Equal(t, progress.StatusCompleted, p.Rooms["room1_helm"].Status)

	failed := f.events[1]
	require.Equal(t, EventRoomFailed, failed.Type)
	assert.Equal(t, "room1_helm", failed.RoomID)
	assert.Equal(t, RoomFailedData{Attempts: 0}, failed.Data)
}

func TestRoomFailedReportsPriorAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.StartGame(ctx)

	wrong := grading.ReorderSubmission{Order: []string{"Act", "Plan", "Decide", "Communicate"}}
	for range 3 {
		_, err := f.engine.SubmitResult(ctx, "room1_helm", wrong, 5)
		require.NoError(t, err)
	}

	var got []int
	for _, ev := range f.events {
		if ev.Type == EventRoomFailed {
			got = append(got, ev.Data.(RoomFailedData).Attempts)
		}
	}
	assert.Equal(t, []int{0, 1, 2}, got)
	p, _ := f.engine.GameState(ctx)
	assert.Equal(t, 3, p.Rooms["room1_helm"].Attempts)
}

func TestHintsReduceScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.StartGame(ctx)

	f.engine.UseHint(ctx, "room1_helm")
	f.engine.UseHint(ctx, "room1_helm")
	res, err := f.engine.SubmitResult(ctx, "room1_helm", correctSubmissions["room1_helm"], 30)
	require.NoError(t, err)
	assert.Equal(t, 77, res.Score)

	hint := f.events[2]
	assert.Equal(t, EventHintUsed, hint.Type)
	assert.Equal(t, HintUsedData{HintsUsed: 2}, hint.Data)
}

func TestTimedChoiceTimeoutFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.StartGame(ctx)
	_, err := f.engine.SubmitResult(ctx, "room1_helm", correctSubmissions["room1_helm"], 1)
	require.NoError(t, err)

	res, err := f.engine.SubmitResult(ctx, "room2_firewall", grading.TimedChoiceSubmission{ChoiceID: grading.TimeoutChoiceID}, 30)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)

	res, err = f.engine.SubmitResult(ctx, "room2_firewall", correctSubmissions["room2_firewall"], 12)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.AuxiliaryEvent)
	learning, ok := f.engine.ResolveAuxiliaryEvent("room2_firewall", "press")
	assert.True(t, ok)
	assert.NotEmpty(t, learning)
	_, ok = f.engine.ResolveAuxiliaryEvent("room2_firewall", "nope")
	assert.False(t, ok)
	_, ok = f.engine.ResolveAuxiliaryEvent("room1_helm", "press")
	assert.False(t, ok)
}

func TestLifecycleErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.engine.StartRoom(ctx, "room1_helm"), ErrNoProgress)
	_, err := f.engine.SubmitResult(ctx, "room1_helm", correctSubmissions["room1_helm"], 1)
	assert.ErrorIs(t, err, ErrNoProgress)

	f.engine.StartGame(ctx)
	assert.ErrorIs(t, f.engine.StartRoom(ctx, "room9_missing"), ErrUnknownRoom)
	_, err = f.engine.SubmitResult(ctx, "room9_missing", correctSubmissions["room1_helm"], 1)
	assert.ErrorIs(t, err, ErrUnknownRoom)

	_, err = f.engine.SubmitResult(ctx, "room3_one_team", correctSubmissions["room3_one_team"], 1)
	assert.ErrorIs(t, err, ErrRoomNotActive)
	p, _ := f.engine.GameState(ctx)
	assert.Equal(t, progress.StatusLocked, p.Rooms["room3_one_team"].Status)
	assert.Equal(t, 0, p.Rooms["room3_one_team"].Attempts)
}

func TestStartRoomDoesNotMutateProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.StartGame(ctx)
	before, _ := f.medium.Load(ctx, progress.DefaultKey)

	require.NoError(t, f.engine.StartRoom(ctx, "room1_helm"))

	after, _ := f.medium.Load(ctx, progress.DefaultKey)
	assert.Equal(t, before, after)
	ev := f.events[len(f.events)-1]
	assert.Equal(t, EventRoomStarted, ev.Type)
	assert.Equal(t, "room1_helm", ev.Data.(RoomStartedData).Room.ID)
}

func TestStartGameReinitializesForeignSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	foreign := progress.NewStore(f.medium)
	foreign.Initialize(ctx, []string{"other_room"})

	p := f.engine.StartGame(ctx)
	assert.Len(t, p.Rooms, 5)
	assert.Equal(t, []EventType{EventGameReset}, f.types())
}

func TestListenerPanicIsIsolated(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	f := newFixture(t, WithLogger(telemetry.NewWriter(&logs, "info")))

	var order []string
	f.engine.Subscribe(func(Event) { order = append(order, "a") })
	f.engine.Subscribe(func(Event) { panic("listener blew up") })
	f.engine.Subscribe(func(Event) { order = append(order, "c") })

	p := f.engine.StartGame(ctx)
	assert.Equal(t, []string{"a", "c"}, order)
	assert.Equal(t, "room1_helm", p.CurrentRoom())
	assert.Len(t, f.events, 1)
	assert.Contains(t, logs.String(), "events.listener_panic")
	assert.Contains(t, logs.String(), "listener blew up")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	calls := 0
	unsubscribe := f.engine.Subscribe(func(Event) { calls++ })
	f.engine.StartGame(ctx)
	unsubscribe()
	unsubscribe()
	f.engine.ResetGame(ctx)

	assert.Equal(t, 1, calls)
	assert.Len(t, f.events, 2, "other listeners keep receiving events")
}

func TestStorageFailureDegradesToAbsent(t *testing.T) {
	ctx := context.Background()
	catalog, err := rooms.Builtin()
	require.NoError(t, err)
	e := New(catalog, progress.NewStore(failingMedium{}))
	defer e.Close()

	p := e.StartGame(ctx)
	assert.Equal(t, "room1_helm", p.CurrentRoom())
	assert.ErrorIs(t, e.StartRoom(ctx, "room1_helm"), ErrNoProgress)
	assert.False(t, e.CheckAllRoomsCompleted(ctx))
}

type failingMedium struct{}

func (failingMedium) Load(context.Context, string) (string, error) { return "", assert.AnError }
func (failingMedium) Save(context.Context, string, string) error   { return assert.AnError }
func (failingMedium) Remove(context.Context, string) error         { return assert.AnError }
func (failingMedium) Close() error                                 { return nil }

// slowMedium widens the window between loading and saving a snapshot.
type slowMedium struct {
	*progress.MemoryMedium
}

func (m slowMedium) Load(ctx context.Context, key string) (string, error) {
	time.Sleep(2 * time.Millisecond)
	return m.MemoryMedium.Load(ctx, key)
}

func TestConcurrentOperationsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	catalog, err := rooms.Builtin()
	require.NoError(t, err)
	e := New(catalog, progress.NewStore(slowMedium{progress.NewMemoryMedium()}))
	defer e.Close()

	var hintEvents atomic.Int32
	e.Subscribe(func(ev Event) {
		if ev.Type == EventHintUsed {
			hintEvents.Add(1)
		}
	})
	e.StartGame(ctx)

	const workers = 50
	wrong := grading.ReorderSubmission{Order: []string{"Act", "Plan", "Decide", "Communicate"}}
	var wg sync.WaitGroup
	for range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.UseHint(ctx, "room1_helm")
		}()
		go func() {
			defer wg.Done()
			_, err := e.SubmitResult(ctx, "room1_helm", wrong, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, ok := e.GameState(ctx)
	require.True(t, ok)
	assert.Equal(t, workers, p.Rooms["room1_helm"].HintsUsed)
	assert.Equal(t, workers, p.Rooms["room1_helm"].Attempts)
	assert.Equal(t, int32(workers), hintEvents.Load())
}

func TestListenerMayCallBackIntoEngine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var seen []string
	f.engine.Subscribe(func(ev Event) {
		if ev.Type != EventRoomCompleted {
			return
		}
		p, ok := f.engine.GameState(ctx)
		require.True(t, ok)
		seen = append(seen, p.CurrentRoom())
	})
	f.engine.StartGame(ctx)
	_, err := f.engine.SubmitResult(ctx, "room1_helm", correctSubmissions["room1_helm"], 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"room2_firewall"}, seen)
}

func TestCallerCannotRewriteCatalogAnswers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.Subscribe(func(ev Event) {
		if data, ok := ev.Data.(RoomStartedData); ok {
			data.Room.Task.(*rooms.ReorderTask).CorrectOrder[0] = "Act"
		}
	})
	f.engine.StartGame(ctx)
	require.NoError(t, f.engine.StartRoom(ctx, "room1_helm"))

	r, ok := f.engine.Room("room1_helm")
	require.True(t, ok)
	order := r.Task.(*rooms.ReorderTask).CorrectOrder
	order[0], order[3] = order[3], order[0]
	f.engine.Rooms()[0].Task.(*rooms.ReorderTask).CorrectOrder[1] = "Act"

	res, err := f.engine.SubmitResult(ctx, "room1_helm", correctSubmissions["room1_helm"], 1)
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = f.engine.SubmitResult(ctx, "room2_firewall", correctSubmissions["room2_firewall"], 1)
	require.NoError(t, err)
	require.NotNil(t, res.AuxiliaryEvent)
	res.AuxiliaryEvent.Outcomes["press"] = rooms.EventOutcome{}
	learning, ok := f.engine.ResolveAuxiliaryEvent("room2_firewall", "press")
	assert.True(t, ok)
	assert.NotEmpty(t, learning)
}
