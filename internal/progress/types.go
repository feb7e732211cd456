package progress

import (
	"maps"
	"slices"
	"time"
)

type Status string

const (
	StatusLocked     Status = "locked"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type RoomProgress struct {
	Status       Status   `json:"status" validate:"oneof=locked in_progress completed"`
	Attempts     int      `json:"attempts" validate:"gte=0"`
	HintsUsed    int      `json:"hintsUsed" validate:"gte=0"`
	TimeTakenSec *int     `json:"timeTakenSec,omitempty"`
	Score        *int     `json:"score,omitempty"`
	Choices      []string `json:"choices,omitempty"`
}

// PlayerProgress is the snapshot persisted as a single JSON document.
type PlayerProgress struct {
	PlayerID      string                  `json:"playerId" validate:"required"`
	StartedAt     time.Time               `json:"startedAt"`
	LastUpdated   time.Time               `json:"lastUpdated"`
	CompletedAt   *time.Time              `json:"completedAt,omitempty"`
	CurrentRoomID *string                 `json:"currentRoomId"`
	Rooms         map[string]RoomProgress `json:"rooms" validate:"required,dive"`
	TotalScore    int                     `json:"totalScore" validate:"gte=0"`
}

// Completion carries the result fields recorded when a room is solved.
type Completion struct {
	TimeTakenSec int
	Score        int
	Choices      []string
}

// CurrentRoom returns the in-progress room id, or "" once every room is
// completed.
func (p PlayerProgress) CurrentRoom() string {
	if p.CurrentRoomID == nil {
		return ""
	}
	return *p.CurrentRoomID
}

func (p PlayerProgress) Room(id string) (RoomProgress, bool) {
	rp, ok := p.Rooms[id]
	return rp, ok
}

func (p PlayerProgress) Clone() PlayerProgress {
	out := p
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		out.CompletedAt = &t
	}
	if p.CurrentRoomID != nil {
		id := *p.CurrentRoomID
		out.CurrentRoomID = &id
	}
	out.Rooms = maps.Clone(p.Rooms)
	for id, rp := range out.Rooms {
		out.Rooms[id] = rp.clone()
	}
	return out
}

func (rp RoomProgress) clone() RoomProgress {
	out := rp
	if rp.TimeTakenSec != nil {
		v := *rp.TimeTakenSec
		out.TimeTakenSec = &v
	}
	if rp.Score != nil {
		v := *rp.Score
		out.Score = &v
	}
	out.Choices = slices.Clone(rp.Choices)
	return out
}
