package devtools

import (
	"context"
	"fmt"

	"escaperoom/internal/engine"
	"escaperoom/internal/grading"
	"escaperoom/internal/rooms"
)

// Scenario describes a progress state the dev inspector can jump to.
type Scenario struct {
	Name string `json:"name"`
	// Solved is how many rooms are completed, in catalog order. -1 means
	// every room.
	Solved int `json:"solved"`
	// FailFirst submits one wrong answer to the current room.
	FailFirst bool `json:"fail_first"`
	// Hints are recorded on the current room after solving.
	Hints int `json:"hints"`
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Resolve(name string) Scenario {
	switch name {
	case "fresh":
		return Scenario{Name: name}
	case "failing":
		return Scenario{Name: name, FailFirst: true}
	case "hinted":
		return Scenario{Name: name, Hints: 2}
	case "mid_run":
		return Scenario{Name: name, Solved: 2}
	case "final_room":
		return Scenario{Name: name, Solved: 4}
	case "all_complete":
		return Scenario{Name: name, Solved: -1}
	default:
		return Scenario{Name: "fresh"}
	}
}

// Apply resets progress and replays the scenario through the engine, so
// events and logs look exactly like a real session.
func (m *Manager) Apply(ctx context.Context, e *engine.Engine, name string) (Scenario, error) {
	sc := m.Resolve(name)
	e.ResetGame(ctx)
	e.StartGame(ctx)

	ids := e.RoomIDs()
	solved := sc.Solved
	if solved < 0 || solved > len(ids) {
		solved = len(ids)
	}
	for _, id := range ids[:solved] {
		room, _ := e.Room(id)
		if err := e.StartRoom(ctx, id); err != nil {
			return sc, err
		}
		sub, err := Solve(room)
		if err != nil {
			return sc, err
		}
		res, err := e.SubmitResult(ctx, id, sub, 30)
		if err != nil {
			return sc, err
		}
		if !res.Success {
			return sc, fmt.Errorf("demo %s: room %s rejected its own answer: %s", sc.Name, id, res.Message)
		}
	}
	if solved == len(ids) {
		return sc, nil
	}

	current := ids[solved]
	if sc.FailFirst {
		room, _ := e.Room(current)
		if _, err := e.SubmitResult(ctx, current, Wrong(room), 5); err != nil {
			return sc, err
		}
	}
	for i := 0; i < sc.Hints; i++ {
		e.UseHint(ctx, current)
	}
	return sc, nil
}

// Solve builds the submission that passes room.
func Solve(room rooms.Room) (grading.Submission, error) {
	switch task := room.Task.(type) {
	case *rooms.ReorderTask:
		return grading.ReorderSubmission{Order: append([]string(nil), task.CorrectOrder...)}, nil
	case *rooms.TimedChoiceTask:
		for _, c := range task.Choices {
			if c.Outcome == rooms.OutcomeSuccess {
				return grading.TimedChoiceSubmission{ChoiceID: c.ID}, nil
			}
		}
		for _, c := range task.Choices {
			if c.Outcome == rooms.OutcomePartial {
				return grading.TimedChoiceSubmission{ChoiceID: c.ID}, nil
			}
		}
	case *rooms.MultiStepTask:
		if len(task.Steps) > 0 {
			for _, c := range task.Steps[0].Choices {
				if c.Result == string(rooms.OutcomeSuccess) {
					return grading.MultiStepSubmission{StepOneChoiceID: c.ID, PuzzleCompleted: true}, nil
				}
			}
		}
	case *rooms.MatchingChoiceTask:
		return grading.MatchingChoiceSubmission{PowerUpID: task.CorrectPowerUp}, nil
	case *rooms.ChoiceFinalTask:
		if len(task.Choices) > 0 {
			return grading.ChoiceFinalSubmission{MainChoiceID: task.Choices[0].ID, FinalChoiceID: task.FinalPuzzle.Correct}, nil
		}
	}
	return nil, fmt.Errorf("room %s (%s) has no passing answer", room.ID, room.Type)
}

// Wrong builds a submission of the right shape that fails room.
func Wrong(room rooms.Room) grading.Submission {
	switch room.Type {
	case rooms.TypeReorder:
		return grading.ReorderSubmission{}
	case rooms.TypeTimedChoice:
		return grading.TimedChoiceSubmission{ChoiceID: "__none__"}
	case rooms.TypeMultiStep:
		return grading.MultiStepSubmission{}
	case rooms.TypeMatchingChoice:
		return grading.MatchingChoiceSubmission{}
	default:
		return grading.ChoiceFinalSubmission{}
	}
}
