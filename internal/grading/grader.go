package grading

import (
	"slices"

	"escaperoom/internal/rooms"
)

type evaluatorFunc func(rooms.Room, Submission) Verdict

type DefaultGrader struct {
	registry map[rooms.Type]evaluatorFunc
}

func NewGrader() *DefaultGrader {
	g := &DefaultGrader{registry: map[rooms.Type]evaluatorFunc{}}
	g.registry[rooms.TypeReorder] = g.evalReorder
	g.registry[rooms.TypeTimedChoice] = g.evalTimedChoice
	g.registry[rooms.TypeMultiStep] = g.evalMultiStep
	g.registry[rooms.TypeMatchingChoice] = g.evalMatchingChoice
	g.registry[rooms.TypeChoiceFinal] = g.evalChoiceFinal
	return g
}

// Grade checks sub against the room's configured answer. It never fails
// with an error: unknown room types and mismatched submissions come back
// as an unsuccessful verdict.
func (g *DefaultGrader) Grade(room rooms.Room, sub Submission) Verdict {
	evaluator, ok := g.registry[room.Type]
	if !ok {
		return Verdict{Message: MsgUnknownRoomType}
	}
	if sub == nil || sub.RoomType() != room.Type || room.Task == nil || room.Task.RoomType() != room.Type {
		return Verdict{Message: MsgWrongSubmission}
	}
	return evaluator(room, sub)
}

func (g *DefaultGrader) evalReorder(room rooms.Room, sub Submission) Verdict {
	task := room.Task.(*rooms.ReorderTask)
	s := sub.(ReorderSubmission)
	if slices.Equal(s.Order, task.CorrectOrder) {
		return Verdict{Success: true}
	}
	return Verdict{Message: MsgReorderWrong}
}

func (g *DefaultGrader) evalTimedChoice(room rooms.Room, sub Submission) Verdict {
	task := room.Task.(*rooms.TimedChoiceTask)
	s := sub.(TimedChoiceSubmission)
	choice, ok := task.Choice(s.ChoiceID)
	if !ok {
		return Verdict{Message: MsgInvalidChoice}
	}
	switch choice.Outcome {
	case rooms.OutcomeSuccess:
		return Verdict{Success: true, AuxiliaryEvent: task.NextEvent().Clone()}
	case rooms.OutcomePartial:
		return Verdict{Success: true}
	case rooms.OutcomeFail:
		return Verdict{Message: MsgApproachFailed}
	default:
		return Verdict{Message: MsgPartialNotOptimal}
	}
}

func (g *DefaultGrader) evalMultiStep(room rooms.Room, sub Submission) Verdict {
	task := room.Task.(*rooms.MultiStepTask)
	s := sub.(MultiStepSubmission)
	passed := false
	if len(task.Steps) > 0 {
		for _, c := range task.Steps[0].Choices {
			if c.ID == s.StepOneChoiceID {
				passed = c.Result == string(rooms.OutcomeSuccess)
				break
			}
		}
	}
	if !passed {
		return Verdict{Message: MsgStepOneWrong}
	}
	if !s.PuzzleCompleted {
		return Verdict{Message: MsgPuzzleIncomplete}
	}
	return Verdict{Success: true}
}

func (g *DefaultGrader) evalMatchingChoice(room rooms.Room, sub Submission) Verdict {
	task := room.Task.(*rooms.MatchingChoiceTask)
	s := sub.(MatchingChoiceSubmission)
	if s.PowerUpID == task.CorrectPowerUp {
		return Verdict{Success: true}
	}
	return Verdict{Message: MsgPowerUpWrong}
}

func (g *DefaultGrader) evalChoiceFinal(room rooms.Room, sub Submission) Verdict {
	task := room.Task.(*rooms.ChoiceFinalTask)
	s := sub.(ChoiceFinalSubmission)
	if s.MainChoiceID == "" {
		return Verdict{Message: MsgSelectConcept}
	}
	if s.FinalChoiceID == task.FinalPuzzle.Correct {
		return Verdict{Success: true}
	}
	return Verdict{Message: MsgFinalWrong}
}
