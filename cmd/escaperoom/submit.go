package main

import (
	"fmt"

	"escaperoom/internal/grading"
	"escaperoom/internal/rooms"
)

type submitFlags struct {
	order           []string
	choice          string
	stepOne         string
	puzzleCompleted bool
	powerUp         string
	main            string
	final           string
	timeTaken       int
}

// buildSubmission picks the submission variant for the room's type from
// the flags that apply to it.
func buildSubmission(room rooms.Room, f submitFlags) (grading.Submission, error) {
	switch room.Type {
	case rooms.TypeReorder:
		if len(f.order) == 0 {
			return nil, fmt.Errorf("room %s needs --order", room.ID)
		}
		return grading.ReorderSubmission{Order: f.order}, nil
	case rooms.TypeTimedChoice:
		choice := f.choice
		if choice == "" {
			choice = grading.TimeoutChoiceID
		}
		return grading.TimedChoiceSubmission{ChoiceID: choice}, nil
	case rooms.TypeMultiStep:
		return grading.MultiStepSubmission{StepOneChoiceID: f.stepOne, PuzzleCompleted: f.puzzleCompleted}, nil
	case rooms.TypeMatchingChoice:
		return grading.MatchingChoiceSubmission{PowerUpID: f.powerUp}, nil
	case rooms.TypeChoiceFinal:
		return grading.ChoiceFinalSubmission{MainChoiceID: f.main, FinalChoiceID: f.final}, nil
	default:
		return nil, fmt.Errorf("room %s has unsupported type %q", room.ID, room.Type)
	}
}
