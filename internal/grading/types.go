package grading

import "escaperoom/internal/rooms"

// TimeoutChoiceID is submitted for a timed choice when the countdown runs
// out before the player picks anything.
const TimeoutChoiceID = "timeout"

const (
	MsgInvalidChoice     = "Invalid choice."
	MsgReorderWrong      = "The command chain order is not correct."
	MsgApproachFailed    = "That approach failed. Try another strategy."
	MsgPartialNotOptimal = "Partial success, but not optimal."
	MsgStepOneWrong      = "Your response to the colleague was not the best choice."
	MsgPuzzleIncomplete  = "The connection grid puzzle was not completed correctly."
	MsgPowerUpWrong      = "That power-up is not the optimal choice for growth."
	MsgSelectConcept     = "Please select a concept to develop."
	MsgFinalWrong        = "That's not quite the key to discovery. Think about what drives innovation."
	MsgUnknownRoomType   = "Unknown room type."
	MsgWrongSubmission   = "That answer does not fit this room."
	MsgTryAgain          = "Not quite right. Try again!"
)

// Verdict is the outcome of grading one submission. A failed verdict is a
// normal result, not an error.
type Verdict struct {
	Success        bool
	Message        string
	AuxiliaryEvent *rooms.AuxiliaryEvent
}

// Submission is the player's answer for one room. Each room type has its
// own variant.
type Submission interface {
	RoomType() rooms.Type
	// Choices lists the ids picked along the way, recorded on completion.
	Choices() []string
}

type ReorderSubmission struct {
	Order []string
}

type TimedChoiceSubmission struct {
	ChoiceID string
}

type MultiStepSubmission struct {
	StepOneChoiceID string
	PuzzleCompleted bool
}

type MatchingChoiceSubmission struct {
	PowerUpID string
}

type ChoiceFinalSubmission struct {
	MainChoiceID  string
	FinalChoiceID string
}

func (ReorderSubmission) RoomType() rooms.Type        { return rooms.TypeReorder }
func (TimedChoiceSubmission) RoomType() rooms.Type    { return rooms.TypeTimedChoice }
func (MultiStepSubmission) RoomType() rooms.Type      { return rooms.TypeMultiStep }
func (MatchingChoiceSubmission) RoomType() rooms.Type { return rooms.TypeMatchingChoice }
func (ChoiceFinalSubmission) RoomType() rooms.Type    { return rooms.TypeChoiceFinal }

func (s ReorderSubmission) Choices() []string     { return nil }
func (s TimedChoiceSubmission) Choices() []string { return nonEmpty(s.ChoiceID) }
func (s MultiStepSubmission) Choices() []string   { return nonEmpty(s.StepOneChoiceID) }
func (s MatchingChoiceSubmission) Choices() []string {
	return nonEmpty(s.PowerUpID)
}
func (s ChoiceFinalSubmission) Choices() []string {
	return nonEmpty(s.MainChoiceID, s.FinalChoiceID)
}

func nonEmpty(ids ...string) []string {
	var out []string
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
