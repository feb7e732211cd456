package rooms

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	CatalogKind            = "room_catalog"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Type is the closed set of puzzle kinds a room can be.
type Type string

const (
	TypeReorder        Type = "reorder"
	TypeTimedChoice    Type = "timed-choice"
	TypeMultiStep      Type = "multi-step"
	TypeMatchingChoice Type = "matching-choice"
	TypeChoiceFinal    Type = "choice-final"
)

func (t Type) Known() bool {
	switch t {
	case TypeReorder, TypeTimedChoice, TypeMultiStep, TypeMatchingChoice, TypeChoiceFinal:
		return true
	}
	return false
}

// Outcome is the declared result of picking a timed choice. Values other
// than the three below are allowed in content and graded as a failure.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFail    Outcome = "fail"
)

type File struct {
	Kind          string `yaml:"kind"`
	SchemaVersion int    `yaml:"schema_version"`
	Title         string `yaml:"title"`
	Rooms         []Room `yaml:"rooms"`
}

type Room struct {
	ID        string    `json:"id" validate:"required"`
	Value     string    `json:"value" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Type      Type      `json:"type" validate:"required"`
	Task      Task      `json:"task"`
	OnSuccess OnSuccess `json:"onSuccess"`
}

type OnSuccess struct {
	Message  string `yaml:"message" json:"message" validate:"required"`
	Learning string `yaml:"learning" json:"learning"`
}

// Task is the type-specific payload of a room. Exactly one concrete task
// type exists per room Type.
type Task interface {
	RoomType() Type
	clone() Task
}

type ReorderTask struct {
	Instruction  string   `yaml:"instruction" json:"instruction"`
	Items        []string `yaml:"items" json:"items" validate:"required,min=2,dive,required"`
	CorrectOrder []string `yaml:"correct_order" json:"correctOrder" validate:"required,min=2,dive,required"`
}

type TimedChoiceTask struct {
	Instruction      string          `yaml:"instruction" json:"instruction"`
	Choices          []OutcomeChoice `yaml:"choices" json:"choices" validate:"required,min=1,dive"`
	TimeLimitSeconds int             `yaml:"time_limit_seconds" json:"timeLimitSeconds" validate:"gt=0"`
	Branching        *Branching      `yaml:"branching" json:"branching,omitempty"`
	AdditionalEvent  *AuxiliaryEvent `yaml:"additional_event" json:"additionalEvent,omitempty"`
}

type OutcomeChoice struct {
	ID      string  `yaml:"id" json:"id" validate:"required"`
	Label   string  `yaml:"label" json:"label"`
	Outcome Outcome `yaml:"outcome" json:"outcome" validate:"required"`
}

type Branching struct {
	SuccessPath *BranchPath `yaml:"success_path" json:"successPath,omitempty"`
	FailPath    *BranchPath `yaml:"fail_path" json:"failPath,omitempty"`
}

type BranchPath struct {
	NextEvent string `yaml:"next_event" json:"nextEvent,omitempty"`
}

// AuxiliaryEvent is a follow-up interaction offered after a successful
// submission, outside the room state machine.
type AuxiliaryEvent struct {
	ID          string                  `yaml:"id" json:"id" validate:"required"`
	Instruction string                  `yaml:"instruction" json:"instruction"`
	Choices     []Choice                `yaml:"choices" json:"choices" validate:"required,min=1,dive"`
	Outcomes    map[string]EventOutcome `yaml:"outcomes" json:"outcomes"`
}

type EventOutcome struct {
	Learning string `yaml:"learning" json:"learning"`
}

type Choice struct {
	ID    string `yaml:"id" json:"id" validate:"required"`
	Label string `yaml:"label" json:"label"`
}

type MultiStepTask struct {
	Instruction string `yaml:"instruction" json:"instruction"`
	Steps       []Step `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
}

type Step struct {
	Instruction string       `yaml:"instruction" json:"instruction"`
	Choices     []StepChoice `yaml:"choices" json:"choices" validate:"omitempty,dive"`
}

type StepChoice struct {
	ID     string `yaml:"id" json:"id" validate:"required"`
	Label  string `yaml:"label" json:"label"`
	Result string `yaml:"result" json:"result"`
}

type MatchingChoiceTask struct {
	Instruction    string   `yaml:"instruction" json:"instruction"`
	Pairs          []Pair   `yaml:"pairs" json:"pairs" validate:"omitempty,dive"`
	PowerUpChoices []Choice `yaml:"power_up_choices" json:"powerUpChoices" validate:"required,min=1,dive"`
	CorrectPowerUp string   `yaml:"correct_power_up" json:"correctPowerUp" validate:"required"`
}

type Pair struct {
	Left  string `yaml:"left" json:"left" validate:"required"`
	Right string `yaml:"right" json:"right" validate:"required"`
}

type ChoiceFinalTask struct {
	Instruction string      `yaml:"instruction" json:"instruction"`
	Choices     []Choice    `yaml:"choices" json:"choices" validate:"required,min=1,dive"`
	FinalPuzzle FinalPuzzle `yaml:"final_puzzle" json:"finalPuzzle"`
}

type FinalPuzzle struct {
	Instruction string   `yaml:"instruction" json:"instruction"`
	Choices     []Choice `yaml:"choices" json:"choices" validate:"required,min=1,dive"`
	Correct     string   `yaml:"correct" json:"correct" validate:"required"`
}

func (*ReorderTask) RoomType() Type        { return TypeReorder }
func (*TimedChoiceTask) RoomType() Type    { return TypeTimedChoice }
func (*MultiStepTask) RoomType() Type      { return TypeMultiStep }
func (*MatchingChoiceTask) RoomType() Type { return TypeMatchingChoice }
func (*ChoiceFinalTask) RoomType() Type    { return TypeChoiceFinal }

// Choice looks up a timed choice by id.
func (t *TimedChoiceTask) Choice(id string) (OutcomeChoice, bool) {
	for _, c := range t.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return OutcomeChoice{}, false
}

// NextEvent returns the follow-up event declared on the success path.
func (t *TimedChoiceTask) NextEvent() *AuxiliaryEvent {
	if t.Branching == nil || t.Branching.SuccessPath == nil || t.Branching.SuccessPath.NextEvent == "" {
		return nil
	}
	return t.AdditionalEvent
}

// Clone returns a deep copy of r that shares no memory with it.
func (r Room) Clone() Room {
	if r.Task != nil {
		r.Task = r.Task.clone()
	}
	return r
}

func (t *ReorderTask) clone() Task {
	if t == nil {
		return t
	}
	c := *t
	c.Items = slices.Clone(t.Items)
	c.CorrectOrder = slices.Clone(t.CorrectOrder)
	return &c
}

func (t *TimedChoiceTask) clone() Task {
	if t == nil {
		return t
	}
	c := *t
	c.Choices = slices.Clone(t.Choices)
	if t.Branching != nil {
		b := *t.Branching
		if b.SuccessPath != nil {
			sp := *b.SuccessPath
			b.SuccessPath = &sp
		}
		if b.FailPath != nil {
			fp := *b.FailPath
			b.FailPath = &fp
		}
		c.Branching = &b
	}
	c.AdditionalEvent = t.AdditionalEvent.Clone()
	return &c
}

func (t *MultiStepTask) clone() Task {
	if t == nil {
		return t
	}
	c := *t
	c.Steps = slices.Clone(t.Steps)
	for i := range c.Steps {
		c.Steps[i].Choices = slices.Clone(c.Steps[i].Choices)
	}
	return &c
}

func (t *MatchingChoiceTask) clone() Task {
	if t == nil {
		return t
	}
	c := *t
	c.Pairs = slices.Clone(t.Pairs)
	c.PowerUpChoices = slices.Clone(t.PowerUpChoices)
	return &c
}

func (t *ChoiceFinalTask) clone() Task {
	if t == nil {
		return t
	}
	c := *t
	c.Choices = slices.Clone(t.Choices)
	c.FinalPuzzle.Choices = slices.Clone(t.FinalPuzzle.Choices)
	return &c
}

// Clone returns a deep copy of ev. A nil event stays nil.
func (ev *AuxiliaryEvent) Clone() *AuxiliaryEvent {
	if ev == nil {
		return nil
	}
	c := *ev
	c.Choices = slices.Clone(ev.Choices)
	c.Outcomes = maps.Clone(ev.Outcomes)
	return &c
}

type roomYAML struct {
	ID        string    `yaml:"id"`
	Value     string    `yaml:"value"`
	Title     string    `yaml:"title"`
	Type      Type      `yaml:"type"`
	Task      yaml.Node `yaml:"task"`
	OnSuccess OnSuccess `yaml:"on_success"`
}

func (r *Room) UnmarshalYAML(value *yaml.Node) error {
	var raw roomYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	task, err := decodeTask(raw.Type, &raw.Task)
	if err != nil {
		return fmt.Errorf("room %q: %w", raw.ID, err)
	}
	*r = Room{
		ID:        raw.ID,
		Value:     raw.Value,
		Title:     raw.Title,
		Type:      raw.Type,
		Task:      task,
		OnSuccess: raw.OnSuccess,
	}
	return nil
}

func decodeTask(t Type, node *yaml.Node) (Task, error) {
	var task Task
	switch t {
	case TypeReorder:
		task = &ReorderTask{}
	case TypeTimedChoice:
		task = &TimedChoiceTask{}
	case TypeMultiStep:
		task = &MultiStepTask{}
	case TypeMatchingChoice:
		task = &MatchingChoiceTask{}
	case TypeChoiceFinal:
		task = &ChoiceFinalTask{}
	default:
		return nil, fmt.Errorf("unknown room type %q", t)
	}
	if node.Kind == 0 {
		return nil, errors.New("task is required")
	}
	if err := node.Decode(task); err != nil {
		return nil, fmt.Errorf("decode %s task: %w", t, err)
	}
	return task, nil
}

func (f File) Validate() error {
	if f.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if f.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if f.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", f.SchemaVersion, SupportedSchemaVersion)
	}
	if len(f.Rooms) == 0 {
		return fmt.Errorf("rooms must contain at least one room")
	}
	seen := map[string]struct{}{}
	for _, r := range f.Rooms {
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("duplicate room id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r Room) Validate() error {
	if !idPattern.MatchString(r.ID) {
		return fmt.Errorf("invalid room id %q", r.ID)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("room %s: %w", r.ID, describe(err))
	}
	if !r.Type.Known() {
		return fmt.Errorf("room %s: unknown type %q", r.ID, r.Type)
	}
	if r.Task == nil {
		return fmt.Errorf("room %s: task is required", r.ID)
	}
	if r.Task.RoomType() != r.Type {
		return fmt.Errorf("room %s: task shape %s does not match type %s", r.ID, r.Task.RoomType(), r.Type)
	}
	if err := validate.Struct(r.Task); err != nil {
		return fmt.Errorf("room %s task: %w", r.ID, describe(err))
	}

	switch task := r.Task.(type) {
	case *ReorderTask:
		if !sameElements(task.Items, task.CorrectOrder) {
			return fmt.Errorf("room %s: correct_order must be a permutation of items", r.ID)
		}
	case *TimedChoiceTask:
		if err := uniqueIDs(len(task.Choices), func(i int) string { return task.Choices[i].ID }); err != nil {
			return fmt.Errorf("room %s choices: %w", r.ID, err)
		}
		if next := task.Branching; next != nil && next.SuccessPath != nil && next.SuccessPath.NextEvent != "" {
			if task.AdditionalEvent == nil {
				return fmt.Errorf("room %s: branching.success_path.next_event requires additional_event", r.ID)
			}
			if err := validate.Struct(task.AdditionalEvent); err != nil {
				return fmt.Errorf("room %s additional_event: %w", r.ID, describe(err))
			}
		}
	case *MultiStepTask:
		if len(task.Steps[0].Choices) == 0 {
			return fmt.Errorf("room %s: steps[0].choices must contain at least one choice", r.ID)
		}
	case *MatchingChoiceTask:
		if !slices.ContainsFunc(task.PowerUpChoices, func(c Choice) bool { return c.ID == task.CorrectPowerUp }) {
			return fmt.Errorf("room %s: correct_power_up %q is not one of power_up_choices", r.ID, task.CorrectPowerUp)
		}
	case *ChoiceFinalTask:
		fp := task.FinalPuzzle
		if !slices.ContainsFunc(fp.Choices, func(c Choice) bool { return c.ID == fp.Correct }) {
			return fmt.Errorf("room %s: final_puzzle.correct %q is not one of its choices", r.ID, fp.Correct)
		}
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}

func sameElements(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func uniqueIDs(n int, id func(int) string) error {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		if _, ok := seen[id(i)]; ok {
			return fmt.Errorf("duplicate id %q", id(i))
		}
		seen[id(i)] = struct{}{}
	}
	return nil
}
