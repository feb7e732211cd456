package ui

import (
	"fmt"
	"strings"

	"escaperoom/internal/engine"
	"escaperoom/internal/progress"
	"escaperoom/internal/rooms"

	"github.com/charmbracelet/lipgloss"
)

// Renderer turns engine state into terminal text.
type Renderer struct {
	theme  Theme
	layout LayoutMode
}

func NewRenderer(theme Theme, cols int) *Renderer {
	return &Renderer{theme: theme, layout: DetermineLayoutMode(cols)}
}

func (r *Renderer) Rooms(title string, list []rooms.Room) string {
	var b strings.Builder
	b.WriteString(r.theme.Header.Render(title))
	b.WriteString("\n")
	for i, room := range list {
		line := fmt.Sprintf("%d. %s %s", i+1, r.theme.Accent.Render(room.ID), room.Title)
		if r.layout == LayoutWide {
			line += " " + r.theme.Muted.Render("("+room.Value+")")
		}
		b.WriteString(line)
		b.WriteString(r.theme.Muted.Render(" [" + string(room.Type) + "]"))
		b.WriteString("\n")
	}
	return b.String()
}

// Status renders one line per room plus the running total.
func (r *Renderer) Status(title string, list []rooms.Room, p progress.PlayerProgress) string {
	var lines []string
	for _, room := range list {
		rp, _ := p.Room(room.ID)
		label := room.Title
		if r.layout == LayoutWide {
			label = fmt.Sprintf("%s %s", room.Title, r.theme.Muted.Render("("+room.Value+")"))
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", r.statusBadge(rp.Status), label, r.detail(rp)))
	}
	lines = append(lines, "", fmt.Sprintf("%s %d", r.theme.Title.Render("Total score:"), p.TotalScore))
	switch cur := p.CurrentRoom(); {
	case cur != "":
		lines = append(lines, fmt.Sprintf("%s %s", r.theme.Muted.Render("Current room:"), cur))
	case p.CompletedAt != nil:
		lines = append(lines, r.theme.Pass.Render("All rooms completed."))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		r.theme.Header.Render(title),
		r.theme.Panel.Render(strings.Join(lines, "\n")),
	)
}

func (r *Renderer) statusBadge(s progress.Status) string {
	switch s {
	case progress.StatusCompleted:
		return r.theme.Pass.Render("[done]")
	case progress.StatusInProgress:
		return r.theme.Pending.Render("[open]")
	default:
		return r.theme.Locked.Render("[lock]")
	}
}

func (r *Renderer) detail(rp progress.RoomProgress) string {
	var parts []string
	if rp.Score != nil {
		parts = append(parts, fmt.Sprintf("score %d", *rp.Score))
	}
	if rp.TimeTakenSec != nil {
		parts = append(parts, fmt.Sprintf("%ds", *rp.TimeTakenSec))
	}
	if rp.Attempts > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", rp.Attempts))
	}
	if rp.HintsUsed > 0 {
		parts = append(parts, fmt.Sprintf("%d hints", rp.HintsUsed))
	}
	if len(parts) == 0 {
		return ""
	}
	return r.theme.Muted.Render("(" + strings.Join(parts, ", ") + ")")
}

// Room shows the task of a single room with the ids a player can submit.
func (r *Renderer) Room(room rooms.Room) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.theme.Title.Render(room.Title+" - "+room.Value))
	switch task := room.Task.(type) {
	case *rooms.ReorderTask:
		b.WriteString(task.Instruction + "\n")
		fmt.Fprintf(&b, "Items: %s\n", strings.Join(task.Items, ", "))
	case *rooms.TimedChoiceTask:
		b.WriteString(task.Instruction + "\n")
		fmt.Fprintf(&b, "Time limit: %ds\n", task.TimeLimitSeconds)
		for _, c := range task.Choices {
			fmt.Fprintf(&b, "  %s  %s\n", r.theme.Accent.Render(c.ID), c.Label)
		}
	case *rooms.MultiStepTask:
		b.WriteString(task.Instruction + "\n")
		for i, step := range task.Steps {
			fmt.Fprintf(&b, "Step %d: %s\n", i+1, step.Instruction)
			for _, c := range step.Choices {
				fmt.Fprintf(&b, "  %s  %s\n", r.theme.Accent.Render(c.ID), c.Label)
			}
		}
	case *rooms.MatchingChoiceTask:
		b.WriteString(task.Instruction + "\n")
		for _, p := range task.Pairs {
			fmt.Fprintf(&b, "  %s -> %s\n", p.Left, p.Right)
		}
		b.WriteString("Power-ups:\n")
		for _, c := range task.PowerUpChoices {
			fmt.Fprintf(&b, "  %s  %s\n", r.theme.Accent.Render(c.ID), c.Label)
		}
	case *rooms.ChoiceFinalTask:
		b.WriteString(task.Instruction + "\n")
		for _, c := range task.Choices {
			fmt.Fprintf(&b, "  %s  %s\n", r.theme.Accent.Render(c.ID), c.Label)
		}
		fmt.Fprintf(&b, "Final: %s\n", task.FinalPuzzle.Instruction)
		for _, c := range task.FinalPuzzle.Choices {
			fmt.Fprintf(&b, "  %s  %s\n", r.theme.Accent.Render(c.ID), c.Label)
		}
	}
	return b.String()
}

func (r *Renderer) Result(res engine.Result) string {
	if !res.Success {
		return r.theme.Fail.Render("✗ "+res.Message) + "\n"
	}
	var b strings.Builder
	b.WriteString(r.theme.Pass.Render("✓ " + res.Message))
	b.WriteString("\n")
	if res.Learning != "" {
		b.WriteString(r.theme.Info.Render(res.Learning))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Score: %d\n", res.Score)
	if ev := res.AuxiliaryEvent; ev != nil {
		fmt.Fprintf(&b, "\n%s %s\n", r.theme.Title.Render("Bonus:"), ev.Instruction)
		for _, c := range ev.Choices {
			fmt.Fprintf(&b, "  %s  %s\n", r.theme.Accent.Render(c.ID), c.Label)
		}
	}
	return b.String()
}
