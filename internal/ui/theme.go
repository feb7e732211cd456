package ui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Panel   lipgloss.Style
	Accent  lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Pending lipgloss.Style
	Locked  lipgloss.Style
	Muted   lipgloss.Style
	Info    lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant("modern_arcade")
}

// ThemeForVariant resolves a style variant name. "plain" disables colour
// and borders; unknown names fall back to the default.
func ThemeForVariant(variant string) Theme {
	switch variant {
	case "plain":
		return plainTheme()
	case "retro_terminal":
		return retroTerminalTheme()
	default:
		return modernArcadeTheme()
	}
}

func modernArcadeTheme() Theme {
	amber := lipgloss.Color("#FFC857")
	mint := lipgloss.Color("#67F0A8")
	brick := lipgloss.Color("#FF6F91")
	ink := lipgloss.Color("#0E1420")
	powder := lipgloss.Color("#EAF2FF")
	blue := lipgloss.Color("#5EEBFF")
	border := lipgloss.Color("#4B5F8A")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(ink).
			Foreground(powder).
			Bold(true).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		Accent:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		Pass:    lipgloss.NewStyle().Foreground(mint).Bold(true),
		Fail:    lipgloss.NewStyle().Foreground(brick).Bold(true),
		Pending: lipgloss.NewStyle().Foreground(amber),
		Locked:  lipgloss.NewStyle().Foreground(border),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#9CAAC6")),
		Info:    lipgloss.NewStyle().Foreground(blue),
	}
}

func retroTerminalTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#1F5C2F")
	glow := lipgloss.Color("#C5F7C4")

	return Theme{
		Header:  lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Title:   lipgloss.NewStyle().Foreground(amber).Bold(true),
		Panel:   lipgloss.NewStyle().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(amber).Padding(0, 1),
		Accent:  lipgloss.NewStyle().Foreground(lime).Bold(true),
		Pass:    lipgloss.NewStyle().Foreground(lime).Bold(true),
		Fail:    lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending: lipgloss.NewStyle().Foreground(amber),
		Locked:  lipgloss.NewStyle().Foreground(forest),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		Info:    lipgloss.NewStyle().Foreground(lime),
	}
}

func plainTheme() Theme {
	s := lipgloss.NewStyle()
	return Theme{
		Header: s, Title: s, Panel: s, Accent: s, Pass: s,
		Fail: s, Pending: s, Locked: s, Muted: s, Info: s,
	}
}
