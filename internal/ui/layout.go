package ui

type LayoutMode int

const (
	LayoutCompact LayoutMode = iota
	LayoutWide
)

// DetermineLayoutMode picks the wide layout, which adds the value column,
// once the terminal is at least 100 columns.
func DetermineLayoutMode(cols int) LayoutMode {
	if cols >= 100 {
		return LayoutWide
	}
	return LayoutCompact
}
