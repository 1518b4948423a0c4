package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/walma-app/walma/internal/ui/theme"
)

// OptionList renders the options of a question. It holds no playback
// state of its own: the cursor is UI-only, and Chosen/Submitted/Correct
// mirror the sequencer.
type OptionList struct {
	Labels    []string // rendered option content
	Values    []string // raw option values
	Cursor    int
	Chosen    string
	Submitted bool
	Correct   string // revealed after submission
}

// MoveUp moves the cursor up, stopping at the first option.
func (o *OptionList) MoveUp() {
	if o.Cursor > 0 {
		o.Cursor--
	}
}

// MoveDown moves the cursor down, stopping at the last option.
func (o *OptionList) MoveDown() {
	if o.Cursor < len(o.Values)-1 {
		o.Cursor++
	}
}

// Current returns the value under the cursor.
func (o OptionList) Current() (string, bool) {
	if o.Cursor < 0 || o.Cursor >= len(o.Values) {
		return "", false
	}
	return o.Values[o.Cursor], true
}

// View renders the list.
func (o OptionList) View() string {
	var b strings.Builder
	for i, label := range o.Labels {
		value := o.Values[i]

		marker := "  "
		if i == o.Cursor && !o.Submitted {
			marker = "▸ "
		}
		if value == o.Chosen {
			marker = "● "
		}

		num := fmt.Sprintf("%d) ", i+1)
		style := theme.Unselected
		switch {
		case o.Submitted && value == o.Correct:
			style = theme.Correct
		case o.Submitted && value == o.Chosen:
			style = theme.Incorrect
		case o.Submitted:
			style = theme.Dimmed
		case i == o.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(marker+num) + indent(label, lipgloss.Width(marker+num)) + "\n")
	}
	return b.String()
}

// indent aligns continuation lines of a multi-line label under its first line.
func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	return strings.ReplaceAll(s, "\n", "\n"+pad)
}
