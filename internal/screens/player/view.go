package player

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/walma-app/walma/internal/playback"
	"github.com/walma-app/walma/internal/ui/components"
	"github.com/walma-app/walma/internal/ui/theme"
)

func (p *PlayerScreen) View(width, height int) string {
	if p.err != nil {
		return theme.Incorrect.Render("Cannot play this level: " + p.err.Error())
	}
	if p.seq.Terminal() {
		return p.renderComplete(width)
	}

	inner := min(width-6, 100)
	done, total := p.seq.Progress()
	bar := components.ProgressBar{Done: done, Total: total, Width: inner}.View()

	u, _ := p.seq.Current()
	st := p.seq.Snapshot()

	var b strings.Builder
	b.WriteString(components.RenderParts(u.Parts(), p.deps.Resolver, inner))
	if u.Interactive() {
		b.WriteString("\n\n")
		b.WriteString(p.options.View())
	}
	if st.Checked {
		b.WriteString("\n")
		if st.IsCorrect {
			b.WriteString(theme.Correct.Render("✓ Correct"))
		} else {
			b.WriteString(theme.Incorrect.Render("✗ Not quite"))
		}
	}
	if st.ExplanationVisible {
		if expl := u.Explanation(); len(expl) > 0 {
			b.WriteString("\n\n")
			b.WriteString(theme.Explanation.Render(components.RenderParts(expl, p.deps.Resolver, inner-3)))
		} else {
			b.WriteString("\n\n" + theme.Hint.Render("No explanation for this one."))
		}
	}

	card := theme.Card.Width(inner + 4).Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, "", "  "+bar, "", card)
}

func (p *PlayerScreen) renderComplete(width int) string {
	st := p.seq.Snapshot()
	if st.Phase == playback.PhaseAbandoned {
		return theme.Hint.Render("Level left before the end. Nothing was recorded.")
	}

	lines := []string{
		theme.Title.Render("Level complete"),
		"",
		theme.Body.Render(p.seq.Level().DisplayTitle()),
	}
	if n := p.seq.Level().InteractiveCount(); n > 0 {
		lines = append(lines, theme.Body.Render(fmt.Sprintf("%d of %d answered correctly", st.CorrectCount, n)))
	}
	lines = append(lines, "")
	switch {
	case !p.reportDone:
		lines = append(lines, theme.Hint.Render("Saving progress..."))
	case p.reportErr != nil:
		lines = append(lines, theme.Incorrect.Render("Progress not saved: "+p.reportErr.Error()))
	default:
		lines = append(lines, theme.Correct.Render("Progress saved"))
	}

	return lipgloss.NewStyle().Width(width).Padding(2, 4).Render(strings.Join(lines, "\n"))
}
