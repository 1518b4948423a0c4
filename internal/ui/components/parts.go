package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/content"
	"github.com/walma-app/walma/internal/ui/theme"
)

// RenderParts lays out content parts for the terminal. Text wraps to width,
// inline math stays in the flow, block math and images get their own lines.
// LaTeX is shown exactly as stored.
func RenderParts(parts []content.Part, resolver assets.Resolver, width int) string {
	var (
		lines []string
		line  strings.Builder
	)
	flush := func() {
		if line.Len() > 0 {
			lines = append(lines, line.String())
			line.Reset()
		}
	}
	for _, p := range parts {
		switch p.Kind {
		case content.KindText:
			line.WriteString(theme.Body.Render(p.Value))
		case content.KindInlineMath:
			line.WriteString(theme.InlineMath.Render(p.Value))
		case content.KindBlockMath:
			flush()
			lines = append(lines, theme.BlockMath.Render(p.Value))
		case content.KindImage:
			flush()
			lines = append(lines, theme.Image.Render("[image] "+string(resolver.Resolve(p.Value))))
		}
	}
	flush()

	out := strings.Join(lines, "\n")
	if width > 0 {
		out = lipgloss.NewStyle().Width(width).Render(out)
	}
	return out
}
