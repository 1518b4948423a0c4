package components

import (
	"strings"
	"testing"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/content"
)

func TestRenderParts_KeepsLatexVerbatim(t *testing.T) {
	parts := []content.Part{
		content.Text("Solve "),
		content.InlineMath(`\frac{dy}{dx} = ky`),
		content.BlockMath(`y = Ce^{kt}`),
		content.Image("week9/growth.png"),
	}
	out := RenderParts(parts, assets.NewResolver("/srv/assets"), 0)

	for _, want := range []string{`\frac{dy}{dx} = ky`, `y = Ce^{kt}`, "/srv/assets/week9/growth.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderParts output missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("line breaks = %d, want 2 (block math and image on their own lines)", got)
	}
}

func TestOptionList_Cursor(t *testing.T) {
	o := OptionList{Labels: []string{"a", "b"}, Values: []string{"a", "b"}}

	o.MoveUp()
	if o.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", o.Cursor)
	}
	o.MoveDown()
	o.MoveDown()
	if o.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1", o.Cursor)
	}
	if v, ok := o.Current(); !ok || v != "b" {
		t.Errorf("Current() = %q, %v, want b, true", v, ok)
	}
}

func TestOptionList_View(t *testing.T) {
	o := OptionList{
		Labels:    []string{"one", "two"},
		Values:    []string{"1", "2"},
		Chosen:    "1",
		Submitted: true,
		Correct:   "2",
	}
	view := o.View()
	if !strings.Contains(view, "1) ") || !strings.Contains(view, "2) ") {
		t.Errorf("View() missing numbering:\n%s", view)
	}
	if !strings.Contains(view, "● ") {
		t.Errorf("View() missing chosen marker:\n%s", view)
	}
}

func TestProgressBar_Fraction(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 4, 0},
		{2, 4, 0.5},
		{5, 4, 1},
		{1, 0, 0},
	}
	for _, tt := range tests {
		p := ProgressBar{Done: tt.done, Total: tt.total, Width: 20}
		if got := p.Fraction(); got != tt.want {
			t.Errorf("Fraction(%d/%d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
		if !strings.Contains(p.View(), "/") {
			t.Errorf("View() missing counter")
		}
	}
}

func TestFilterInput_Match(t *testing.T) {
	f := NewFilterInput("filter")
	if !f.Match("anything") {
		t.Error("empty filter should match")
	}
	f.Model.SetValue("WEEK9")
	if !f.Match("calc2_week9_level1") {
		t.Error("filter should match case-insensitively")
	}
	if f.Match("dynsys", "Flows") {
		t.Error("filter should not match unrelated fields")
	}
}
