package mathrender

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/walma-app/walma/internal/content"
	"github.com/walma-app/walma/internal/level"
)

// Expr is one math part and the unit it appears in.
type Expr struct {
	Ordinal int
	Part    content.Part
}

// CollectMath returns the math parts of lvl in playback order: prompt, then
// options, then explanation, unit by unit. Repeats within a unit are dropped.
func CollectMath(lvl *level.Level) []Expr {
	seen := make(map[Expr]bool)
	var out []Expr
	for _, u := range lvl.Units {
		add := func(parts []content.Part) {
			for _, p := range parts {
				e := Expr{Ordinal: u.Ordinal(), Part: p}
				if p.IsMath() && !seen[e] {
					seen[e] = true
					out = append(out, e)
				}
			}
		}
		add(u.Parts())
		for i := range u.Options() {
			add(u.OptionParts(i))
		}
		add(u.Explanation())
	}
	return out
}

// BatchResult summarizes a RenderAll run.
type BatchResult struct {
	Written int
	Failed  []error
}

// RenderAll renders exprs into outDir, one "<name(expr)>.svg" file each.
// Per-expression RenderErrors are collected and rendering continues; any
// other error stops the batch.
func RenderAll(ctx context.Context, r Renderer, exprs []Expr, name func(Expr) string, outDir string) (BatchResult, error) {
	var res BatchResult
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	for _, e := range exprs {
		svg, err := r.Render(ctx, e.Part.Value, e.Part.Kind == content.KindBlockMath)
		if err != nil {
			var re *RenderError
			if errors.As(err, &re) {
				res.Failed = append(res.Failed, err)
				continue
			}
			return res, err
		}
		path := filepath.Join(outDir, name(e)+".svg")
		if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
			return res, fmt.Errorf("write %s: %w", path, err)
		}
		res.Written++
	}
	return res, nil
}
