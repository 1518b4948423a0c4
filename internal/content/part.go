package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies what a Part holds and how it is rendered.
type Kind string

const (
	KindText       Kind = "text"
	KindInlineMath Kind = "inline_math"
	KindBlockMath  Kind = "block_math"
	KindImage      Kind = "image"
)

// Part is one typed, indivisible span of a unit's content.
//
// Value holds the literal text, the raw LaTeX source, or the image reference
// depending on Kind. Math values are kept byte-for-byte as authored so the
// typesetting collaborator receives exactly what the author wrote.
type Part struct {
	Kind  Kind
	Value string
}

// Text returns a text part.
func Text(v string) Part { return Part{Kind: KindText, Value: v} }

// InlineMath returns an inline math part.
func InlineMath(v string) Part { return Part{Kind: KindInlineMath, Value: v} }

// BlockMath returns a display math part.
func BlockMath(v string) Part { return Part{Kind: KindBlockMath, Value: v} }

// Image returns an image reference part.
func Image(ref string) Part { return Part{Kind: KindImage, Value: ref} }

// IsMath reports whether the part is handed to the typesetter.
func (p Part) IsMath() bool {
	return p.Kind == KindInlineMath || p.Kind == KindBlockMath
}

// Renderable reports whether the part would put something visible on screen.
// Whitespace-only text is not renderable on its own.
func (p Part) Renderable() bool {
	if p.Value == "" {
		return false
	}
	if p.Kind == KindText {
		return strings.TrimSpace(p.Value) != ""
	}
	return true
}

// String renders the part back to its canonical delimited source form.
func (p Part) String() string {
	switch p.Kind {
	case KindInlineMath:
		return `\(` + p.Value + `\)`
	case KindBlockMath:
		return `\[` + p.Value + `\]`
	default:
		return p.Value
	}
}

type partJSON struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

// MarshalJSON encodes image parts with a "ref" field and all others with "value".
func (p Part) MarshalJSON() ([]byte, error) {
	out := partJSON{Kind: p.Kind}
	if p.Kind == KindImage {
		out.Ref = p.Value
	} else {
		out.Value = p.Value
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *Part) UnmarshalJSON(data []byte) error {
	var in partJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case KindText, KindInlineMath, KindBlockMath:
		*p = Part{Kind: in.Kind, Value: in.Value}
	case KindImage:
		*p = Part{Kind: in.Kind, Value: in.Ref}
	default:
		return fmt.Errorf("unknown part kind %q", in.Kind)
	}
	return nil
}

// Join renders a sequence of parts back into one source string.
func Join(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.String())
	}
	return b.String()
}

// AnyRenderable reports whether at least one part is renderable.
func AnyRenderable(parts []Part) bool {
	for _, p := range parts {
		if p.Renderable() {
			return true
		}
	}
	return false
}

// Plain flattens parts into a single line for previews and list views.
// Math keeps its raw source and images show as their reference.
func Plain(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch p.Kind {
		case KindImage:
			b.WriteString("[" + p.Value + "]")
		default:
			b.WriteString(p.Value)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
