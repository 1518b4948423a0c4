package content

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Part
	}{
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
		{
			name: "text only",
			raw:  "What is the derivative?",
			want: []Part{Text("What is the derivative?")},
		},
		{
			name: "inline math",
			raw:  `a \(x^2\) b`,
			want: []Part{Text("a "), InlineMath("x^2"), Text(" b")},
		},
		{
			name: "block math",
			raw:  `Evaluate \[\int_0^1 x\,dx\]`,
			want: []Part{Text("Evaluate "), BlockMath(`\int_0^1 x\,dx`)},
		},
		{
			name: "mixed inline and block",
			raw:  `\(f\) then \[g\]`,
			want: []Part{InlineMath("f"), Text(" then "), BlockMath("g")},
		},
		{
			name: "dangling opener stays literal",
			raw:  `\(unterminated`,
			want: []Part{Text(`\(unterminated`)},
		},
		{
			name: "math spans lines",
			raw:  "\\[a\n+ b\\]",
			want: []Part{BlockMath("a\n+ b")},
		},
		{
			name: "math is not trimmed",
			raw:  `\( x + 1 \)`,
			want: []Part{InlineMath(" x + 1 ")},
		},
		{
			name: "non-greedy matching",
			raw:  `\(a\) and \(b\)`,
			want: []Part{InlineMath("a"), Text(" and "), InlineMath("b")},
		},
		{
			name: "empty math dropped",
			raw:  `x\(\)y`,
			want: []Part{Text("x"), Text("y")},
		},
		{
			name: "image reference",
			raw:  "  week9/phase_portrait.PNG ",
			want: []Part{Image("week9/phase_portrait.PNG")},
		},
		{
			name: "image extension mid sentence is text",
			raw:  "see figure.png below",
			want: []Part{Text("see figure.png below")},
		},
		{
			name: "filename after math stays text",
			raw:  `Plot \(f(x)\) and compare with the sketch in fig.png`,
			want: []Part{Text("Plot "), InlineMath("f(x)"), Text(" and compare with the sketch in fig.png")},
		},
		{
			name: "brace delimiters ignored by escaped style",
			raw:  "{{x}}",
			want: []Part{Text("{{x}}")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTokenize_BraceStyle(t *testing.T) {
	tok := NewTokenizer(BraceStyle)

	got := tok.Tokenize(`solve {{x^2 = 4}} for \(x\)`)
	want := []Part{Text("solve "), InlineMath("x^2 = 4"), Text(` for \(x\)`)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}

	if got := tok.Tokenize("{{open"); !reflect.DeepEqual(got, []Part{Text("{{open")}) {
		t.Errorf("dangling brace: got %#v", got)
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	raw := `The slope \(m\) of \[y = mx + b\] is constant. graph.png`
	first := Tokenize(raw)
	for range 10 {
		if got := Tokenize(raw); !reflect.DeepEqual(got, first) {
			t.Fatalf("Tokenize not deterministic: %#v vs %#v", got, first)
		}
	}
}

func TestTokenize_RoundTrip(t *testing.T) {
	raws := []string{
		`a \(x^2\) b`,
		`\[\frac{dy}{dt} = ky\]`,
		`plain`,
		`\(unterminated`,
	}
	for _, raw := range raws {
		if got := Join(Tokenize(raw)); got != raw {
			t.Errorf("Join(Tokenize(%q)) = %q", raw, got)
		}
	}
}

func TestStyleByName(t *testing.T) {
	for _, name := range []string{"", "escaped", "ESCAPED"} {
		s, err := StyleByName(name)
		if err != nil || s.Name() != "escaped" {
			t.Errorf("StyleByName(%q) = %v, %v", name, s, err)
		}
	}
	if s, err := StyleByName("brace"); err != nil || s.Name() != "brace" {
		t.Errorf("StyleByName(brace) = %v, %v", s, err)
	}
	if _, err := StyleByName("dollar"); err == nil {
		t.Error("expected error for unknown style")
	}
}

func TestPart_Renderable(t *testing.T) {
	if Text("   \n").Renderable() {
		t.Error("whitespace text should not be renderable")
	}
	if !InlineMath(" ").Renderable() {
		t.Error("math with content should be renderable")
	}
	if AnyRenderable([]Part{Text(" "), Text("\t")}) {
		t.Error("AnyRenderable on whitespace parts should be false")
	}
	if !AnyRenderable([]Part{Text(" "), Image("a.png")}) {
		t.Error("AnyRenderable should see the image")
	}
}

func TestPart_JSON(t *testing.T) {
	data, err := json.Marshal([]Part{Text("hi"), Image("a.png")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"kind":"text","value":"hi"},{"kind":"image","ref":"a.png"}]`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var back []Part
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[1] != Image("a.png") {
		t.Errorf("image part = %#v", back[1])
	}

	var bad Part
	if err := json.Unmarshal([]byte(`{"kind":"video"}`), &bad); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPlain(t *testing.T) {
	got := Plain([]Part{Text("Find\n"), InlineMath("f'(x)"), Text("  from "), Image("g.png")})
	if got != "Find f'(x) from [g.png]" {
		t.Errorf("Plain = %q", got)
	}
}
