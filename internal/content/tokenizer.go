package content

import (
	"fmt"
	"regexp"
	"strings"
)

// Match is one delimited math region found by a MathDelimiterStyle.
// Start and End are byte offsets of the whole match, delimiters included.
type Match struct {
	Start int
	End   int
	Kind  Kind
	Value string
}

// MathDelimiterStyle finds math regions in a raw content string.
// Implementations must return non-overlapping matches in increasing order.
type MathDelimiterStyle interface {
	Name() string
	Matches(raw string) []Match
}

// regexStyle matches math regions with one non-greedy pattern. Each capture
// group corresponds to one entry in kinds.
type regexStyle struct {
	name  string
	re    *regexp.Regexp
	kinds []Kind
}

func (s regexStyle) Name() string { return s.name }

func (s regexStyle) Matches(raw string) []Match {
	locs := s.re.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		m := Match{Start: loc[0], End: loc[1]}
		for g, kind := range s.kinds {
			lo, hi := loc[2+2*g], loc[3+2*g]
			if lo < 0 {
				continue
			}
			m.Kind = kind
			m.Value = raw[lo:hi]
			break
		}
		out = append(out, m)
	}
	return out
}

var (
	// EscapedStyle is the canonical grammar: \( ... \) for inline math and
	// \[ ... \] for display math.
	EscapedStyle MathDelimiterStyle = regexStyle{
		name:  "escaped",
		re:    regexp.MustCompile(`(?s)\\\((.*?)\\\)|\\\[(.*?)\\\]`),
		kinds: []Kind{KindInlineMath, KindBlockMath},
	}

	// BraceStyle is the legacy grammar where {{ ... }} marks inline math.
	BraceStyle MathDelimiterStyle = regexStyle{
		name:  "brace",
		re:    regexp.MustCompile(`(?s)\{\{(.*?)\}\}`),
		kinds: []Kind{KindInlineMath},
	}
)

// StyleByName returns the delimiter style registered under name.
// An empty name selects EscapedStyle.
func StyleByName(name string) (MathDelimiterStyle, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EscapedStyle.Name():
		return EscapedStyle, nil
	case BraceStyle.Name():
		return BraceStyle, nil
	default:
		return nil, fmt.Errorf("unknown math delimiter style %q", name)
	}
}

// imageExtensions are the suffixes that turn a standalone text part into an
// image reference.
var imageExtensions = []string{".png", ".jpg", ".jpeg"}

// Tokenizer splits raw content strings into typed parts using one
// MathDelimiterStyle. The zero value uses EscapedStyle.
type Tokenizer struct {
	style MathDelimiterStyle
}

// NewTokenizer returns a tokenizer bound to style.
func NewTokenizer(style MathDelimiterStyle) Tokenizer {
	return Tokenizer{style: style}
}

// Style returns the delimiter style in use.
func (t Tokenizer) Style() MathDelimiterStyle {
	if t.style == nil {
		return EscapedStyle
	}
	return t.style
}

// Tokenize scans raw left to right and returns its parts in source order.
// Unterminated delimiters stay in the surrounding text part. Empty parts are
// dropped, so an empty input yields no parts. Only a raw string with no math
// at all can be an image reference.
func (t Tokenizer) Tokenize(raw string) []Part {
	matches := t.Style().Matches(raw)
	if len(matches) == 0 {
		if ref, ok := imageRef(raw); ok {
			return []Part{Image(ref)}
		}
	}

	var parts []Part
	pos := 0
	for _, m := range matches {
		parts = appendLiteral(parts, raw[pos:m.Start])
		if m.Value != "" {
			parts = append(parts, Part{Kind: m.Kind, Value: m.Value})
		}
		pos = m.End
	}
	return appendLiteral(parts, raw[pos:])
}

// Tokenize splits raw with the canonical escaped-parenthesis style.
func Tokenize(raw string) []Part {
	return Tokenizer{}.Tokenize(raw)
}

func appendLiteral(parts []Part, s string) []Part {
	if s == "" {
		return parts
	}
	return append(parts, Text(s))
}

// imageRef reports whether a whole literal names an image file.
func imageRef(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return trimmed, true
		}
	}
	return "", false
}
