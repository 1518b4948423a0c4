package level

import (
	"strings"

	"github.com/walma-app/walma/internal/content"
)

// Extraction selects how a raw field value becomes content parts.
type Extraction int

const (
	// Tokenized accepts a string or an array of strings; each string is
	// tokenized on its own and the results concatenated.
	Tokenized Extraction = iota
	// Equation accepts raw LaTeX. Without delimiters the whole value is one
	// inline math part.
	Equation
	// ImageRef accepts an image reference string.
	ImageRef
)

// FieldRule extracts one named field.
type FieldRule struct {
	Field   string
	Extract Extraction
}

// Variant is one authoring shape: an ordered list of field rules.
type Variant []FieldRule

// present reports whether any field of the variant is set in raw.
func (v Variant) present(raw map[string]any) bool {
	for _, r := range v {
		if val, ok := raw[r.Field]; ok && val != nil {
			return true
		}
	}
	return false
}

// DefaultPromptVariants lists the prompt shapes in priority order.
var DefaultPromptVariants = []Variant{
	{{Field: "questionParts", Extract: Tokenized}},
	{{Field: "content", Extract: Tokenized}, {Field: "image", Extract: ImageRef}},
	{
		{Field: "contentBeforeEquation", Extract: Tokenized},
		{Field: "inlineEquation", Extract: Equation},
		{Field: "contentAfterEquation", Extract: Tokenized},
		{Field: "image", Extract: ImageRef},
	},
}

// DefaultExplanationVariants lists the explanation shapes in priority order.
var DefaultExplanationVariants = []Variant{
	{{Field: "explanationParts", Extract: Tokenized}},
	{{Field: "explanation", Extract: Tokenized}},
}

// Normalizer turns heterogeneous raw unit records into Units.
type Normalizer struct {
	Tokenizer   content.Tokenizer
	Prompt      []Variant
	Explanation []Variant
}

// NewNormalizer returns a normalizer with the default variants.
func NewNormalizer(tok content.Tokenizer) *Normalizer {
	return &Normalizer{
		Tokenizer:   tok,
		Prompt:      DefaultPromptVariants,
		Explanation: DefaultExplanationVariants,
	}
}

// Normalize builds the unit at ordinal from one raw record.
func (n *Normalizer) Normalize(raw map[string]any, kind UnitKind, ordinal int) (Unit, error) {
	parts, err := n.extract(raw, n.Prompt, ordinal)
	if err != nil {
		return Unit{}, err
	}
	if kind != UnitQuestion {
		return NewSlide(ordinal, parts)
	}

	options, err := stringList(raw, "options", ordinal)
	if err != nil {
		return Unit{}, err
	}
	correct, ok := raw["correctAnswer"].(string)
	if !ok {
		return Unit{}, malformed(ordinal, "correctAnswer", "missing or not a string")
	}
	explanation, err := n.extract(raw, n.Explanation, ordinal)
	if err != nil {
		return Unit{}, err
	}
	return NewQuestion(ordinal, parts, options, correct, explanation, n.Tokenizer)
}

// extract applies the first present variant.
func (n *Normalizer) extract(raw map[string]any, variants []Variant, ordinal int) ([]content.Part, error) {
	for _, v := range variants {
		if !v.present(raw) {
			continue
		}
		var parts []content.Part
		for _, rule := range v {
			val, ok := raw[rule.Field]
			if !ok || val == nil {
				continue
			}
			got, err := n.apply(rule, val, ordinal)
			if err != nil {
				return nil, err
			}
			parts = append(parts, got...)
		}
		return parts, nil
	}
	return nil, nil
}

func (n *Normalizer) apply(rule FieldRule, val any, ordinal int) ([]content.Part, error) {
	switch rule.Extract {
	case Equation:
		s, ok := val.(string)
		if !ok {
			return nil, malformed(ordinal, rule.Field, "expected a string")
		}
		parts := n.Tokenizer.Tokenize(s)
		for _, p := range parts {
			if p.IsMath() {
				return parts, nil
			}
		}
		if s == "" {
			return nil, nil
		}
		return []content.Part{content.InlineMath(s)}, nil

	case ImageRef:
		s, ok := val.(string)
		if !ok {
			return nil, malformed(ordinal, rule.Field, "expected a string")
		}
		if ref := strings.TrimSpace(s); ref != "" {
			return []content.Part{content.Image(ref)}, nil
		}
		return nil, nil

	default:
		switch v := val.(type) {
		case string:
			return n.Tokenizer.Tokenize(v), nil
		case []any:
			var parts []content.Part
			for i, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, malformed(ordinal, rule.Field, "element %d is not a string", i)
				}
				parts = append(parts, n.Tokenizer.Tokenize(s)...)
			}
			return parts, nil
		case []string:
			var parts []content.Part
			for _, s := range v {
				parts = append(parts, n.Tokenizer.Tokenize(s)...)
			}
			return parts, nil
		default:
			return nil, malformed(ordinal, rule.Field, "expected a string or a list of strings")
		}
	}
}

func stringList(raw map[string]any, field string, ordinal int) ([]string, error) {
	switch v := raw[field].(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, malformed(ordinal, field, "element %d is not a string", i)
			}
			out[i] = s
		}
		return out, nil
	case nil:
		return nil, malformed(ordinal, field, "missing")
	default:
		return nil, malformed(ordinal, field, "expected a list of strings")
	}
}
