package level

import (
	"fmt"
	"slices"

	"github.com/walma-app/walma/internal/content"
)

// UnitKind distinguishes informational slides from interactive questions.
type UnitKind string

const (
	UnitSlide    UnitKind = "slide"
	UnitQuestion UnitKind = "question"
)

// Kind is the kind of a whole level.
type Kind string

const (
	KindReview Kind = "review"
	KindQuiz   Kind = "quiz"
)

// UnitKind returns the kind of unit a level of this kind holds.
func (k Kind) UnitKind() UnitKind {
	if k == KindQuiz {
		return UnitQuestion
	}
	return UnitSlide
}

// Unit is one slide or one question. It is built once at load time and
// never changes; accessors hand out copies.
type Unit struct {
	ordinal       int
	kind          UnitKind
	parts         []content.Part
	options       []string
	optionParts   [][]content.Part
	correctAnswer string
	explanation   []content.Part
}

// NewSlide builds an informational unit.
func NewSlide(ordinal int, parts []content.Part) (Unit, error) {
	if !content.AnyRenderable(parts) {
		return Unit{}, malformed(ordinal, "parts", "no renderable content")
	}
	return Unit{ordinal: ordinal, kind: UnitSlide, parts: slices.Clone(parts)}, nil
}

// NewQuestion builds an interactive unit. Options are tokenized with tok for
// display but compared by their raw value.
func NewQuestion(ordinal int, parts []content.Part, options []string, correctAnswer string, explanation []content.Part, tok content.Tokenizer) (Unit, error) {
	if !content.AnyRenderable(parts) {
		return Unit{}, malformed(ordinal, "parts", "no renderable content")
	}
	if len(options) == 0 {
		return Unit{}, malformed(ordinal, "options", "no options")
	}
	seen := make(map[string]struct{}, len(options))
	optionParts := make([][]content.Part, len(options))
	for i, opt := range options {
		if opt == "" {
			return Unit{}, malformed(ordinal, "options", "option %d is empty", i)
		}
		if _, dup := seen[opt]; dup {
			return Unit{}, malformed(ordinal, "options", "duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
		optionParts[i] = tok.Tokenize(opt)
	}
	if _, ok := seen[correctAnswer]; !ok {
		return Unit{}, malformed(ordinal, "correctAnswer", "%q is not one of the options", correctAnswer)
	}
	return Unit{
		ordinal:       ordinal,
		kind:          UnitQuestion,
		parts:         slices.Clone(parts),
		options:       slices.Clone(options),
		optionParts:   optionParts,
		correctAnswer: correctAnswer,
		explanation:   slices.Clone(explanation),
	}, nil
}

func (u Unit) Ordinal() int { return u.ordinal }
func (u Unit) Kind() UnitKind { return u.kind }
func (u Unit) Interactive() bool { return len(u.options) > 0 }

func (u Unit) Parts() []content.Part { return slices.Clone(u.parts) }
func (u Unit) Options() []string { return slices.Clone(u.options) }
func (u Unit) Explanation() []content.Part { return slices.Clone(u.explanation) }
func (u Unit) CorrectAnswer() string { return u.correctAnswer }

// OptionParts returns the tokenized display form of option i.
func (u Unit) OptionParts(i int) []content.Part {
	if i < 0 || i >= len(u.optionParts) {
		return nil
	}
	return slices.Clone(u.optionParts[i])
}

// HasOption reports whether opt is exactly one of the unit's options.
func (u Unit) HasOption(opt string) bool {
	return slices.Contains(u.options, opt)
}

func (u Unit) withOrdinal(ordinal int) Unit {
	u.ordinal = ordinal
	return u
}

func (u Unit) String() string {
	return fmt.Sprintf("%s#%d", u.kind, u.ordinal)
}

// Level is a named, ordered sequence of units presented as one session.
type Level struct {
	ID             string
	Kind           Kind
	Title          string
	Description    string
	DiagramRequest string
	SchemaVersion  string
	MathStyle      string
	Units          []Unit

	// Skipped lists units dropped under LoadSkipMalformed.
	Skipped []*MalformedUnitError
}

// DisplayTitle returns the title, falling back to the id.
func (l *Level) DisplayTitle() string {
	if l.Title != "" {
		return l.Title
	}
	return l.ID
}

// InteractiveCount returns how many units ask a question.
func (l *Level) InteractiveCount() int {
	n := 0
	for _, u := range l.Units {
		if u.Interactive() {
			n++
		}
	}
	return n
}
