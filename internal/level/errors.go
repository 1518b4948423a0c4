package level

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedUnit matches every *MalformedUnitError via errors.Is.
	ErrMalformedUnit = errors.New("malformed unit")

	// ErrInvalidDocument is returned when a level document fails to decode
	// or does not match the level schema.
	ErrInvalidDocument = errors.New("invalid level document")

	// ErrUnsupportedVersion is returned for a schemaVersion with a major
	// version this build does not understand.
	ErrUnsupportedVersion = errors.New("unsupported level schema version")

	// ErrNoUnits is returned when a level ends up with no playable units.
	ErrNoUnits = errors.New("level has no units")
)

// MalformedUnitError describes one unit that could not be normalized.
type MalformedUnitError struct {
	Ordinal int
	Field   string
	Reason  string
}

func (e *MalformedUnitError) Error() string {
	return fmt.Sprintf("unit %d: %s: %s", e.Ordinal, e.Field, e.Reason)
}

func (e *MalformedUnitError) Is(target error) bool {
	return target == ErrMalformedUnit
}

func malformed(ordinal int, field, format string, args ...any) *MalformedUnitError {
	return &MalformedUnitError{Ordinal: ordinal, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// LoadError reports why a level document was refused. Err carries a
// document-level failure; Units lists every malformed unit.
type LoadError struct {
	Name  string
	Err   error
	Units []*MalformedUnitError
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load level %q", e.Name)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if n := len(e.Units); n > 0 {
		fmt.Fprintf(&b, ": %d malformed unit(s)", n)
		for _, u := range e.Units {
			b.WriteString("; ")
			b.WriteString(u.Error())
		}
	}
	return b.String()
}

func (e *LoadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Units)+1)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	for _, u := range e.Units {
		errs = append(errs, u)
	}
	return errs
}
