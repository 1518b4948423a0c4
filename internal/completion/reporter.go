package completion

import (
	"context"
	"fmt"
	"time"
)

// Record is the fact that a learner finished a level.
type Record struct {
	LevelID     string
	SessionID   string
	CompletedAt time.Time

	// InteractiveCount and CorrectCount summarize first submissions.
	InteractiveCount int
	CorrectCount     int
}

// Reporter persists completion records. Implementations must be safe to call
// from a goroutine other than the one driving playback.
type Reporter interface {
	ReportCompletion(ctx context.Context, rec Record) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, rec Record) error

func (f ReporterFunc) ReportCompletion(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// ReportError is returned when a completion could not be recorded.
type ReportError struct {
	LevelID string
	Err     error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report completion of level %q: %v", e.LevelID, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

// Discard is a Reporter that accepts every record and stores nothing.
var Discard Reporter = ReporterFunc(func(context.Context, Record) error { return nil })
