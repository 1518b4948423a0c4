package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // id > After
	Before  int64     // id < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	LevelID string    // exact level match when set
}

// CompletionEventData captures one finished level session.
type CompletionEventData struct {
	LevelID          string
	SessionID        string
	CompletedAt      time.Time
	InteractiveCount int
	CorrectCount     int
}

// CompletionEventRecord is a stored completion event.
type CompletionEventRecord struct {
	ID               int64 // insertion order
	EventID          string
	Timestamp        time.Time
	LevelID          string
	SessionID        string
	InteractiveCount int
	CorrectCount     int
}

// EventRepo provides append and query access to stored events.
type EventRepo interface {
	// AppendCompletion records a level completion. Appending the same
	// session twice keeps the first record.
	AppendCompletion(ctx context.Context, data CompletionEventData) error

	// Completions returns completion events, newest first.
	Completions(ctx context.Context, opts QueryOpts) ([]CompletionEventRecord, error)

	// CompletedLevels maps each completed level id to its latest completion time.
	CompletedLevels(ctx context.Context) (map[string]time.Time, error)
}
