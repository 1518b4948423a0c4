package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/oklog/ulid/v2"
)

// eventRepo implements EventRepo with ent's SQL builder over database/sql.
// The autoincrement id orders events; timestamps come from the reporter's
// clock and may repeat.
type eventRepo struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newEventRepo(db *sql.DB) *eventRepo {
	return &eventRepo{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (r *eventRepo) newID(ts time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(ts), r.entropy).String()
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *eventRepo) AppendCompletion(ctx context.Context, data CompletionEventData) error {
	ts := data.CompletedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	eventID := r.newID(ts)
	sessionID := data.SessionID
	if sessionID == "" {
		sessionID = eventID
	}

	query, args := builder().
		Insert(CompletionEventsTable.Name).
		Columns(colEventID, colTimestamp, colLevelID, colSessionID, colInteractiveCount, colCorrectCount).
		Values(eventID, ts.UnixMilli(), data.LevelID, sessionID, data.InteractiveCount, data.CorrectCount).
		OnConflict(entsql.ConflictColumns(colSessionID), entsql.DoNothing()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save completion event: %w", err)
	}
	return nil
}

func (r *eventRepo) Completions(ctx context.Context, opts QueryOpts) ([]CompletionEventRecord, error) {
	sel := builder().
		Select(colID, colEventID, colTimestamp, colLevelID, colSessionID, colInteractiveCount, colCorrectCount).
		From(entsql.Table(CompletionEventsTable.Name))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT(colID, opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT(colID, opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE(colTimestamp, opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE(colTimestamp, opts.To.UnixMilli()))
	}
	if opts.LevelID != "" {
		preds = append(preds, entsql.EQ(colLevelID, opts.LevelID))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc(colID))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completion events: %w", err)
	}
	defer rows.Close()

	var out []CompletionEventRecord
	for rows.Next() {
		var (
			rec CompletionEventRecord
			ms  int64
		)
		if err := rows.Scan(&rec.ID, &rec.EventID, &ms, &rec.LevelID, &rec.SessionID, &rec.InteractiveCount, &rec.CorrectCount); err != nil {
			return nil, fmt.Errorf("scan completion event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ms)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completion events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) CompletedLevels(ctx context.Context) (map[string]time.Time, error) {
	query, args := builder().
		Select(colLevelID, entsql.Max(colTimestamp)).
		From(entsql.Table(CompletionEventsTable.Name)).
		GroupBy(colLevelID).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completed levels: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			levelID string
			ms      int64
		)
		if err := rows.Scan(&levelID, &ms); err != nil {
			return nil, fmt.Errorf("scan completed level: %w", err)
		}
		out[levelID] = time.UnixMilli(ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed levels: %w", err)
	}
	return out, nil
}
