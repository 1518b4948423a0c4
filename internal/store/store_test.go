package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by TestOpen_FileDB.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpen_FileDB(t *testing.T) {
	p := filepath.Join(t.TempDir(), "walma.db")
	s, err := Open(p)
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestAutoMigrationCreatesTable(t *testing.T) {
	s := openTestStore(t)

	var name string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='completion_events'",
	).Scan(&name)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if name != "completion_events" {
		t.Errorf("table name = %q, want 'completion_events'", name)
	}
}

func TestAppendCompletion_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AppendCompletion(ctx, CompletionEventData{
		LevelID: "calc2_week9_level1", SessionID: "s1", CompletedAt: base,
		InteractiveCount: 3, CorrectCount: 2,
	}))
	require.NoError(t, repo.AppendCompletion(ctx, CompletionEventData{
		LevelID: "calc2_week9_review1", SessionID: "s2", CompletedAt: base.Add(time.Hour),
	}))
	require.NoError(t, repo.AppendCompletion(ctx, CompletionEventData{
		LevelID: "calc2_week9_level1", SessionID: "s3", CompletedAt: base.Add(2 * time.Hour),
		InteractiveCount: 3, CorrectCount: 3,
	}))

	recs, err := repo.Completions(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// Newest first.
	assert.Equal(t, "s3", recs[0].SessionID)
	assert.Equal(t, "s1", recs[2].SessionID)
	assert.Greater(t, recs[0].ID, recs[1].ID)
	assert.True(t, recs[2].Timestamp.Equal(base))
	assert.Equal(t, 2, recs[2].CorrectCount)
	assert.Len(t, recs[0].EventID, 26)

	recs, err = repo.Completions(ctx, QueryOpts{LevelID: "calc2_week9_level1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "s3", recs[0].SessionID)

	recs, err = repo.Completions(ctx, QueryOpts{From: base.Add(30 * time.Minute), To: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "s2", recs[0].SessionID)

	recs, err = repo.Completions(ctx, QueryOpts{After: 1, Before: 3})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "s2", recs[0].SessionID)

	done, err := repo.CompletedLevels(ctx)
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.True(t, done["calc2_week9_level1"].Equal(base.Add(2*time.Hour)))
	assert.True(t, done["calc2_week9_review1"].Equal(base.Add(time.Hour)))
}

func TestAppendCompletion_SameSessionOnce(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	data := CompletionEventData{LevelID: "l", SessionID: "dup", CompletedAt: time.Unix(100, 0)}
	require.NoError(t, repo.AppendCompletion(ctx, data))
	data.CompletedAt = time.Unix(200, 0)
	require.NoError(t, repo.AppendCompletion(ctx, data))
	require.NoError(t, repo.AppendCompletion(ctx, CompletionEventData{LevelID: "l", SessionID: "next"}))

	recs, err := repo.Completions(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "next", recs[0].SessionID)
	assert.Equal(t, "dup", recs[1].SessionID)
	assert.True(t, recs[1].Timestamp.Equal(time.Unix(100, 0)), "first record kept")
	assert.Greater(t, recs[0].ID, recs[1].ID)
}

func TestAppendCompletion_Concurrent(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.AppendCompletion(ctx, CompletionEventData{LevelID: "l", SessionID: fmt.Sprintf("s%d", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	recs, err := repo.Completions(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 10)

	seen := map[int64]bool{}
	for _, r := range recs {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("WALMA_DB", filepath.Join(dir, "custom", "x.db"))
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom", "x.db"), p)
	assert.DirExists(t, filepath.Join(dir, "custom"))

	t.Setenv("WALMA_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "walma", "walma.db"), p)
}
