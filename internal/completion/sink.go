package completion

import (
	"context"

	"github.com/walma-app/walma/internal/store"
)

// StoreSink writes completion records to the event store.
type StoreSink struct {
	repo store.EventRepo
}

// NewStoreSink returns a Reporter backed by repo.
func NewStoreSink(repo store.EventRepo) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) ReportCompletion(ctx context.Context, rec Record) error {
	err := s.repo.AppendCompletion(ctx, store.CompletionEventData{
		LevelID:          rec.LevelID,
		SessionID:        rec.SessionID,
		CompletedAt:      rec.CompletedAt,
		InteractiveCount: rec.InteractiveCount,
		CorrectCount:     rec.CorrectCount,
	})
	if err != nil {
		return &ReportError{LevelID: rec.LevelID, Err: err}
	}
	return nil
}
