package completion

import (
	"context"
	"time"

	"github.com/walma-app/walma/internal/logger"
)

// LoggingReporter is a decorator that logs every report and its latency.
type LoggingReporter struct {
	inner Reporter
	log   *logger.Logger
}

// WithLogging wraps a Reporter with structured logging.
func WithLogging(r Reporter, log *logger.Logger) Reporter {
	return &LoggingReporter{inner: r, log: log}
}

func (l *LoggingReporter) ReportCompletion(ctx context.Context, rec Record) error {
	start := time.Now()
	err := l.inner.ReportCompletion(ctx, rec)
	latencyMs := time.Since(start).Milliseconds()

	if err != nil {
		l.log.Error("completion report failed",
			"level_id", rec.LevelID,
			"session_id", rec.SessionID,
			"latency_ms", latencyMs,
			"error", err,
		)
		return err
	}
	l.log.Info("completion reported",
		"level_id", rec.LevelID,
		"session_id", rec.SessionID,
		"correct", rec.CorrectCount,
		"interactive", rec.InteractiveCount,
		"latency_ms", latencyMs,
	)
	return nil
}
