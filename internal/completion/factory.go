package completion

import "github.com/walma-app/walma/internal/logger"

// NewReporter wraps sink with the standard decorators: retry closest to the
// sink, logging outermost so every final outcome is logged once.
func NewReporter(cfg RetryConfig, sink Reporter, log *logger.Logger) Reporter {
	r := sink
	if cfg.MaxAttempts > 1 {
		r = WithRetry(r, cfg)
	}
	if log != nil {
		r = WithLogging(r, log)
	}
	return r
}
