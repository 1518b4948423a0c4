package completion

import (
	"context"
	"errors"
)

// Pending is the outcome of a report running in the background.
type Pending struct {
	rec  Record
	done chan struct{}
	err  error
}

// Dispatch starts r.ReportCompletion on its own goroutine and returns
// immediately. Any failure is surfaced as a *ReportError.
func Dispatch(ctx context.Context, r Reporter, rec Record) *Pending {
	p := &Pending{rec: rec, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		if err := r.ReportCompletion(ctx, rec); err != nil {
			var re *ReportError
			if !errors.As(err, &re) {
				err = &ReportError{LevelID: rec.LevelID, Err: err}
			}
			p.err = err
		}
	}()
	return p
}

// Record returns the record being reported.
func (p *Pending) Record() Record { return p.rec }

// Done is closed once the report has finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Finished reports whether the report has finished.
func (p *Pending) Finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Err returns the report's error once finished, and nil before that.
func (p *Pending) Err() error {
	if !p.Finished() {
		return nil
	}
	return p.err
}

// Wait blocks until the report finishes or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
