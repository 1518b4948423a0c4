package playback

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/walma-app/walma/internal/completion"
	"github.com/walma-app/walma/internal/level"
)

// ErrEmptyLevel is returned when a level has no units to play.
var ErrEmptyLevel = errors.New("level has no units")

// DefaultReportTimeout bounds a single completion report.
const DefaultReportTimeout = 30 * time.Second

// Options configures a Sequencer.
type Options struct {
	// Reporter receives the completion record. Nil discards it.
	Reporter completion.Reporter

	// SessionID identifies the session; a random UUID when empty.
	SessionID string

	// ReportTimeout bounds the completion report.
	ReportTimeout time.Duration

	// Now is the clock used for the completion timestamp.
	Now func() time.Time
}

// Sequencer drives one learner through one level. It is not safe for
// concurrent use; callers serialize transitions per session.
type Sequencer struct {
	level *level.Level
	opts  Options

	phase              Phase
	index              int
	selection          string
	hasSelection       bool
	checked            bool
	isCorrect          bool
	explanationVisible bool
	correctCount       int

	report *completion.Pending
}

// New starts a session at the level's first unit.
func New(lvl *level.Level, opts Options) (*Sequencer, error) {
	if lvl == nil || len(lvl.Units) == 0 {
		return nil, ErrEmptyLevel
	}
	if opts.Reporter == nil {
		opts.Reporter = completion.Discard
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = DefaultReportTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sequencer{level: lvl, opts: opts, phase: PhaseViewing}, nil
}

func (s *Sequencer) Level() *level.Level { return s.level }
func (s *Sequencer) SessionID() string { return s.opts.SessionID }
func (s *Sequencer) Phase() Phase { return s.phase }

// Terminal reports whether no further transitions are possible.
func (s *Sequencer) Terminal() bool {
	return s.phase == PhaseComplete || s.phase == PhaseAbandoned
}

// Current returns the unit being shown. It reports false once terminal.
func (s *Sequencer) Current() (level.Unit, bool) {
	if s.Terminal() {
		return level.Unit{}, false
	}
	return s.level.Units[s.index], true
}

// CanSelect reports whether SelectOption could succeed for some option.
func (s *Sequencer) CanSelect() bool {
	u, ok := s.Current()
	return ok && s.phase == PhaseViewing && u.Interactive()
}

// CanSubmit reports whether Submit would succeed.
func (s *Sequencer) CanSubmit() bool {
	return s.CanSelect() && s.hasSelection
}

// CanToggle reports whether ToggleExplanation would succeed.
func (s *Sequencer) CanToggle() bool {
	return s.phase == PhaseAnswerSubmitted
}

// CanAdvance reports whether Advance would succeed.
func (s *Sequencer) CanAdvance() bool {
	u, ok := s.Current()
	if !ok {
		return false
	}
	if u.Interactive() {
		return s.phase == PhaseAnswerSubmitted
	}
	return s.phase == PhaseViewing
}

// SelectOption records opt as the pending answer. It fails for values that
// are not options of the current unit; re-selecting overwrites.
func (s *Sequencer) SelectOption(opt string) bool {
	if !s.CanSelect() {
		return false
	}
	if u := s.level.Units[s.index]; !u.HasOption(opt) {
		return false
	}
	s.selection = opt
	s.hasSelection = true
	return true
}

// Submit checks the pending answer. A wrong answer reveals the explanation.
func (s *Sequencer) Submit() bool {
	if !s.CanSubmit() {
		return false
	}
	u := s.level.Units[s.index]
	s.isCorrect = s.selection == u.CorrectAnswer()
	s.checked = true
	s.explanationVisible = !s.isCorrect
	if s.isCorrect {
		s.correctCount++
	}
	s.phase = PhaseAnswerSubmitted
	return true
}

// ToggleExplanation shows or hides the explanation after submission.
func (s *Sequencer) ToggleExplanation() bool {
	if !s.CanToggle() {
		return false
	}
	s.explanationVisible = !s.explanationVisible
	return true
}

// Advance moves to the next unit, or completes the level after the last one.
// Completing dispatches exactly one completion report in the background.
func (s *Sequencer) Advance() bool {
	if !s.CanAdvance() {
		return false
	}
	s.selection = ""
	s.hasSelection = false
	s.checked = false
	s.isCorrect = false
	s.explanationVisible = false

	if s.index == len(s.level.Units)-1 {
		s.phase = PhaseComplete
		s.report = s.dispatch()
		return true
	}
	s.index++
	s.phase = PhaseViewing
	return true
}

// Abandon tears the session down without reporting anything.
func (s *Sequencer) Abandon() bool {
	if s.Terminal() {
		return false
	}
	s.phase = PhaseAbandoned
	return true
}

// Report returns the completion report, or nil before completion.
func (s *Sequencer) Report() *completion.Pending {
	return s.report
}

// Progress returns how many units are finished out of the total.
func (s *Sequencer) Progress() (done, total int) {
	total = len(s.level.Units)
	switch {
	case s.phase == PhaseComplete:
		return total, total
	case s.phase == PhaseAnswerSubmitted:
		return s.index + 1, total
	default:
		return s.index, total
	}
}

// Snapshot returns a copy of the current state.
func (s *Sequencer) Snapshot() PlaybackState {
	return PlaybackState{
		SessionID:          s.opts.SessionID,
		LevelID:            s.level.ID,
		Phase:              s.phase,
		PhaseName:          s.phase.String(),
		CurrentIndex:       s.index,
		Total:              len(s.level.Units),
		Selection:          s.selection,
		HasSelection:       s.hasSelection,
		Checked:            s.checked,
		IsCorrect:          s.isCorrect,
		ExplanationVisible: s.explanationVisible,
		Terminal:           s.Terminal(),
		CorrectCount:       s.correctCount,
	}
}

func (s *Sequencer) dispatch() *completion.Pending {
	rec := completion.Record{
		LevelID:          s.level.ID,
		SessionID:        s.opts.SessionID,
		CompletedAt:      s.opts.Now(),
		InteractiveCount: s.level.InteractiveCount(),
		CorrectCount:     s.correctCount,
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ReportTimeout)
	p := completion.Dispatch(ctx, s.opts.Reporter, rec)
	go func() {
		<-p.Done()
		cancel()
	}()
	return p
}
