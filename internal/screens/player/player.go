package player

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/completion"
	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/logger"
	"github.com/walma-app/walma/internal/playback"
	"github.com/walma-app/walma/internal/router"
	"github.com/walma-app/walma/internal/screen"
	"github.com/walma-app/walma/internal/ui/components"
	"github.com/walma-app/walma/internal/ui/layout"
)

// Deps are the collaborators a player needs.
type Deps struct {
	Reporter      completion.Reporter
	ReportTimeout time.Duration
	Resolver      assets.Resolver
	Log           *logger.Logger
}

// PlayerScreen plays one level unit by unit.
type PlayerScreen struct {
	seq     *playback.Sequencer
	deps    Deps
	options components.OptionList
	optFor  int // unit index options were built for; -1 when none

	reportDone bool
	reportErr  error
	err        error
}

var (
	_ screen.Screen          = (*PlayerScreen)(nil)
	_ screen.KeyHintProvider = (*PlayerScreen)(nil)
	_ screen.StatusProvider  = (*PlayerScreen)(nil)
	_ screen.EscapeHandler   = (*PlayerScreen)(nil)
)

// New creates a player for lvl.
func New(lvl *level.Level, deps Deps) *PlayerScreen {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	p := &PlayerScreen{deps: deps, optFor: -1}
	p.seq, p.err = playback.New(lvl, playback.Options{
		Reporter:      deps.Reporter,
		ReportTimeout: deps.ReportTimeout,
	})
	if p.err == nil {
		p.syncOptions()
		deps.Log.Info("session started", "session_id", p.seq.SessionID(), "level_id", lvl.ID)
	}
	return p
}

// Sequencer exposes the underlying state machine.
func (p *PlayerScreen) Sequencer() *playback.Sequencer { return p.seq }

func (p *PlayerScreen) Init() tea.Cmd { return nil }

func (p *PlayerScreen) Title() string {
	if p.seq == nil {
		return "Player"
	}
	return p.seq.Level().DisplayTitle()
}

func (p *PlayerScreen) Status() string {
	if p.seq == nil {
		return ""
	}
	done, total := p.seq.Progress()
	return fmt.Sprintf("%d/%d", done, total)
}

func (p *PlayerScreen) HandlesEscape() bool { return true }

func (p *PlayerScreen) KeyHints() []layout.KeyHint {
	switch {
	case p.seq == nil || p.seq.Terminal():
		return []layout.KeyHint{{Key: "Enter", Description: "Back to levels"}}
	case p.seq.CanToggle():
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "e", Description: "Explanation"},
			{Key: "Esc", Description: "Leave"},
		}
	case p.seq.CanSelect():
		return []layout.KeyHint{
			{Key: "↑↓/1-9", Description: "Choose"},
			{Key: "Enter", Description: "Check"},
			{Key: "Esc", Description: "Leave"},
		}
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "Esc", Description: "Leave"},
		}
	}
}

func (p *PlayerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case reportDoneMsg:
		p.reportDone = true
		p.reportErr = msg.Err
		if msg.Err != nil {
			p.deps.Log.Error("completion report failed", "level_id", p.seq.Level().ID, "error", msg.Err)
		}
		return p, nil
	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *PlayerScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if p.seq == nil {
		return p, popCmd(LevelFinishedMsg{})
	}
	if p.seq.Terminal() {
		switch msg.String() {
		case "enter", "esc", "q":
			return p, p.leave()
		}
		return p, nil
	}

	key := msg.String()
	switch key {
	case "esc":
		p.seq.Abandon()
		p.deps.Log.Info("session abandoned", "session_id", p.seq.SessionID(), "level_id", p.seq.Level().ID)
		return p, p.leave()
	case "up", "k":
		p.options.MoveUp()
		p.selectCursor()
	case "down", "j":
		p.options.MoveDown()
		p.selectCursor()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(key[0] - '1')
		if i < len(p.options.Values) {
			p.options.Cursor = i
			p.selectCursor()
		}
	case "e":
		p.seq.ToggleExplanation()
	case "enter":
		return p, p.enter()
	}
	return p, nil
}

// enter checks a pending answer, or moves on once there is nothing to check.
func (p *PlayerScreen) enter() tea.Cmd {
	if p.seq.CanSelect() {
		p.selectCursor()
		if p.seq.Submit() {
			p.syncOptions()
		}
		return nil
	}
	if !p.seq.Advance() {
		return nil
	}
	p.syncOptions()
	if p.seq.Phase() == playback.PhaseComplete {
		return waitReport(p.seq.Report())
	}
	return nil
}

func (p *PlayerScreen) selectCursor() {
	if v, ok := p.options.Current(); ok && p.seq.SelectOption(v) {
		p.options.Chosen = v
	}
}

// syncOptions rebuilds the option list when the unit changes and mirrors
// submission state into it.
func (p *PlayerScreen) syncOptions() {
	st := p.seq.Snapshot()
	u, ok := p.seq.Current()
	if !ok || !u.Interactive() {
		p.options = components.OptionList{}
		p.optFor = -1
		return
	}
	if p.optFor != st.CurrentIndex {
		values := u.Options()
		labels := make([]string, len(values))
		for i := range values {
			labels[i] = components.RenderParts(u.OptionParts(i), p.deps.Resolver, 0)
		}
		p.options = components.OptionList{Labels: labels, Values: values}
		p.optFor = st.CurrentIndex
	}
	p.options.Chosen = st.Selection
	p.options.Submitted = st.Checked
	if st.Checked {
		p.options.Correct = u.CorrectAnswer()
	}
}

func (p *PlayerScreen) leave() tea.Cmd {
	return popCmd(LevelFinishedMsg{
		LevelID:   p.seq.Level().ID,
		Completed: p.seq.Phase() == playback.PhaseComplete,
	})
}

func popCmd(result tea.Msg) tea.Cmd {
	return func() tea.Msg { return router.PopScreenMsg{Result: result} }
}

// waitReport waits for the report off the UI goroutine.
func waitReport(pending *completion.Pending) tea.Cmd {
	if pending == nil {
		return nil
	}
	return func() tea.Msg {
		return reportDoneMsg{Err: pending.Wait(context.Background())}
	}
}
