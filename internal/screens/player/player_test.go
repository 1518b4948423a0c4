package player

import (
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/completion"
	"github.com/walma-app/walma/internal/content"
	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/playback"
	"github.com/walma-app/walma/internal/router"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testLevel(t *testing.T) *level.Level {
	t.Helper()
	parts := append(content.Tokenize(`Recall \(y' = ky\)`), content.Tokenize("week9/growth.png")...)
	slide, err := level.NewSlide(0, parts)
	if err != nil {
		t.Fatal(err)
	}
	q, err := level.NewQuestion(1,
		content.Tokenize(`Solve \(y' = 2y\)`),
		[]string{`\(e^{x}\)`, `\(e^{2x}\)`}, `\(e^{2x}\)`,
		content.Tokenize("Separate variables."),
		content.Tokenizer{},
	)
	if err != nil {
		t.Fatal(err)
	}
	return &level.Level{ID: "growth", Kind: level.KindQuiz, Units: []level.Unit{slide, q}}
}

func newTestPlayer(t *testing.T, r completion.Reporter) *PlayerScreen {
	t.Helper()
	p := New(testLevel(t), Deps{Reporter: r, Resolver: assets.NewResolver("assets")})
	if p.err != nil {
		t.Fatalf("New() error = %v", p.err)
	}
	return p
}

// runCmd executes cmd and returns its message, or nil.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestPlayer_PlayThrough(t *testing.T) {
	mock := completion.NewMock()
	p := newTestPlayer(t, mock)

	view := p.View(100, 30)
	if !strings.Contains(view, `y' = ky`) {
		t.Errorf("slide view missing math:\n%s", view)
	}
	if !strings.Contains(view, "assets/week9/growth.png") {
		t.Errorf("slide view missing resolved image:\n%s", view)
	}
	if got := p.Status(); got != "0/2" {
		t.Errorf("Status() = %q, want 0/2", got)
	}

	p.Update(specialKey(tea.KeyEnter))
	if st := p.seq.Snapshot(); st.CurrentIndex != 1 {
		t.Fatalf("CurrentIndex = %d, want 1", st.CurrentIndex)
	}

	p.Update(keyPress('2'))
	if st := p.seq.Snapshot(); st.Selection != `\(e^{2x}\)` {
		t.Errorf("Selection = %q, want second option", st.Selection)
	}
	p.Update(specialKey(tea.KeyUp))
	if st := p.seq.Snapshot(); st.Selection != `\(e^{x}\)` {
		t.Errorf("Selection = %q after up, want first option", st.Selection)
	}
	p.Update(specialKey(tea.KeyDown))

	p.Update(specialKey(tea.KeyEnter))
	st := p.seq.Snapshot()
	if st.Phase != playback.PhaseAnswerSubmitted || !st.IsCorrect {
		t.Fatalf("after submit: phase=%v correct=%v, want answer_submitted/true", st.Phase, st.IsCorrect)
	}
	if !strings.Contains(p.View(100, 30), "Correct") {
		t.Error("expected correct feedback in view")
	}

	p.Update(keyPress('e'))
	if !strings.Contains(p.View(100, 30), "Separate variables.") {
		t.Error("expected explanation after toggling")
	}

	_, cmd := p.Update(specialKey(tea.KeyEnter))
	if !p.seq.Terminal() {
		t.Fatal("expected level complete")
	}
	if !strings.Contains(p.View(100, 30), "Saving progress") {
		t.Error("completion view should not wait for the report")
	}

	msg := runCmd(cmd)
	if _, ok := msg.(reportDoneMsg); !ok {
		t.Fatalf("cmd returned %T, want reportDoneMsg", msg)
	}
	p.Update(msg)
	if !strings.Contains(p.View(100, 30), "Progress saved") {
		t.Error("expected saved status")
	}
	if mock.CallCount() != 1 {
		t.Errorf("reports = %d, want 1", mock.CallCount())
	}
	if mock.Calls[0].CorrectCount != 1 || mock.Calls[0].InteractiveCount != 1 {
		t.Errorf("record = %+v, want 1/1", mock.Calls[0])
	}

	_, cmd = p.Update(specialKey(tea.KeyEnter))
	pop, ok := runCmd(cmd).(router.PopScreenMsg)
	if !ok {
		t.Fatal("expected PopScreenMsg")
	}
	if res := pop.Result.(LevelFinishedMsg); !res.Completed || res.LevelID != "growth" {
		t.Errorf("result = %+v, want completed growth", res)
	}
}

func TestPlayer_WrongAnswerShowsExplanation(t *testing.T) {
	p := newTestPlayer(t, nil)
	p.Update(specialKey(tea.KeyEnter))
	p.Update(keyPress('1'))
	p.Update(specialKey(tea.KeyEnter))

	view := p.View(100, 30)
	if !strings.Contains(view, "Not quite") || !strings.Contains(view, "Separate variables.") {
		t.Errorf("wrong answer view missing feedback or explanation:\n%s", view)
	}
}

func TestPlayer_ReportFailureShown(t *testing.T) {
	p := newTestPlayer(t, completion.NewMock(errors.New("disk full")))
	p.Update(specialKey(tea.KeyEnter))
	p.Update(keyPress('2'))
	p.Update(specialKey(tea.KeyEnter))
	_, cmd := p.Update(specialKey(tea.KeyEnter))

	p.Update(runCmd(cmd))
	if view := p.View(100, 30); !strings.Contains(view, "disk full") {
		t.Errorf("expected report error in view:\n%s", view)
	}
}

func TestPlayer_EscAbandons(t *testing.T) {
	mock := completion.NewMock()
	p := newTestPlayer(t, mock)

	_, cmd := p.Update(specialKey(tea.KeyEscape))
	if p.seq.Phase() != playback.PhaseAbandoned {
		t.Errorf("Phase() = %v, want abandoned", p.seq.Phase())
	}
	pop, ok := runCmd(cmd).(router.PopScreenMsg)
	if !ok {
		t.Fatal("expected PopScreenMsg")
	}
	if pop.Result.(LevelFinishedMsg).Completed {
		t.Error("abandoned level reported as completed")
	}
	if mock.CallCount() != 0 {
		t.Errorf("reports = %d, want 0", mock.CallCount())
	}
}

func TestPlayer_IgnoresOutOfRangeDigits(t *testing.T) {
	p := newTestPlayer(t, nil)
	p.Update(specialKey(tea.KeyEnter))
	p.Update(keyPress('9'))
	if p.seq.Snapshot().HasSelection {
		t.Error("digit beyond the options should not select")
	}
}

func TestPlayer_EmptyLevel(t *testing.T) {
	p := New(&level.Level{ID: "empty"}, Deps{})
	if p.err == nil {
		t.Fatal("expected error for empty level")
	}
	if !strings.Contains(p.View(80, 24), "Cannot play") {
		t.Error("expected error view")
	}
	_, cmd := p.Update(specialKey(tea.KeyEnter))
	if _, ok := runCmd(cmd).(router.PopScreenMsg); !ok {
		t.Error("expected any key to leave")
	}
}

func TestPlayer_KeyHints(t *testing.T) {
	p := newTestPlayer(t, nil)
	if hints := p.KeyHints(); hints[0].Description != "Next" {
		t.Errorf("slide hint = %q, want Next", hints[0].Description)
	}
	p.Update(specialKey(tea.KeyEnter))
	if hints := p.KeyHints(); hints[0].Description != "Choose" {
		t.Errorf("question hint = %q, want Choose", hints[0].Description)
	}
}
