package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/logger"
	"github.com/walma-app/walma/internal/router"
	"github.com/walma-app/walma/internal/screens/player"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	catalog, err := level.Bundled(logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return Options{Catalog: catalog}
}

// drain runs cmd and feeds any router messages it yields back to m.
func drain(m AppModel, cmd tea.Cmd) AppModel {
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = drain(m, c)
		}
		return m
	}
	switch msg.(type) {
	case router.PushScreenMsg, router.PopScreenMsg:
		next, cmd := m.Update(msg)
		return drain(next.(AppModel), cmd)
	}
	return m
}

func TestApp_StartsOnPicker(t *testing.T) {
	m := newAppModel(testOptions(t))
	m = drain(m, m.Init())

	if m.router.Depth() != 1 || m.router.Active().Title() != "Levels" {
		t.Errorf("active = %q at depth %d, want Levels at 1", m.router.Active().Title(), m.router.Depth())
	}
}

func TestApp_StartLevel(t *testing.T) {
	opts := testOptions(t)
	opts.Start, _ = opts.Catalog.Get("calc2_week9_review1")

	m := newAppModel(opts)
	m = drain(m, m.Init())

	if m.router.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", m.router.Depth())
	}
	if _, ok := m.router.Active().(*player.PlayerScreen); !ok {
		t.Fatalf("active = %T, want player", m.router.Active())
	}

	// Esc is handled by the player, which abandons and pops itself.
	next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	m = drain(next.(AppModel), cmd)
	if m.router.Depth() != 1 {
		t.Errorf("Depth() = %d after esc, want 1", m.router.Depth())
	}
}

func TestApp_View(t *testing.T) {
	m := newAppModel(testOptions(t))

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	v := next.(AppModel).View()
	if !v.AltScreen {
		t.Error("expected alt screen")
	}

	next, _ = m.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	_ = next.(AppModel).View()
}

func TestApp_CtrlC(t *testing.T) {
	m := newAppModel(testOptions(t))
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}
