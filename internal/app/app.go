package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/router"
	"github.com/walma-app/walma/internal/screen"
	"github.com/walma-app/walma/internal/screens/levels"
	"github.com/walma-app/walma/internal/screens/player"
	"github.com/walma-app/walma/internal/store"
	"github.com/walma-app/walma/internal/ui/layout"
)

// Options configures the terminal player.
type Options struct {
	Catalog *level.Catalog
	Events  store.EventRepo // optional, for completion marks
	Player  player.Deps

	// Start, when set, opens this level straight away on top of the picker.
	Start *level.Level
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	start  *player.PlayerScreen
	width  int
	height int
}

// newAppModel creates the model with the level picker at the bottom of the
// stack.
func newAppModel(opts Options) AppModel {
	m := AppModel{
		router: router.New(levels.New(opts.Catalog, opts.Events, opts.Player)),
	}
	if opts.Start != nil {
		m.start = player.New(opts.Start, opts.Player)
	}
	return m
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.router.Active().Init()}
	if m.start != nil {
		s := m.start
		cmds = append(cmds, func() tea.Msg { return router.PushScreenMsg{Screen: s} })
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	status := ""
	if sp, ok := active.(screen.StatusProvider); ok {
		status = sp.Status()
	}
	header := layout.RenderHeader(active.Title(), status, m.width)

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if hp, ok := active.(screen.KeyHintProvider); ok {
		hints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}, {Key: "Ctrl+C", Description: "Quit"}}
	}
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	if opts.Catalog == nil {
		return fmt.Errorf("run player: no level catalog")
	}
	p := tea.NewProgram(newAppModel(opts))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run player: %w", err)
	}
	return nil
}
