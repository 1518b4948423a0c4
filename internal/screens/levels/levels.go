package levels

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/router"
	"github.com/walma-app/walma/internal/screen"
	"github.com/walma-app/walma/internal/screens/player"
	"github.com/walma-app/walma/internal/store"
	"github.com/walma-app/walma/internal/ui/components"
	"github.com/walma-app/walma/internal/ui/layout"
	"github.com/walma-app/walma/internal/ui/theme"
)

// completedMsg carries the completion marks loaded from the event store.
type completedMsg struct {
	Levels map[string]bool
	Err    error
}

// LevelsScreen lists the catalog and starts a player for the chosen level.
type LevelsScreen struct {
	catalog   *level.Catalog
	events    store.EventRepo
	deps      player.Deps
	filter    components.FilterInput
	cursor    int
	completed map[string]bool
	errMsg    string
}

var (
	_ screen.Screen          = (*LevelsScreen)(nil)
	_ screen.KeyHintProvider = (*LevelsScreen)(nil)
	_ screen.StatusProvider  = (*LevelsScreen)(nil)
)

// New creates the picker. events may be nil.
func New(catalog *level.Catalog, events store.EventRepo, deps player.Deps) *LevelsScreen {
	return &LevelsScreen{
		catalog:   catalog,
		events:    events,
		deps:      deps,
		filter:    components.NewFilterInput("filter levels"),
		completed: make(map[string]bool),
	}
}

func (s *LevelsScreen) Init() tea.Cmd {
	return tea.Batch(s.filter.Init(), s.loadCompleted())
}

func (s *LevelsScreen) Title() string { return "Levels" }

func (s *LevelsScreen) Status() string {
	return fmt.Sprintf("%d/%d done", len(s.completed), s.catalog.Len())
}

func (s *LevelsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Play"},
		{Key: "type", Description: "Filter"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *LevelsScreen) loadCompleted() tea.Cmd {
	if s.events == nil {
		return nil
	}
	events := s.events
	return func() tea.Msg {
		done, err := events.CompletedLevels(context.Background())
		if err != nil {
			return completedMsg{Err: err}
		}
		marks := make(map[string]bool, len(done))
		for id := range done {
			marks[id] = true
		}
		return completedMsg{Levels: marks}
	}
}

// visible returns the levels matching the filter.
func (s *LevelsScreen) visible() []*level.Level {
	var out []*level.Level
	for _, l := range s.catalog.List() {
		if s.filter.Match(l.ID, l.Title, string(l.Kind)) {
			out = append(out, l)
		}
	}
	return out
}

func (s *LevelsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case completedMsg:
		if msg.Err != nil {
			s.errMsg = "Could not load progress: " + msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.completed = msg.Levels
		return s, nil

	case player.LevelFinishedMsg:
		if msg.Completed {
			s.completed[msg.LevelID] = true
		}
		return s, s.loadCompleted()

	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil
		case "down":
			if s.cursor < len(s.visible())-1 {
				s.cursor++
			}
			return s, nil
		case "enter":
			vis := s.visible()
			if s.cursor >= len(vis) {
				return s, nil
			}
			p := player.New(vis[s.cursor], s.deps)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: p} }
		}
	}

	var cmd tea.Cmd
	s.filter, cmd = s.filter.Update(msg)
	if n := len(s.visible()); s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
	return s, cmd
}

func (s *LevelsScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n  " + s.filter.View() + "\n\n")

	vis := s.visible()
	if len(vis) == 0 {
		b.WriteString(theme.Hint.Render("  No levels match."))
	}
	for i, l := range vis {
		mark := "  "
		if s.completed[l.ID] {
			mark = theme.Correct.Render("✓ ")
		}
		line := fmt.Sprintf("%-28s %-6s %2d units", l.DisplayTitle(), l.Kind, len(l.Units))
		style := theme.Unselected
		prefix := "    "
		if i == s.cursor {
			style = theme.Selected
			prefix = "  ▸ "
		}
		b.WriteString(style.Render(prefix) + mark + style.Render(line) + "\n")
	}

	if s.errMsg != "" {
		b.WriteString("\n" + theme.Incorrect.Render("  "+s.errMsg))
	}
	return lipgloss.NewStyle().MaxHeight(height).Render(b.String())
}
