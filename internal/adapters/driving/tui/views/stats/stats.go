// Package stats shows knowledge base health for the review TUI.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

// View lists phrase and embedding counts per knowledge domain.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	knowledge driving.KnowledgeService

	stats   []driving.DomainStats
	loading bool
	err     error
}

// NewView creates a new stats view. knowledge may be nil.
func NewView(s *styles.Styles, km *keymap.KeyMap, knowledge driving.KnowledgeService) *View {
	return &View{
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		knowledge: knowledge,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the stats.
func (v *View) Init() tea.Cmd {
	v.loading = true
	ctx := v.ctx
	knowledge := v.knowledge
	return func() tea.Msg {
		if knowledge == nil {
			return messages.StatsLoaded{Err: fmt.Errorf("knowledge service not available")}
		}
		stats, err := knowledge.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update handles messages for the stats view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.StatsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.stats = msg.Stats
		}
	case tea.KeyMsg:
		if keymap.Matches(msg.String(), v.keymap.Refresh) {
			return v, v.Init()
		}
	}
	return v, nil
}

// View renders the stats table.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Knowledge bases"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading stats..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	default:
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("%-16s %8s %10s  %s", "DOMAIN", "PHRASES", "EMBEDDINGS", "STATE")))
		b.WriteString("\n")
		for _, s := range v.stats {
			b.WriteString(v.styles.Normal.Render(fmt.Sprintf("%-16s %8d %10d  ", s.Domain, s.Phrases, s.Embeddings)))
			b.WriteString(v.state(s))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[ctrl+r] refresh  [esc] back"))
	return b.String()
}

func (v *View) state(s driving.DomainStats) string {
	switch {
	case s.Phrases == 0:
		return v.styles.Muted.Render("empty")
	case s.InSync():
		return v.styles.Success.Render("in sync")
	default:
		return v.styles.Warning.Render("stale")
	}
}

// Stats returns the loaded stats.
func (v *View) Stats() []driving.DomainStats {
	return v.stats
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
