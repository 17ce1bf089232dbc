// Package queue provides the pending hazard list for the review TUI.
package queue

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

// View lists pending hazards with their novelty badges.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	review  driving.ReviewService
	hazards []domain.AnnotatedHazard

	selected int
	width    int
	height   int
	loading  bool
	err      error
}

// NewView creates a new queue view.
func NewView(s *styles.Styles, km *keymap.KeyMap, review driving.ReviewService) *View {
	return &View{
		ctx:    context.Background(),
		styles: s,
		keymap: km,
		review: review,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the queue.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx := v.ctx
	review := v.review
	return func() tea.Msg {
		if review == nil {
			return messages.PendingLoaded{Err: fmt.Errorf("review service not available")}
		}
		hazards, err := review.Pending(ctx)
		return messages.PendingLoaded{Hazards: hazards, Err: err}
	}
}

// Update handles messages for the queue view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.PendingLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.hazards = msg.Hazards
			if v.selected >= len(v.hazards) {
				v.selected = max(0, len(v.hazards)-1)
			}
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.selected < len(v.hazards)-1 {
			v.selected++
		}
	case keymap.Matches(k, v.keymap.Refresh):
		return v, v.Init()
	case keymap.Matches(k, v.keymap.Stats):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewStats} }
	}

	h, ok := v.Selected()
	if !ok {
		return v, nil
	}
	switch {
	case keymap.Matches(k, v.keymap.Select):
		return v, func() tea.Msg { return messages.HazardSelected{Hazard: h} }
	case keymap.Matches(k, v.keymap.Approve):
		return v, func() tea.Msg {
			return messages.ReviewRequested{ID: h.Pending.ID, Decision: domain.HazardStatusApproved}
		}
	case keymap.Matches(k, v.keymap.Reject):
		return v, func() tea.Msg {
			return messages.ReviewRequested{ID: h.Pending.ID, Decision: domain.HazardStatusRejected}
		}
	}
	return v, nil
}

// View renders the queue.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Pending hazards"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading queue..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.hazards) == 0:
		b.WriteString(v.styles.Muted.Render("Nothing waiting for review."))
	default:
		for i := range v.hazards {
			b.WriteString(v.renderRow(i))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[a] approve  [r] reject  [enter] detail  [s] kb stats  [q] quit"))
	return b.String()
}

// renderRow renders "> <activity> [badge] / <hazard> [badge]".
func (v *View) renderRow(i int) string {
	h := v.hazards[i]
	indicator := "  "
	if i == v.selected {
		indicator = "> "
	}

	activity := truncate(h.Activity.Text, v.columnWidth())
	hazard := truncate(h.Hazard.Text, v.columnWidth())

	text := fmt.Sprintf("%s%-*s ", indicator, v.columnWidth(), activity)
	if i == v.selected {
		text = v.styles.Selected.Render(text)
	} else {
		text = v.styles.Normal.Render(text)
	}
	return text + v.styles.Badge(h.Activity.Status) + "  " +
		v.styles.Subtitle.Render(hazard) + " " + v.styles.Badge(h.Hazard.Status)
}

func (v *View) columnWidth() int {
	w := (v.width - 20) / 2
	if w < 16 {
		w = 16
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Selected returns the highlighted hazard, if any.
func (v *View) Selected() (domain.AnnotatedHazard, bool) {
	if v.selected < 0 || v.selected >= len(v.hazards) {
		return domain.AnnotatedHazard{}, false
	}
	return v.hazards[v.selected], true
}

// SelectedIndex returns the highlighted row.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Hazards returns the loaded queue.
func (v *View) Hazards() []domain.AnnotatedHazard {
	return v.hazards
}

// NovelCount returns how many queued hazards carry at least one new field.
func (v *View) NovelCount() int {
	n := 0
	for _, h := range v.hazards {
		if h.HasNovelField() {
			n++
		}
	}
	return n
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
