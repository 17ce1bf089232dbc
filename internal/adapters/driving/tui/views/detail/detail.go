// Package detail shows every field of one pending hazard.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// chrome is the number of lines taken by the title and help footer.
const chrome = 4

// View renders one annotated hazard in a scrollable viewport.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	viewport viewport.Model
	hazard   *domain.AnnotatedHazard
}

// NewView creates a new detail view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	return &View{
		styles:   s,
		keymap:   km,
		viewport: viewport.New(80, 20),
	}
}

// SetHazard replaces the hazard on display and scrolls to the top.
func (v *View) SetHazard(h domain.AnnotatedHazard) {
	v.hazard = &h
	v.viewport.SetContent(v.renderBody())
	v.viewport.GotoTop()
}

// Hazard returns the hazard on display.
func (v *View) Hazard() (domain.AnnotatedHazard, bool) {
	if v.hazard == nil {
		return domain.AnnotatedHazard{}, false
	}
	return *v.hazard, true
}

// Init implements the view contract.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles review keys and forwards scrolling to the viewport.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && v.hazard != nil {
		id := v.hazard.Pending.ID
		switch {
		case keymap.Matches(km.String(), v.keymap.Approve):
			return v, func() tea.Msg {
				return messages.ReviewRequested{ID: id, Decision: domain.HazardStatusApproved}
			}
		case keymap.Matches(km.String(), v.keymap.Reject):
			return v, func() tea.Msg {
				return messages.ReviewRequested{ID: id, Decision: domain.HazardStatusRejected}
			}
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the detail screen.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Hazard detail"))
	b.WriteString("\n\n")
	if v.hazard == nil {
		b.WriteString(v.styles.Muted.Render("No hazard selected."))
	} else {
		b.WriteString(v.viewport.View())
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[a] approve  [r] reject  [↑/↓] scroll  [esc] back"))
	return b.String()
}

func (v *View) renderBody() string {
	h := v.hazard
	r := h.Pending.Record
	var b strings.Builder

	v.line(&b, "ID", h.Pending.ID)
	v.line(&b, "Submitted", h.Pending.SubmittedAt.Format(time.DateTime))
	v.line(&b, "Title", r.Title)
	v.line(&b, "Process", r.Process)
	b.WriteString("\n")
	v.annotated(&b, "Activity", h.Activity)
	v.line(&b, "Type", r.HazardType)
	v.annotated(&b, "Hazard", h.Hazard)
	v.annotated(&b, "Injury", h.Injury)
	v.annotated(&b, "Control", h.Control)
	b.WriteString("\n")
	v.line(&b, "Risk type", r.RiskType)
	v.line(&b, "Severity", fmt.Sprint(r.Severity))
	v.line(&b, "Likelihood", fmt.Sprint(r.Likelihood))
	v.line(&b, "RPN", fmt.Sprint(r.RPN))
	return b.String()
}

func (v *View) line(b *strings.Builder, label, value string) {
	if value == "" {
		value = "-"
	}
	b.WriteString(v.styles.Label.Render(label))
	b.WriteString(" ")
	b.WriteString(v.styles.Normal.Render(value))
	b.WriteString("\n")
}

func (v *View) annotated(b *strings.Builder, label string, f domain.AnnotatedField) {
	text := f.Text
	if text == "" {
		text = "-"
	}
	b.WriteString(v.styles.Label.Render(label))
	b.WriteString(" ")
	b.WriteString(v.styles.Badge(f.Status))
	b.WriteString(" ")
	b.WriteString(v.styles.Normal.Render(text))
	b.WriteString("\n")
}

// SetDimensions resizes the viewport to fit under the title.
func (v *View) SetDimensions(width, height int) {
	v.viewport.Width = max(20, width)
	v.viewport.Height = max(3, height-chrome)
	if v.hazard != nil {
		v.viewport.SetContent(v.renderBody())
	}
}
