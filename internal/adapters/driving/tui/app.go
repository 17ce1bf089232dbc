package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/views/detail"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/views/queue"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/views/stats"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// App is the review queue application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	queueView  *queue.View
	detailView *detail.View
	statsView  *stats.View
	statusBar  *status.Bar

	// previousView is where esc returns to from help.
	previousView messages.ViewType
	currentView  messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new review queue application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		help:        help.New(),
		queueView:   queue.NewView(s, km, ports.Review),
		detailView:  detail.NewView(s, km),
		statsView:   stats.NewView(s, km, ports.Knowledge),
		statusBar:   status.NewBar(s, km),
		currentView: messages.ViewQueue,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.queueView.WithContext(ctx)
	a.statsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.statusBar.SetState(status.StateLoading)
	return tea.Batch(
		tea.SetWindowTitle("riskmatch - review queue"),
		a.queueView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.PendingLoaded:
		a.queueView, cmd = a.queueView.Update(msg)
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			if a.statusBar.State() == status.StateError {
				a.statusBar.SetMessage("")
			}
			a.err = nil
			a.statusBar.SetState(status.StateReady)
		}
		a.statusBar.SetCounts(len(a.queueView.Hazards()), a.queueView.NovelCount())
		return a, cmd

	case messages.HazardSelected:
		a.detailView.SetHazard(msg.Hazard)
		a.currentView = messages.ViewDetail
		return a, nil

	case messages.ReviewRequested:
		a.statusBar.SetState(status.StateReviewing)
		return a, a.review(msg)

	case messages.HazardReviewed:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.err = nil
		a.statusBar.SetState(status.StateReady)
		a.statusBar.SetMessage(fmt.Sprintf("%s %s", reviewVerb(msg.Status), msg.ID))
		a.currentView = messages.ViewQueue
		return a, a.queueView.Init()

	case messages.StatsLoaded:
		a.statsView, cmd = a.statsView.Update(msg)
		if msg.Err != nil {
			a.setError(msg.Err)
		}
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k == "ctrl+c" {
		return a, tea.Quit
	}

	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(k, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			return a, a.switchView(a.previousView)
		}
		a.previousView = a.currentView
		a.statusBar.SetState(status.StateHelp)
		a.currentView = messages.ViewHelp
		return a, nil
	case keymap.Matches(k, a.keymap.Back):
		switch a.currentView {
		case messages.ViewHelp:
			return a, a.switchView(a.previousView)
		case messages.ViewDetail, messages.ViewStats:
			return a, a.switchView(messages.ViewQueue)
		case messages.ViewQueue:
		}
		return a, nil
	}

	return a, a.forward(msg)
}

// forward passes a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewQueue:
		a.queueView, cmd = a.queueView.Update(msg)
	case messages.ViewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case messages.ViewStats:
		a.statsView, cmd = a.statsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

func (a *App) switchView(v messages.ViewType) tea.Cmd {
	a.currentView = v
	if a.statusBar.State() == status.StateHelp {
		a.statusBar.SetState(status.StateReady)
	}
	if v == messages.ViewStats {
		return a.statsView.Init()
	}
	return nil
}

// review runs an approve or reject against the review service.
func (a *App) review(req messages.ReviewRequested) tea.Cmd {
	ctx := a.ctx
	svc := a.ports.Review
	return func() tea.Msg {
		var err error
		switch req.Decision {
		case domain.HazardStatusApproved:
			err = svc.Approve(ctx, req.ID)
		case domain.HazardStatusRejected:
			err = svc.Reject(ctx, req.ID)
		case domain.HazardStatusPending:
			err = fmt.Errorf("%w: cannot review to %q", domain.ErrInvalidInput, req.Decision)
		}
		return messages.HazardReviewed{ID: req.ID, Status: req.Decision, Err: err}
	}
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(err.Error())
}

func reviewVerb(s domain.HazardStatus) string {
	if s == domain.HazardStatusApproved {
		return "Approved"
	}
	return "Rejected"
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDetail:
		body = a.detailView.View()
	case messages.ViewStats:
		body = a.statsView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.queueView.View()
	}
	return body + "\n\n" + a.statusBar.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.help.FullHelpView(a.keymap.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render("[NEW] means no close match exists in that knowledge base yet."))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// StatusBar exposes the status bar for inspection.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.statusBar.SetWidth(width)
	a.queueView.SetDimensions(width, height-2)
	a.detailView.SetDimensions(width, height-2)
}
