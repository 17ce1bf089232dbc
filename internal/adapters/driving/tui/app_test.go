package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

func newTestApp(t *testing.T, review *MockReviewService) *App {
	t.Helper()
	app, err := NewApp(&Ports{Review: review, Knowledge: &MockKnowledgeService{
		StatsFunc: func(context.Context) ([]driving.DomainStats, error) {
			return []driving.DomainStats{
				{Domain: domain.DomainActivity, Phrases: 3, Embeddings: 3, CacheExists: true},
			}, nil
		},
	}})
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func queueOf(hazards ...domain.AnnotatedHazard) *MockReviewService {
	return &MockReviewService{
		PendingFunc: func(context.Context) ([]domain.AnnotatedHazard, error) {
			return hazards, nil
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadQueue runs the pending load the way the runtime would.
func loadQueue(t *testing.T, app *App) {
	t.Helper()
	msg := app.queueView.Init()()
	app.Update(msg)
}

// run executes a command and feeds its message back into the app.
func run(app *App, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	_, next := app.Update(cmd())
	return next
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingReviewService)
}

func TestNewApp_StartsOnQueue(t *testing.T) {
	app := newTestApp(t, queueOf())

	assert.Equal(t, messages.ViewQueue, app.CurrentView())
	assert.True(t, app.Ready())
}

func TestApp_ViewBeforeReady(t *testing.T) {
	app, err := NewApp(&Ports{Review: queueOf()})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_InitLoadsQueue(t *testing.T) {
	app := newTestApp(t, queueOf())

	cmd := app.Init()

	assert.NotNil(t, cmd)
	assert.Equal(t, status.StateLoading, app.StatusBar().State())
}

func TestApp_PendingLoadedUpdatesStatus(t *testing.T) {
	app := newTestApp(t, queueOf(
		annotated("ph-1", "Welding", domain.FieldStatusNew),
		annotated("ph-2", "Grinding", domain.FieldStatusOld),
	))

	loadQueue(t, app)

	assert.Equal(t, status.StateReady, app.StatusBar().State())
	assert.Equal(t, 2, app.StatusBar().Pending())
	view := app.View()
	assert.Contains(t, view, "Welding")
	assert.Contains(t, view, "NEW")
	assert.Contains(t, view, "2 pending, 1 with new fields")
}

func TestApp_PendingLoadErrorShown(t *testing.T) {
	app := newTestApp(t, &MockReviewService{
		PendingFunc: func(context.Context) ([]domain.AnnotatedHazard, error) {
			return nil, errors.New("store offline")
		},
	})

	loadQueue(t, app)

	assert.EqualError(t, app.Err(), "store offline")
	assert.Equal(t, status.StateError, app.StatusBar().State())
	assert.Contains(t, app.View(), "store offline")
}

func TestApp_ApproveFromQueue(t *testing.T) {
	review := queueOf(annotated("ph-1", "Welding", domain.FieldStatusNew))
	app := newTestApp(t, review)
	loadQueue(t, app)

	_, cmd := app.Update(key("a"))
	require.NotNil(t, cmd)
	cmd = run(app, cmd) // ReviewRequested -> review command
	assert.Equal(t, status.StateReviewing, app.StatusBar().State())
	cmd = run(app, cmd) // HazardReviewed -> reload
	require.NotNil(t, cmd)

	assert.Equal(t, []string{"ph-1"}, review.approved)
	assert.Empty(t, review.rejected)
	assert.Equal(t, "Approved ph-1", app.StatusBar().Message())
	assert.Equal(t, messages.ViewQueue, app.CurrentView())
}

func TestApp_RejectSecondRow(t *testing.T) {
	review := queueOf(
		annotated("ph-1", "Welding", domain.FieldStatusOld),
		annotated("ph-2", "Grinding", domain.FieldStatusOld),
	)
	app := newTestApp(t, review)
	loadQueue(t, app)

	app.Update(key("down"))
	_, cmd := app.Update(key("r"))
	run(app, run(app, cmd))

	assert.Equal(t, []string{"ph-2"}, review.rejected)
	assert.Equal(t, "Rejected ph-2", app.StatusBar().Message())
}

func TestApp_ReviewFailureKeepsError(t *testing.T) {
	review := queueOf(annotated("ph-1", "Welding", domain.FieldStatusOld))
	review.ApproveFunc = func(context.Context, string) error {
		return domain.ErrAlreadyReviewed
	}
	app := newTestApp(t, review)
	loadQueue(t, app)

	_, cmd := app.Update(key("a"))
	next := run(app, run(app, cmd))

	assert.Nil(t, next)
	assert.ErrorIs(t, app.Err(), domain.ErrAlreadyReviewed)
	assert.Equal(t, status.StateError, app.StatusBar().State())
}

func TestApp_DetailAndBack(t *testing.T) {
	app := newTestApp(t, queueOf(annotated("ph-1", "Welding", domain.FieldStatusNew)))
	loadQueue(t, app)

	_, cmd := app.Update(key("enter"))
	run(app, cmd)

	require.Equal(t, messages.ViewDetail, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Hazard detail")
	assert.Contains(t, view, "Welding screen")

	app.Update(key("esc"))
	assert.Equal(t, messages.ViewQueue, app.CurrentView())
}

func TestApp_ApproveFromDetail(t *testing.T) {
	review := queueOf(annotated("ph-1", "Welding", domain.FieldStatusNew))
	app := newTestApp(t, review)
	loadQueue(t, app)
	_, cmd := app.Update(key("enter"))
	run(app, cmd)

	_, cmd = app.Update(key("a"))
	run(app, run(app, cmd))

	assert.Equal(t, []string{"ph-1"}, review.approved)
	assert.Equal(t, messages.ViewQueue, app.CurrentView())
}

func TestApp_StatsView(t *testing.T) {
	app := newTestApp(t, queueOf())
	loadQueue(t, app)

	_, cmd := app.Update(key("s"))
	cmd = run(app, cmd) // ViewChanged -> stats load
	run(app, cmd)

	assert.Equal(t, messages.ViewStats, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Knowledge bases")
	assert.Contains(t, view, "in sync")
}

func TestApp_StatsWithoutKnowledgeService(t *testing.T) {
	app, err := NewApp(&Ports{Review: queueOf()})
	require.NoError(t, err)
	app.SetDimensions(80, 24)

	cmd := run(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewStats} })
	run(app, cmd)

	assert.ErrorContains(t, app.Err(), "knowledge service not available")
}

func TestApp_HelpToggle(t *testing.T) {
	app := newTestApp(t, queueOf())

	app.Update(key("?"))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "approve")

	app.Update(key("?"))
	assert.Equal(t, messages.ViewQueue, app.CurrentView())
	assert.Equal(t, status.StateReady, app.StatusBar().State())
}

func TestApp_HelpEscReturnsToPreviousView(t *testing.T) {
	app := newTestApp(t, queueOf(annotated("ph-1", "Welding", domain.FieldStatusOld)))
	loadQueue(t, app)
	_, cmd := app.Update(key("enter"))
	run(app, cmd)

	app.Update(key("?"))
	app.Update(key("esc"))

	assert.Equal(t, messages.ViewDetail, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"q", key("q")},
		{"ctrl+c", key("ctrl+c")},
		{"quit message", messages.Quit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, queueOf())

			_, cmd := app.Update(tt.msg)

			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, queueOf())

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Equal(t, "boom", app.StatusBar().Message())
}

func TestApp_WindowResize(t *testing.T) {
	app := newTestApp(t, queueOf())

	app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})

	assert.Equal(t, 140, app.StatusBar().Width())
}

func TestApp_WithContext(t *testing.T) {
	type ctxKey struct{}
	var seen any
	review := &MockReviewService{
		PendingFunc: func(ctx context.Context) ([]domain.AnnotatedHazard, error) {
			seen = ctx.Value(ctxKey{})
			return nil, nil
		},
	}
	app := newTestApp(t, review)

	app.WithContext(context.WithValue(context.Background(), ctxKey{}, "review"))
	loadQueue(t, app)

	assert.Equal(t, "review", seen)
}
