package queue

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

type stubReview struct {
	driving.ReviewService
	hazards []domain.AnnotatedHazard
	err     error
}

func (s *stubReview) Pending(context.Context) ([]domain.AnnotatedHazard, error) {
	return s.hazards, s.err
}

func pending(id, activity string, status domain.FieldStatus) domain.AnnotatedHazard {
	return domain.AnnotatedHazard{
		Pending:  domain.PendingHazard{ID: id, Record: domain.KnownData{ActivityName: activity}},
		Activity: domain.AnnotatedField{Text: activity, Status: status},
		Hazard:   domain.AnnotatedField{Text: "Noise", Status: domain.FieldStatusOld},
	}
}

func loaded(t *testing.T, review *stubReview) *View {
	t.Helper()
	v := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), review)
	v.SetDimensions(100, 30)
	v.Update(v.Init()())
	return v
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_Load(t *testing.T) {
	v := loaded(t, &stubReview{hazards: []domain.AnnotatedHazard{
		pending("ph-1", "Drilling", domain.FieldStatusNew),
		pending("ph-2", "Cutting", domain.FieldStatusOld),
	}})

	assert.False(t, v.Loading())
	assert.Len(t, v.Hazards(), 2)
	assert.Equal(t, 1, v.NovelCount())
	out := v.View()
	assert.Contains(t, out, "Drilling")
	assert.Contains(t, out, "Cutting")
}

func TestView_LoadError(t *testing.T) {
	v := loaded(t, &stubReview{err: errors.New("db locked")})

	require.Error(t, v.Err())
	assert.Contains(t, v.View(), "db locked")
}

func TestView_NilService(t *testing.T) {
	v := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), nil)

	msg := v.Init()()

	loadedMsg, ok := msg.(messages.PendingLoaded)
	require.True(t, ok)
	assert.Error(t, loadedMsg.Err)
}

func TestView_EmptyQueue(t *testing.T) {
	v := loaded(t, &stubReview{})

	assert.Contains(t, v.View(), "Nothing waiting for review.")
	_, ok := v.Selected()
	assert.False(t, ok)

	_, cmd := v.Update(runes("a"))
	assert.Nil(t, cmd)
}

func TestView_Navigation(t *testing.T) {
	v := loaded(t, &stubReview{hazards: []domain.AnnotatedHazard{
		pending("ph-1", "A", domain.FieldStatusOld),
		pending("ph-2", "B", domain.FieldStatusOld),
	}})

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.SelectedIndex())

	v.Update(runes("j"))
	v.Update(runes("j"))
	assert.Equal(t, 1, v.SelectedIndex())

	v.Update(runes("k"))
	assert.Equal(t, 0, v.SelectedIndex())
}

func TestView_ReviewKeys(t *testing.T) {
	v := loaded(t, &stubReview{hazards: []domain.AnnotatedHazard{
		pending("ph-1", "A", domain.FieldStatusOld),
	}})

	tests := []struct {
		key  string
		want domain.HazardStatus
	}{
		{"a", domain.HazardStatusApproved},
		{"r", domain.HazardStatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, cmd := v.Update(runes(tt.key))
			require.NotNil(t, cmd)

			assert.Equal(t, messages.ReviewRequested{ID: "ph-1", Decision: tt.want}, cmd())
		})
	}
}

func TestView_EnterSelects(t *testing.T) {
	v := loaded(t, &stubReview{hazards: []domain.AnnotatedHazard{
		pending("ph-1", "A", domain.FieldStatusOld),
	}})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.HazardSelected)
	require.True(t, ok)
	assert.Equal(t, "ph-1", msg.Hazard.Pending.ID)
}

func TestView_StatsKey(t *testing.T) {
	v := loaded(t, &stubReview{})

	_, cmd := v.Update(runes("s"))
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewStats}, cmd())
}

func TestView_ReloadClampsSelection(t *testing.T) {
	review := &stubReview{hazards: []domain.AnnotatedHazard{
		pending("ph-1", "A", domain.FieldStatusOld),
		pending("ph-2", "B", domain.FieldStatusOld),
	}}
	v := loaded(t, review)
	v.Update(runes("j"))

	review.hazards = review.hazards[:1]
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.True(t, v.Loading())
	v.Update(cmd())

	assert.Equal(t, 0, v.SelectedIndex())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
