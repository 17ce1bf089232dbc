package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

func ptr[T any](v T) *T { return &v }

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleSuggestHazards(t *testing.T) {
	ctx := context.Background()

	t.Run("returns suggestions", func(t *testing.T) {
		hazard := &mockHazardService{
			hazards: []domain.StructuredHazardFields{{
				Types:            []string{"Mechanical"},
				Description:      ptr("Entanglement in moving parts"),
				Injuries:         []string{"Crushed fingers"},
				ExistingControls: ptr("Machine guarding"),
				Severity:         ptr(4),
				Likelihood:       ptr(2),
				RPN:              ptr(8),
			}},
		}
		server := newTestServer(t, &Ports{Hazard: hazard})

		_, output, err := server.handleSuggestHazards(ctx, nil, SuggestHazardsInput{Activity: "switch on the machine"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Empty(t, output.Error)
		h := output.Hazards[0]
		assert.Equal(t, "Entanglement in moving parts", h.Description)
		assert.Equal(t, "Machine guarding", h.ExistingControls)
		assert.Equal(t, 8, h.RPN)
		assert.Empty(t, h.RiskType)
	})

	t.Run("fails closed on provider error", func(t *testing.T) {
		hazard := &mockHazardService{err: domain.ErrLLMUnavailable}
		server := newTestServer(t, &Ports{Hazard: hazard})

		_, output, err := server.handleSuggestHazards(ctx, nil, SuggestHazardsInput{Activity: "x"})

		require.NoError(t, err)
		assert.NotNil(t, output.Hazards)
		assert.Empty(t, output.Hazards)
		assert.Contains(t, output.Error, "LLM service unavailable")
	})
}

func TestServer_handleMatchActivities(t *testing.T) {
	ctx := context.Background()

	t.Run("returns activities", func(t *testing.T) {
		hazard := &mockHazardService{activities: []string{"Cutting", "Welding"}}
		server := newTestServer(t, &Ports{Hazard: hazard})

		_, output, err := server.handleMatchActivities(ctx, nil, MatchActivitiesInput{Title: "Workshop", Process: "Fabrication"})

		require.NoError(t, err)
		assert.Equal(t, []string{"Cutting", "Welding"}, output.Activities)
		assert.Empty(t, output.Records)
	})

	t.Run("db only returns records and unique names", func(t *testing.T) {
		hazard := &mockHazardService{records: []domain.KnownData{
			{ActivityName: "Cutting", HazardDes: "Sharp edges", Severity: 2, Likelihood: 2, RPN: 4},
			{ActivityName: "Cutting", HazardDes: "Noise", Severity: 1, Likelihood: 3, RPN: 3},
			{ActivityName: "Welding", HazardDes: "Fumes", Severity: 3, Likelihood: 3, RPN: 9},
		}}
		server := newTestServer(t, &Ports{Hazard: hazard})

		_, output, err := server.handleMatchActivities(ctx, nil, MatchActivitiesInput{DBOnly: true})

		require.NoError(t, err)
		assert.Equal(t, []string{"Cutting", "Welding"}, output.Activities)
		assert.Len(t, output.Records, 3)
		assert.Equal(t, "Fumes", output.Records[2].HazardDes)
	})

	t.Run("fails closed", func(t *testing.T) {
		hazard := &mockHazardService{err: errors.New("embedding quota exceeded")}
		server := newTestServer(t, &Ports{Hazard: hazard})

		_, output, err := server.handleMatchActivities(ctx, nil, MatchActivitiesInput{Title: "a", Process: "b"})

		require.NoError(t, err)
		assert.Empty(t, output.Activities)
		assert.Equal(t, "embedding quota exceeded", output.Error)
	})
}

func TestServer_handleCheckNovelty(t *testing.T) {
	ctx := context.Background()

	t.Run("reports classification", func(t *testing.T) {
		hazard := &mockHazardService{classification: domain.Classification{
			BestMatch: "Welding fumes", Score: 0.82, IsKnown: true,
		}}
		server := newTestServer(t, &Ports{Hazard: hazard})

		_, output, err := server.handleCheckNovelty(ctx, nil, CheckNoveltyInput{Domain: "Hazard", Text: "fumes from welding"})

		require.NoError(t, err)
		assert.Equal(t, "hazard", output.Domain)
		assert.Equal(t, "old", output.Status)
		assert.False(t, output.IsNew)
		assert.InDelta(t, 0.82, output.Score, 1e-9)
		assert.Equal(t, "Welding fumes", output.BestMatch)
	})

	t.Run("rejects unknown domain", func(t *testing.T) {
		server := newTestServer(t, &Ports{Hazard: &mockHazardService{}})

		_, _, err := server.handleCheckNovelty(ctx, nil, CheckNoveltyInput{Domain: "weather", Text: "rain"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates classify errors", func(t *testing.T) {
		server := newTestServer(t, &Ports{Hazard: &mockHazardService{err: domain.ErrEmbeddingUnavailable}})

		_, _, err := server.handleCheckNovelty(ctx, nil, CheckNoveltyInput{Domain: "injury", Text: "cuts"})

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestServer_ReviewTools(t *testing.T) {
	ctx := context.Background()
	submitted := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	review := &mockReviewService{
		pending: []domain.AnnotatedHazard{{
			Pending: domain.PendingHazard{
				ID:          "h-1",
				SubmittedAt: submitted,
				Record:      domain.KnownData{ActivityName: "Pipetting reagents", Severity: 4, Likelihood: 2, RPN: 8},
			},
			Activity: domain.AnnotatedField{Status: domain.FieldStatusOld},
			Hazard:   domain.AnnotatedField{Status: domain.FieldStatusNew},
			Control:  domain.AnnotatedField{Status: domain.FieldStatusNew},
			Injury:   domain.AnnotatedField{Status: domain.FieldStatusOld},
		}},
	}
	server := newTestServer(t, &Ports{Hazard: &mockHazardService{}, Review: review})

	_, list, err := server.handleListPending(ctx, nil, ListPendingInput{})
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "h-1", list.Hazards[0].ID)
	assert.Equal(t, "2026-03-01T09:30:00Z", list.Hazards[0].SubmittedAt)
	assert.Equal(t, "new", list.Hazards[0].Hazard)
	assert.Equal(t, "old", list.Hazards[0].Activity)

	_, approved, err := server.handleApprove(ctx, nil, ReviewInput{ID: " h-1 "})
	require.NoError(t, err)
	assert.Equal(t, ReviewOutput{ID: "h-1", Status: "approved"}, approved)

	_, rejected, err := server.handleReject(ctx, nil, ReviewInput{ID: "h-2"})
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)

	assert.Equal(t, map[string]domain.HazardStatus{
		"h-1": domain.HazardStatusApproved,
		"h-2": domain.HazardStatusRejected,
	}, review.reviewed)

	_, _, err = server.handleApprove(ctx, nil, ReviewInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServer_ReviewTools_Errors(t *testing.T) {
	ctx := context.Background()

	review := &mockReviewService{err: domain.ErrAlreadyReviewed}
	server := newTestServer(t, &Ports{Hazard: &mockHazardService{}, Review: review})

	_, _, err := server.handleApprove(ctx, nil, ReviewInput{ID: "h-1"})
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	assert.Contains(t, err.Error(), "already reviewed")

	review.err = domain.ErrNotFound
	_, _, err = server.handleReject(ctx, nil, ReviewInput{ID: "nope"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "no pending hazard")
}
