package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name   string
		result domain.Classification
		want   []string
	}{
		{
			name:   "known phrase",
			result: domain.Classification{BestMatch: "Hearing protection", Score: 0.91, IsKnown: true},
			want:   []string{"[OLD] ear defenders", "Best match: Hearing protection", "Score:      0.9100"},
		},
		{
			name:   "novel phrase",
			result: domain.Classification{BestMatch: "Hard hat", Score: 0.12},
			want:   []string{"[NEW] ear defenders", "Best match: Hard hat"},
		},
		{
			name:   "empty knowledge base",
			result: domain.Classification{},
			want:   []string{"[NEW]", "(knowledge base is empty)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDomain domain.KnowledgeDomain
			withServices(t, Services{Hazard: &mockHazardService{
				classify: func(_ context.Context, d domain.KnowledgeDomain, _ string) (domain.Classification, error) {
					gotDomain = d
					return tt.result, nil
				},
			}})

			out, err := execute(t, "match", "control", "ear", "defenders")

			require.NoError(t, err)
			assert.Equal(t, domain.DomainControl, gotDomain)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestMatch_JSON(t *testing.T) {
	withServices(t, Services{Hazard: &mockHazardService{
		classify: func(_ context.Context, d domain.KnowledgeDomain, text string) (domain.Classification, error) {
			return domain.Classification{Domain: d, Query: text, BestMatch: "Burns", Score: 0.8, IsKnown: true}, nil
		},
	}})

	out, err := execute(t, "match", "--json", "injury", "burn")

	require.NoError(t, err)
	var got domain.Classification
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, domain.DomainInjury, got.Domain)
	assert.True(t, got.IsKnown)
}

func TestMatch_UnknownDomain(t *testing.T) {
	withServices(t, Services{Hazard: &mockHazardService{}})

	_, err := execute(t, "match", "equipment", "ladder")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMatch_ErrorPrintsHint(t *testing.T) {
	withServices(t, Services{Hazard: &mockHazardService{
		classify: func(context.Context, domain.KnowledgeDomain, string) (domain.Classification, error) {
			return domain.Classification{}, domain.ErrCacheCorrupt
		},
	}})

	out, err := execute(t, "match", "hazard", "noise")

	assert.ErrorIs(t, err, domain.ErrCacheCorrupt)
	assert.Contains(t, out, "riskmatch kb reembed")
}
