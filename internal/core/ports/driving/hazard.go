package driving

import (
	"context"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// HazardService is the entry point used by the form builder for
// AI-assisted suggestions and novelty badges.
type HazardService interface {
	// Suggest returns hazard suggestions for a new work activity.
	// Known activities reuse stored records; novel ones are synthesized
	// using the closest stored records as context.
	Suggest(ctx context.Context, activity string) ([]domain.StructuredHazardFields, error)

	// MatchedActivities suggests work activities for a title and process.
	MatchedActivities(ctx context.Context, title, process string) ([]string, error)

	// MatchedRecords returns the stored records behind the closest
	// title and process match, without any generation.
	MatchedRecords(ctx context.Context, title, process string) ([]domain.KnownData, error)

	// IsNovel reports whether text is new to the given knowledge domain.
	IsNovel(ctx context.Context, d domain.KnowledgeDomain, text string) (bool, error)

	// Classify exposes the full classification including the score.
	Classify(ctx context.Context, d domain.KnowledgeDomain, text string) (domain.Classification, error)
}
