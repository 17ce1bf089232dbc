package driven

import (
	"context"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// KnownDataStore persists approved hazard assessment records.
// Records are append-only from the core's point of view.
type KnownDataStore interface {
	// Save inserts a record and sets its ID and CreatedAt.
	Save(ctx context.Context, record *domain.KnownData) error

	// FindByActivity returns records whose activity name equals name exactly.
	FindByActivity(ctx context.Context, name string) ([]domain.KnownData, error)

	// FindByTitleProcess returns records whose title and process match
	// the arguments ignoring case. Case folding is Unicode-aware, so
	// "ÉCOLE" matches "école".
	FindByTitleProcess(ctx context.Context, title, process string) ([]domain.KnownData, error)

	// List returns the most recent records first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]domain.KnownData, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// HazardStore persists hazards submitted for review.
type HazardStore interface {
	// Save inserts or replaces a pending hazard.
	Save(ctx context.Context, hazard *domain.PendingHazard) error

	// Get retrieves a hazard by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.PendingHazard, error)

	// ListByStatus returns hazards in submission order.
	ListByStatus(ctx context.Context, status domain.HazardStatus) ([]domain.PendingHazard, error)

	// UpdateStatus sets the review status and review time.
	UpdateStatus(ctx context.Context, id string, status domain.HazardStatus) error
}

// HazardReplyParser turns a generation reply into structured hazards.
// It is paired with the hazard assessment prompt; swapping the prompt
// format means swapping the parser.
type HazardReplyParser interface {
	// Parse extracts one record per hazard block. A reply with no
	// recognisable blocks yields an empty slice.
	Parse(reply string) []domain.StructuredHazardFields
}
