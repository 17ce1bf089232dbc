package driving

import (
	"context"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// ReviewService drives the administrator approval workflow.
type ReviewService interface {
	// Submit queues a hazard assessment for review.
	Submit(ctx context.Context, record domain.KnownData) (*domain.PendingHazard, error)

	// Pending lists hazards awaiting review, each field marked new or old.
	Pending(ctx context.Context) ([]domain.AnnotatedHazard, error)

	// Approved lists approved records, most recent first.
	Approved(ctx context.Context, limit int) ([]domain.KnownData, error)

	// Approve stores the hazard's record and teaches every knowledge base
	// its phrases. Returns the first failure; earlier steps are kept.
	Approve(ctx context.Context, id string) error

	// Reject marks a hazard as rejected without learning from it.
	Reject(ctx context.Context, id string) error

	// ApproveAndLearn stores a record directly and learns its phrases.
	ApproveAndLearn(ctx context.Context, record domain.KnownData) error

	// Import stores records in bulk and learns their phrases, rebuilding
	// each domain once. Returns the number of records stored.
	Import(ctx context.Context, records []domain.KnownData) (int, error)

	// Export returns every approved record, oldest first.
	Export(ctx context.Context) ([]domain.KnownData, error)
}
