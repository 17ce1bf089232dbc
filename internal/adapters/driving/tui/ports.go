// Package tui provides the interactive review queue for riskmatch.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Review drives the approval workflow. Required.
	Review driving.ReviewService

	// Knowledge reports knowledge base health. Optional; the stats
	// view is disabled without it.
	Knowledge driving.KnowledgeService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(review driving.ReviewService, knowledge driving.KnowledgeService) *Ports {
	return &Ports{
		Review:    review,
		Knowledge: knowledge,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Review == nil {
		return ErrMissingReviewService
	}
	return nil
}
