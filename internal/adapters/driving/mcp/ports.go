package mcp

import (
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Hazard provides suggestions and novelty checks.
	Hazard driving.HazardService

	// Review runs the approval workflow. Review tools are only
	// registered when it is set.
	Review driving.ReviewService

	// Knowledge reports knowledge base statistics.
	Knowledge driving.KnowledgeService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Hazard == nil {
		return ErrMissingHazardService
	}
	return nil
}
