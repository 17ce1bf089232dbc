// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewQueue lists pending hazards.
	ViewQueue ViewType = iota
	// ViewDetail shows every field of one pending hazard.
	ViewDetail
	// ViewStats shows knowledge base health.
	ViewStats
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewQueue:
		return "queue"
	case ViewDetail:
		return "detail"
	case ViewStats:
		return "stats"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// PendingLoaded carries the annotated review queue.
type PendingLoaded struct {
	Hazards []domain.AnnotatedHazard
	Err     error
}

// HazardSelected opens the detail view for a pending hazard.
type HazardSelected struct {
	Hazard domain.AnnotatedHazard
}

// HazardReviewed signals an approve or reject finished.
type HazardReviewed struct {
	ID     string
	Status domain.HazardStatus
	Err    error
}

// StatsLoaded carries knowledge base statistics.
type StatsLoaded struct {
	Stats []driving.DomainStats
	Err   error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ReviewRequested asks the app to approve or reject a pending hazard.
type ReviewRequested struct {
	ID       string
	Decision domain.HazardStatus
}
