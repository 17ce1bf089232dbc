// Package mcp provides an MCP (Model Context Protocol) server adapter for riskmatch.
// It lets AI assistants suggest hazards for work activities, check phrases
// for novelty, and work the administrator review queue.
package mcp

import "errors"

// ErrMissingHazardService is returned when the hazard service is not provided.
var ErrMissingHazardService = errors.New("mcp: hazard service is required")
