// Package driving defines the use cases riskmatch offers to its front ends:
// hazard suggestion, knowledge base maintenance, review of novel hazards
// and settings. The CLI, MCP server and TUI depend only on these
// interfaces; internal/core/services implements them.
package driving
