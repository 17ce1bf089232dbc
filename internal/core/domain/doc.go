// Package domain defines the core business entities for riskmatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - KnowledgeDomain: One of the parallel knowledge bases (activity, hazard, ...)
//   - Match: A ranked corpus entry with its cosine similarity
//   - StructuredHazardFields: Typed hazard assessment fields
//   - KnownData: A historical, approved hazard assessment record
//   - PendingHazard: A novel hazard awaiting administrator review
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
