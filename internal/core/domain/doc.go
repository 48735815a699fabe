// Package domain defines the core business entities for dsbulk.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - WorkItem: A URL or storage key-prefix to upload
//   - Batch: Work items submitted together as one remote task
//   - PendingSet: Work items not yet confirmed as uploaded
//   - TaskHandle / TaskReport: Remote task identity and status
//   - RunConfig: Immutable parameters of one upload run
//   - Profile: Connection settings for a service instance
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
