// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for an upload run:
//
//   - UploadService: Submits batches to the remote service and polls tasks
//   - CheckpointStore: Persists the pending set for resume
//   - ConfigStore: Application configuration (profiles)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ErrorReporter: Append-only log of failed batches
//   - RunStore: Run and batch history
//   - PrefixLister: Discovers key-prefixes in an S3 bucket
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
