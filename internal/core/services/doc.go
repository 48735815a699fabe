// Package services implements the driving port interfaces.
//
// UploadOrchestrator holds the core of dsbulk: batching, bounded concurrency,
// task polling and checkpointing. The profile, history and prefix services
// are thin layers over their driven ports.
//
// Services depend only on domain and the port interfaces.
package services
