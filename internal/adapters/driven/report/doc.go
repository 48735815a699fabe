// Package report writes failed batches to an append-only log file.
package report
