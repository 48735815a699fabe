// Package file stores the pending set as a plain-text checkpoint file,
// one work item per line. The file doubles as a resume point: passing it
// back as the input of a new run continues where the last one stopped.
package file
