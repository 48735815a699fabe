// Package deepsearch implements driven.UploadService against the
// document-conversion service's public REST API.
//
// Access tokens are exchanged for the profile's username and API key and
// attached to requests through golang.org/x/oauth2. Requests are paced by
// a token-bucket limiter that backs off after 429 responses.
package deepsearch
