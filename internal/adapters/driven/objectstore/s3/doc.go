// Package s3 reads S3 credentials files and lists key-prefixes in
// S3-compatible buckets.
//
// The credentials file is the JSON form of domain.S3Coordinates, the same
// document the upload service accepts in S3 mode. PrefixLister talks to the
// bucket directly with aws-sdk-go-v2 so an input file of key-prefixes can be
// generated before a run.
package s3
