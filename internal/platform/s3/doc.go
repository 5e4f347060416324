// Package s3 provides a minimal client for S3 and S3-compatible object
// storage.
//
// It backs the S3 metadata store, which keeps per-machine provider state
// (instance IDs, elastic address records) in a bucket so that several
// workstations can share one environment.
package s3
