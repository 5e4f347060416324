// Package metadata persists per-machine provider state between runs.
//
// State is a small set of named values per machine: the instance ID written
// at handoff and the elastic address record written when an address is
// associated. The file backend keeps them under the data directory; the S3
// backend keeps them in a bucket.
package metadata
