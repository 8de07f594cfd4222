// Package objectstore groups the depot.ObjectStore implementations.
//
// Subpackages:
//   - s3: Amazon S3 (or any S3 compatible endpoint) with presigned GET links
//   - filesystem: a local directory with links served and verified by depot
package objectstore
