// Package objstore handles the orchestrator's object-storage concerns: s3://
// URI parsing and joining, output-prefix reachability checks, and samplesheet
// publication.
package objstore
