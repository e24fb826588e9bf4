// Package manifest parses the tabular sample manifest into immutable
// per-sample records.
package manifest
