// Package synapse adapts the Synapse CLI for content-store file retrieval,
// used to fetch manifests referenced by Synapse ID.
package synapse
