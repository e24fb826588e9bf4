// Package layout computes the canonical object-storage paths and generated
// samplesheet for a sequence run. Pure string construction: no network or
// filesystem access happens here.
package layout
