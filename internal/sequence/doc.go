// Package sequence drives the fixed cross-pipeline stage order: staging the
// sample inputs, running the analysis pipeline, and indexing results back
// into the content store. Stages execute strictly sequentially; each one is
// launched on the external platform and polled to a terminal state before the
// next is considered. The first non-success terminal state aborts the run.
package sequence
