// Package tower adapts the Seqera Platform CLI: launching pipeline runs,
// reading run status, and best-effort cancellation. The free-form launcher
// output is parsed here so callers only ever see typed run handles.
package tower
