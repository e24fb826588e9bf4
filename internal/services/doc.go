// Package services holds the shared error taxonomy, context annotations, and
// command execution contract used by the external CLI adapters.
package services
