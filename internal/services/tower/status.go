package tower

import "strings"

// Status is the lifecycle state of one external pipeline run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusUnknown   Status = "UNKNOWN"
)

// Terminal reports whether no further transition can occur. Unknown is
// terminal: an unresolvable status read is treated as a failure rather than
// retried indefinitely.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled, StatusUnknown:
		return true
	}
	return false
}

// ParseStatus maps the platform's workflow status strings onto the
// orchestrator's enum. Unrecognized values map to Unknown.
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUBMITTED", "PENDING", "QUEUED":
		return StatusPending
	case "RUNNING":
		return StatusRunning
	case "SUCCEEDED", "COMPLETED":
		return StatusSucceeded
	case "FAILED", "ERROR":
		return StatusFailed
	case "CANCELLED", "CANCELED", "ABORTED":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}
