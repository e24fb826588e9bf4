package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed manifests or bad user input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrLaunch marks a failed external pipeline launch, or a launch whose
	// run identifier could not be recovered from the launcher output.
	ErrLaunch = errors.New("launch error")
	// ErrPoll marks a status read that could not be resolved to a known state.
	ErrPoll = errors.New("poll error")
	// ErrStageFailure marks an external run that reached a failed or
	// cancelled terminal state.
	ErrStageFailure = errors.New("stage failure")
	// ErrExternalTool marks any other external command failure.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether the error should abort the sequence before any stage
// is launched (as opposed to a stage-scoped failure mid-sequence).
func Fatal(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
