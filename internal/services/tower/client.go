package tower

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"spatialops/internal/services"
)

// LaunchSpec parameterizes one external pipeline launch.
type LaunchSpec struct {
	Stage      string
	Pipeline   string
	Revision   string
	ParamsFile string
	Params     map[string]string
	ComputeEnv string
	RunName    string
}

// Run is the opaque handle for one launched execution. It is consumed by the
// monitor and never persisted; if the orchestrator dies mid-sequence the
// remote run keeps going untracked.
type Run struct {
	Stage  string
	ID     string
	Name   string
	Params map[string]string
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the Seqera Platform CLI. The access token is read by the CLI
// from the inherited environment and never appears in arguments.
type Client struct {
	binary    string
	workspace string
	exec      services.Executor
}

// New constructs a platform client.
func New(binary, workspace string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("tower cli binary required")
	}
	client := &Client{
		binary:    binary,
		workspace: strings.TrimSpace(workspace),
		exec:      services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Launch starts one external pipeline execution. Not idempotent: a retry
// after failure may create a duplicate remote run, so callers never retry.
func (c *Client) Launch(ctx context.Context, spec LaunchSpec) (Run, error) {
	if strings.TrimSpace(spec.Pipeline) == "" {
		return Run{}, services.Wrap(services.ErrLaunch, spec.Stage, "launch", "pipeline reference required", nil)
	}

	args := []string{"launch", spec.Pipeline}
	if spec.Revision != "" {
		args = append(args, "--revision", spec.Revision)
	}
	if c.workspace != "" {
		args = append(args, "--workspace", c.workspace)
	}
	if spec.ComputeEnv != "" {
		args = append(args, "--compute-env", spec.ComputeEnv)
	}
	if spec.ParamsFile != "" {
		args = append(args, "--params-file", spec.ParamsFile)
	}
	if spec.RunName != "" {
		args = append(args, "--name", spec.RunName)
	}

	var lines []string
	if err := c.exec.Run(ctx, c.binary, args, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		return Run{}, services.Wrap(services.ErrLaunch, spec.Stage, "tw launch", "", err)
	}

	id, ok := extractRunID(lines)
	if !ok {
		return Run{}, services.Wrap(services.ErrLaunch, spec.Stage, "tw launch",
			"no run identifier found in launcher output", nil)
	}
	return Run{Stage: spec.Stage, ID: id, Name: spec.RunName, Params: spec.Params}, nil
}

// Status reads the run's current state. An unreachable endpoint or
// unparsable response yields StatusUnknown alongside the error.
func (c *Client) Status(ctx context.Context, runID string) (Status, error) {
	args := []string{"runs", "view", "--id", runID, "--output", "json"}
	if c.workspace != "" {
		args = append(args, "--workspace", c.workspace)
	}

	var output strings.Builder
	if err := c.exec.Run(ctx, c.binary, args, func(line string) {
		output.WriteString(line)
		output.WriteByte('\n')
	}); err != nil {
		return StatusUnknown, fmt.Errorf("tw runs view %s: %w", runID, err)
	}

	status, err := parseStatusResponse(output.String())
	if err != nil {
		return StatusUnknown, fmt.Errorf("tw runs view %s: %w", runID, err)
	}
	return status, nil
}

// Cancel asks the platform to stop the run. Best effort: errors are returned
// for logging but the caller proceeds regardless.
func (c *Client) Cancel(ctx context.Context, runID string) error {
	args := []string{"runs", "cancel", "--id", runID}
	if c.workspace != "" {
		args = append(args, "--workspace", c.workspace)
	}
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return fmt.Errorf("tw runs cancel %s: %w", runID, err)
	}
	return nil
}

func parseStatusResponse(payload string) (Status, error) {
	// The CLI prints a banner line before the JSON document on some
	// versions; start at the first brace.
	idx := strings.IndexByte(payload, '{')
	if idx < 0 {
		return StatusUnknown, errors.New("no JSON document in response")
	}

	var doc struct {
		Status   string `json:"status"`
		Workflow struct {
			Status string `json:"status"`
		} `json:"workflow"`
	}
	if err := json.Unmarshal([]byte(payload[idx:]), &doc); err != nil {
		return StatusUnknown, fmt.Errorf("decode status response: %w", err)
	}

	raw := doc.Status
	if raw == "" {
		raw = doc.Workflow.Status
	}
	if raw == "" {
		return StatusUnknown, errors.New("status field missing from response")
	}
	return ParseStatus(raw), nil
}
