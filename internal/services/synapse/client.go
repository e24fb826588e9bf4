package synapse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"spatialops/internal/services"
)

var synIDPattern = regexp.MustCompile(`^syn\d+$`)

// IsSynapseID reports whether ref names a Synapse entity (bare syn ID or
// syn:// URI) rather than a local path.
func IsSynapseID(ref string) bool {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "syn://") {
		return true
	}
	return synIDPattern.MatchString(ref)
}

// NormalizeID strips the syn:// scheme, leaving the bare entity ID.
func NormalizeID(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "syn://")
	return strings.TrimSuffix(ref, "/")
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

// Client wraps the Synapse CLI for content-store file retrieval. The auth
// token is read by the CLI from the inherited environment.
type Client struct {
	binary string
	exec   services.Executor
}

// New constructs a Synapse client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("synapse cli binary required")
	}
	client := &Client{binary: binary, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetFile downloads the entity into destDir and returns the local path of the
// downloaded file. The CLI reports the filename in free text, so the result
// is located by scanning destDir for the newest regular file.
func (c *Client) GetFile(ctx context.Context, ref, destDir string) (string, error) {
	id := NormalizeID(ref)
	if !synIDPattern.MatchString(id) {
		return "", services.Wrap(services.ErrValidation, "synapse", "get", fmt.Sprintf("not a synapse ID: %q", ref), nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	args := []string{"get", id, "--downloadLocation", destDir}
	if err := c.exec.Run(ctx, c.binary, args, func(string) {}); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "synapse", "get", id, err)
	}

	path, err := newestFile(destDir)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "synapse", "get",
			fmt.Sprintf("%s produced no file in %s", id, destDir), err)
	}
	return path, nil
}

func newestFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var best string
	var bestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, entry.Name())
			bestTime = info.ModTime()
		}
	}
	if best == "" {
		return "", errors.New("no files downloaded")
	}
	return best, nil
}
