package synapse_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spatialops/internal/services"
	"spatialops/internal/services/synapse"
)

type downloadExecutor struct {
	err  error
	args [][]string
}

func (d *downloadExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	d.args = append(d.args, append([]string(nil), args...))
	if d.err != nil {
		return d.err
	}
	// Simulate the CLI writing the entity into --downloadLocation.
	dest := args[len(args)-1]
	return os.WriteFile(filepath.Join(dest, "manifest.csv"), []byte("sample\n"), 0o644)
}

func TestIsSynapseID(t *testing.T) {
	cases := map[string]bool{
		"syn12345":       true,
		"syn://syn12345": true,
		" syn7 ":         true,
		"/tmp/file.csv":  false,
		"synapse":        false,
		"s3://bucket/k":  false,
	}
	for ref, want := range cases {
		if got := synapse.IsSynapseID(ref); got != want {
			t.Fatalf("IsSynapseID(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestGetFileDownloads(t *testing.T) {
	dir := t.TempDir()
	exec := &downloadExecutor{}
	client, err := synapse.New("synapse", synapse.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	path, err := client.GetFile(context.Background(), "syn://syn12345", dir)
	if err != nil {
		t.Fatalf("GetFile returned error: %v", err)
	}
	if filepath.Base(path) != "manifest.csv" {
		t.Fatalf("unexpected downloaded path: %q", path)
	}
	want := []string{"get", "syn12345", "--downloadLocation", dir}
	got := exec.args[0]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGetFileRejectsNonSynapseRef(t *testing.T) {
	client, err := synapse.New("synapse", synapse.WithExecutor(&downloadExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetFile(context.Background(), "/local/file.csv", t.TempDir()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetFilePropagatesCommandError(t *testing.T) {
	client, err := synapse.New("synapse", synapse.WithExecutor(&downloadExecutor{err: errors.New("403")}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetFile(context.Background(), "syn1", t.TempDir()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestGetFileErrorsWhenNothingDownloaded(t *testing.T) {
	client, err := synapse.New("synapse", synapse.WithExecutor(noopExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetFile(context.Background(), "syn1", t.TempDir()); err == nil {
		t.Fatal("expected error when no file appears")
	}
}

type noopExecutor struct{}

func (noopExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	return nil
}
