package sequence

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spatialops/internal/manifest"
	"spatialops/internal/services"
	"spatialops/internal/services/tower"
)

const twoSampleManifest = `sample,fastq_1,fastq_2,fastq_3,fastq_4,image,slide,area
SAMPLE1,id1,id2,id3,id4,id5,V11J26,B1
SAMPLE2,id6,id7,id8,id9,id10,V11J26,C1
`

func parseManifest(t *testing.T, input string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return m
}

type fakePlatform struct {
	outcomes map[string]tower.Status // stage -> terminal status (default SUCCEEDED)
	launches []tower.LaunchSpec
	polls    int
}

func (f *fakePlatform) Launch(ctx context.Context, spec tower.LaunchSpec) (tower.Run, error) {
	f.launches = append(f.launches, spec)
	return tower.Run{Stage: spec.Stage, ID: "run-" + spec.Stage, Name: spec.RunName, Params: spec.Params}, nil
}

func (f *fakePlatform) Status(ctx context.Context, runID string) (tower.Status, error) {
	f.polls++
	stage := strings.TrimPrefix(runID, "run-")
	if status, ok := f.outcomes[stage]; ok {
		return status, nil
	}
	return tower.StatusSucceeded, nil
}

func (f *fakePlatform) Cancel(ctx context.Context, runID string) error { return nil }

type fakeStore struct {
	puts map[string][]byte
}

func (f *fakeStore) Put(ctx context.Context, uri string, body []byte) error {
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[uri] = append([]byte(nil), body...)
	return nil
}

func runConfig(t *testing.T) Config {
	cfg := testConfig()
	cfg.PollInterval = time.Millisecond
	cfg.WorkDir = t.TempDir()
	return cfg
}

func TestRunAllStagesSucceed(t *testing.T) {
	platform := &fakePlatform{}
	store := &fakeStore{}
	seq := New(runConfig(t), platform, store, nil, nil)

	report, err := seq.Run(context.Background(), parseManifest(t, twoSampleManifest))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Outcome != OutcomeCompleted {
		t.Fatalf("got outcome %s, want COMPLETED", report.Outcome)
	}
	if len(platform.launches) != 3 {
		t.Fatalf("expected 3 launches, got %d", len(platform.launches))
	}
	order := []string{StageStage, StageSpatialVI, StageSynindex}
	for i, stage := range order {
		if platform.launches[i].Stage != stage {
			t.Fatalf("launch %d: got stage %q, want %q", i, platform.launches[i].Stage, stage)
		}
	}

	synindex := platform.launches[2]
	if synindex.Params["s3_prefix"] != "s3://bucket/proj/results" {
		t.Fatalf("synindex must index results after analysis, got %q", synindex.Params["s3_prefix"])
	}
	if synindex.Params["parent_id"] != "syn999" {
		t.Fatalf("unexpected parent_id: %q", synindex.Params["parent_id"])
	}

	if _, ok := store.puts["s3://bucket/proj/visium_batch1.csv"]; !ok {
		t.Fatalf("input manifest was not published, puts: %v", keys(store.puts))
	}
	sheet, ok := store.puts["s3://bucket/proj/visium_batch1_spatialvi.csv"]
	if !ok {
		t.Fatalf("samplesheet was not published, puts: %v", keys(store.puts))
	}
	if !strings.Contains(string(sheet), "SAMPLE2,s3://bucket/proj/staging/SAMPLE2/SAMPLE2_archive.tar.gz") {
		t.Fatalf("samplesheet missing second sample row: %q", sheet)
	}

	for _, result := range report.Stages {
		if result.Skipped || result.DryRun {
			t.Fatalf("unexpected skipped/dry result: %+v", result)
		}
		if result.Status != tower.StatusSucceeded {
			t.Fatalf("stage %s status %s", result.Stage, result.Status)
		}
	}
}

func TestRunAbortsOnAnalysisFailure(t *testing.T) {
	platform := &fakePlatform{outcomes: map[string]tower.Status{StageSpatialVI: tower.StatusFailed}}
	seq := New(runConfig(t), platform, &fakeStore{}, nil, nil)

	report, err := seq.Run(context.Background(), parseManifest(t, twoSampleManifest))
	if !errors.Is(err, services.ErrStageFailure) {
		t.Fatalf("expected ErrStageFailure, got %v", err)
	}
	if report.Outcome != OutcomeAborted {
		t.Fatalf("got outcome %s, want ABORTED", report.Outcome)
	}
	if report.FailedStage != StageSpatialVI {
		t.Fatalf("failed stage %q, want spatialvi", report.FailedStage)
	}
	if report.FailedRunID != "run-spatialvi" {
		t.Fatalf("failed run id %q", report.FailedRunID)
	}
	for _, launch := range platform.launches {
		if launch.Stage == StageSynindex {
			t.Fatal("synindex must never launch after an analysis failure")
		}
	}
	if len(platform.launches) != 2 {
		t.Fatalf("expected 2 launches, got %d", len(platform.launches))
	}
}

func TestRunAbortsOnLaunchError(t *testing.T) {
	platform := &failingLaunchPlatform{failStage: StageStage}
	seq := New(runConfig(t), platform, &fakeStore{}, nil, nil)

	report, err := seq.Run(context.Background(), parseManifest(t, twoSampleManifest))
	if !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
	if report.Outcome != OutcomeAborted || report.FailedStage != StageStage {
		t.Fatalf("unexpected report: %+v", report)
	}
}

type failingLaunchPlatform struct {
	fakePlatform
	failStage string
}

func (f *failingLaunchPlatform) Launch(ctx context.Context, spec tower.LaunchSpec) (tower.Run, error) {
	if spec.Stage == f.failStage {
		return tower.Run{}, services.Wrap(services.ErrLaunch, spec.Stage, "tw launch", "no run identifier found in launcher output", nil)
	}
	return f.fakePlatform.Launch(ctx, spec)
}

func TestRunSkipSpatialVIRewiresSynindex(t *testing.T) {
	cfg := runConfig(t)
	cfg.SkipSpatialVI = true
	platform := &fakePlatform{}
	seq := New(cfg, platform, &fakeStore{}, nil, nil)

	report, err := seq.Run(context.Background(), parseManifest(t, twoSampleManifest))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Outcome != OutcomeCompleted {
		t.Fatalf("got outcome %s", report.Outcome)
	}
	if len(platform.launches) != 2 {
		t.Fatalf("expected stage+synindex launches, got %d", len(platform.launches))
	}
	synindex := platform.launches[1]
	if synindex.Stage != StageSynindex {
		t.Fatalf("second launch %q, want synindex", synindex.Stage)
	}
	if synindex.Params["s3_prefix"] != "s3://bucket/proj/staging" {
		t.Fatalf("skipped analysis must rewire synindex to staging, got %q", synindex.Params["s3_prefix"])
	}
}

func TestRunAllSkippedIsNoOpSuccess(t *testing.T) {
	cfg := runConfig(t)
	cfg.SkipStage = true
	cfg.SkipSpatialVI = true
	cfg.SkipSynindex = true
	platform := &fakePlatform{}
	store := &fakeStore{}
	seq := New(cfg, platform, store, nil, nil)

	report, err := seq.Run(context.Background(), parseManifest(t, twoSampleManifest))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Outcome != OutcomeSkippedAll {
		t.Fatalf("got outcome %s, want SKIPPED_ALL", report.Outcome)
	}
	if len(platform.launches) != 0 || platform.polls != 0 || len(store.puts) != 0 {
		t.Fatal("skipped run must have no side effects")
	}
}

func TestRunDryRunNeverTouchesPlatform(t *testing.T) {
	cfg := runConfig(t)
	cfg.DryRun = true
	platform := &fakePlatform{}
	store := &fakeStore{}

	var first bytes.Buffer
	seq := New(cfg, platform, store, nil, &first)
	report, err := seq.Run(context.Background(), parseManifest(t, twoSampleManifest))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Outcome != OutcomeCompleted {
		t.Fatalf("got outcome %s", report.Outcome)
	}
	if len(platform.launches) != 0 || platform.polls != 0 {
		t.Fatal("dry run must never invoke the launcher or monitor")
	}
	if len(store.puts) != 0 {
		t.Fatal("dry run must not publish objects")
	}

	var second bytes.Buffer
	seq2 := New(cfg, &fakePlatform{}, &fakeStore{}, nil, &second)
	if _, err := seq2.Run(context.Background(), parseManifest(t, twoSampleManifest)); err != nil {
		t.Fatalf("second dry run returned error: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatal("dry run output must be byte-identical across runs")
	}

	plan := first.String()
	for _, want := range []string{
		"stage: stage",
		"stage: spatialvi",
		"stage: synindex",
		"input: s3://bucket/proj/visium_batch1_spatialvi.csv",
		"s3_prefix: s3://bucket/proj/results",
		"publish: s3://bucket/proj/visium_batch1.csv",
	} {
		if !strings.Contains(plan, want) {
			t.Fatalf("plan missing %q:\n%s", want, plan)
		}
	}
}

func TestRunValidationFailures(t *testing.T) {
	m := parseManifest(t, twoSampleManifest)

	cfg := runConfig(t)
	cfg.OutputBase = "/local/dir"
	if _, err := New(cfg, &fakePlatform{}, &fakeStore{}, nil, nil).Run(context.Background(), m); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for non-S3 outdir, got %v", err)
	}

	cfg = runConfig(t)
	cfg.ResultsParentID = ""
	if _, err := New(cfg, &fakePlatform{}, &fakeStore{}, nil, nil).Run(context.Background(), m); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for missing parent id, got %v", err)
	}
}

func TestRunParentIDFromManifestColumn(t *testing.T) {
	input := `sample,fastq_1,fastq_2,fastq_3,fastq_4,image,slide,area,results_parent_id
S1,a,b,c,d,e,V1,B1,syn777
`
	cfg := runConfig(t)
	cfg.ResultsParentID = ""
	platform := &fakePlatform{}
	seq := New(cfg, platform, &fakeStore{}, nil, nil)

	if _, err := seq.Run(context.Background(), parseManifest(t, input)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	last := platform.launches[len(platform.launches)-1]
	if last.Params["parent_id"] != "syn777" {
		t.Fatalf("expected manifest-sourced parent id, got %q", last.Params["parent_id"])
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
