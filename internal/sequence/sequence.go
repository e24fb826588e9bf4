package sequence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"spatialops/internal/layout"
	"spatialops/internal/logging"
	"spatialops/internal/manifest"
	"spatialops/internal/services"
	"spatialops/internal/services/tower"
)

// Outcome is the sequencer's own terminal state.
type Outcome string

const (
	OutcomeCompleted  Outcome = "COMPLETED"
	OutcomeAborted    Outcome = "ABORTED"
	OutcomeSkippedAll Outcome = "SKIPPED_ALL"
)

// Platform launches and tracks external pipeline runs.
type Platform interface {
	Launch(ctx context.Context, spec tower.LaunchSpec) (tower.Run, error)
	StatusReader
}

// Publisher performs the object-store writes a stage needs before launch.
type Publisher interface {
	Put(ctx context.Context, uri string, body []byte) error
}

// StageResult records how one stage ended.
type StageResult struct {
	Stage    string
	RunID    string
	RunName  string
	Status   tower.Status
	Duration time.Duration
	Skipped  bool
	DryRun   bool
}

// Report summarizes a finished (or aborted) sequence.
type Report struct {
	SequenceID  string
	Outcome     Outcome
	Stages      []StageResult
	FailedStage string
	FailedRunID string
}

// Sequencer is the top-level run-to-completion controller.
type Sequencer struct {
	cfg      Config
	platform Platform
	store    Publisher
	logger   *slog.Logger
	plan     io.Writer
}

// New assembles a sequencer. The plan writer receives the dry-run parameter
// chain; it may be nil when dry-run is off.
func New(cfg Config, platform Platform, store Publisher, logger *slog.Logger, plan io.Writer) *Sequencer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if plan == nil {
		plan = io.Discard
	}
	return &Sequencer{
		cfg:      cfg,
		platform: platform,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "sequence"),
		plan:     plan,
	}
}

// Run executes the sequence over the parsed manifest. The returned report is
// valid even when err is non-nil; it names the failed stage and run.
//
// Dry runs carry no sequence ID: their output must be a pure function of the
// config and manifest so repeated invocations are byte-identical.
func (s *Sequencer) Run(ctx context.Context, m *manifest.Manifest) (Report, error) {
	var report Report
	logger := s.logger
	if !s.cfg.DryRun {
		report.SequenceID = uuid.NewString()
		logger = logger.With(logging.String(logging.FieldSequenceID, report.SequenceID))
	}

	if err := s.cfg.Validate(m); err != nil {
		return report, err
	}

	lay := layout.New(s.cfg.OutputBase)
	records := m.Records()
	parentID := s.cfg.resolveParentID(m)

	// The data location each stage consumes: staging output until the
	// analysis stage succeeds, results output afterwards. With stage
	// skipped, pre-existing staged data at the same paths is trusted.
	location := lay.StagingPrefix()

	allSkipped := true
	for _, stage := range Order {
		if s.cfg.Skipped(stage) {
			logger.Info("stage skipped",
				logging.String(logging.FieldStage, stage),
				logging.String(logging.FieldEventType, "stage_skip"),
			)
			report.Stages = append(report.Stages, StageResult{Stage: stage, Skipped: true})
			continue
		}
		allSkipped = false

		spec, err := renderStage(s.cfg, lay, records, stage, location, parentID)
		if err != nil {
			report.Outcome = OutcomeAborted
			report.FailedStage = stage
			return report, services.Wrap(services.ErrConfiguration, stage, "render", "", err)
		}

		if s.cfg.DryRun {
			if err := s.writePlan(spec); err != nil {
				report.Outcome = OutcomeAborted
				report.FailedStage = stage
				return report, fmt.Errorf("write plan: %w", err)
			}
			report.Stages = append(report.Stages, StageResult{Stage: stage, DryRun: true})
			if spec.nextLoc != "" {
				location = spec.nextLoc
			}
			continue
		}

		result, err := s.runStage(ctx, logger, spec, report.SequenceID)
		report.Stages = append(report.Stages, result)
		if err != nil {
			report.Outcome = OutcomeAborted
			report.FailedStage = stage
			report.FailedRunID = result.RunID
			return report, err
		}
		if spec.nextLoc != "" {
			location = spec.nextLoc
		}
	}

	if allSkipped {
		report.Outcome = OutcomeSkippedAll
		logger.Info("all stages skipped; nothing to do",
			logging.String(logging.FieldEventType, "sequence_noop"))
		return report, nil
	}

	report.Outcome = OutcomeCompleted
	logger.Info("sequence completed",
		logging.String(logging.FieldEventType, "sequence_complete"),
		logging.Int("stages", len(report.Stages)),
	)
	return report, nil
}

// runStage performs the pre-launch uploads, launches the external run, and
// waits for its terminal state.
func (s *Sequencer) runStage(ctx context.Context, logger *slog.Logger, spec stageSpec, sequenceID string) (StageResult, error) {
	stageCtx := services.WithStage(ctx, spec.name)
	stageLogger := logging.WithContext(stageCtx, logger)
	started := time.Now()
	result := StageResult{Stage: spec.name}

	for _, up := range spec.uploads {
		stageLogger.Info("publishing stage input",
			logging.String(logging.FieldEventType, "stage_publish"),
			logging.String("uri", up.URI),
		)
		if err := s.store.Put(stageCtx, up.URI, up.Body); err != nil {
			return result, services.Wrap(services.ErrExternalTool, spec.name, "publish input", up.URI, err)
		}
	}

	paramsFile, err := s.writeParamsFile(spec, sequenceID)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, spec.name, "write params file", "", err)
	}

	runName := fmt.Sprintf("spatialops-%s-%s", spec.name, sequenceID[:8])
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("pipeline", spec.ref.Pipeline),
		logging.String("revision", spec.ref.Revision),
	)

	run, err := s.platform.Launch(stageCtx, tower.LaunchSpec{
		Stage:      spec.name,
		Pipeline:   spec.ref.Pipeline,
		Revision:   spec.ref.Revision,
		ParamsFile: paramsFile,
		Params:     paramMap(spec.params),
		ComputeEnv: s.cfg.ComputeEnv,
		RunName:    runName,
	})
	if err != nil {
		return result, err
	}
	result.RunID = run.ID
	result.RunName = runName

	runLogger := stageLogger.With(logging.String(logging.FieldRunID, run.ID))
	runLogger.Info("run launched", logging.String(logging.FieldEventType, "run_launch"))

	status, err := Await(stageCtx, s.platform, run, s.cfg.PollInterval, runLogger)
	result.Status = status
	result.Duration = time.Since(started)
	if err != nil {
		return result, err
	}
	if status != tower.StatusSucceeded {
		runLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("status", string(status)),
		)
		return result, services.Wrap(services.ErrStageFailure, spec.name, "await",
			fmt.Sprintf("run %s finished %s", run.ID, status), nil)
	}

	runLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", result.Duration),
	)
	return result, nil
}

// writePlan emits one stage's rendered parameter chain to the plan sink. The
// output is a pure function of the config and manifest, so repeated dry runs
// are byte-identical.
func (s *Sequencer) writePlan(spec stageSpec) error {
	doc, err := renderParamsYAML(spec.params)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.plan, "stage: %s\npipeline: %s\nrevision: %s\n", spec.name, spec.ref.Pipeline, spec.ref.Revision); err != nil {
		return err
	}
	for _, up := range spec.uploads {
		if _, err := fmt.Fprintf(s.plan, "publish: %s\n", up.URI); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.plan, "params:\n"); err != nil {
		return err
	}
	for _, line := range splitLines(doc) {
		if _, err := fmt.Fprintf(s.plan, "  %s\n", line); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(s.plan)
	return err
}

func (s *Sequencer) writeParamsFile(spec stageSpec, sequenceID string) (string, error) {
	doc, err := renderParamsYAML(spec.params)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.cfg.WorkDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.WorkDir, fmt.Sprintf("%s-%s-params.yaml", sequenceID[:8], spec.name))
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func splitLines(doc []byte) []string {
	var lines []string
	start := 0
	for i, b := range doc {
		if b == '\n' {
			lines = append(lines, string(doc[start:i]))
			start = i + 1
		}
	}
	if start < len(doc) {
		lines = append(lines, string(doc[start:]))
	}
	return lines
}
