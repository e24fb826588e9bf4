package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"spatialops/internal/config"
	"spatialops/internal/logging"
	"spatialops/internal/manifest"
	"spatialops/internal/objstore"
	"spatialops/internal/runlock"
	"spatialops/internal/sequence"
	"spatialops/internal/services"
	"spatialops/internal/services/synapse"
	"spatialops/internal/services/tower"
)

const towerTokenEnv = "TOWER_ACCESS_TOKEN"

type runOptions struct {
	input               string
	outdir              string
	resultsParentID     string
	spatialviPipeline   string
	spatialviRevision   string
	spacerangerRef      string
	spacerangerProbeset string
	computeEnv          string
	workspace           string
	skipStage           bool
	skipSpatialvi       bool
	skipSynindex        bool
	cytassist           bool
	dryRun              bool
}

func newRunCommand(configFlag *string) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the staging, analysis, and indexing sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSequence(cmd, *configFlag, opts, opts.dryRun)
		},
	}
	addRunFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Compute and print the parameter plan without side effects")
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.input, "input", "", "Sample manifest: local CSV path or Synapse ID")
	flags.StringVar(&opts.outdir, "outdir", "", "Output base as an s3:// URI")
	flags.StringVar(&opts.resultsParentID, "results-parent-id", "", "Synapse container for indexed results")
	flags.StringVar(&opts.spatialviPipeline, "spatialvi-pipeline", "", "Analysis pipeline reference (overrides config)")
	flags.StringVar(&opts.spatialviRevision, "spatialvi-revision", "", "Analysis pipeline revision (overrides config)")
	flags.StringVar(&opts.spacerangerRef, "spaceranger-ref", "", "Space Ranger reference bundle URI")
	flags.StringVar(&opts.spacerangerProbeset, "spaceranger-probeset", "", "Space Ranger probe set URI")
	flags.StringVar(&opts.computeEnv, "compute-env", "", "Compute environment (overrides config)")
	flags.StringVar(&opts.workspace, "workspace", "", "Platform workspace (overrides config)")
	flags.BoolVar(&opts.skipStage, "skip-stage", false, "Skip the staging stage")
	flags.BoolVar(&opts.skipSpatialvi, "skip-spatialvi", false, "Skip the analysis stage")
	flags.BoolVar(&opts.skipSynindex, "skip-synindex", false, "Skip the indexing stage")
	flags.BoolVar(&opts.cytassist, "cytassist", false, "Emit a cytaimage samplesheet column for CytAssist captures")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("outdir")
}

func executeSequence(cmd *cobra.Command, configPath string, opts *runOptions, dryRun bool) error {
	// The only place ambient environment is read: .env then process env.
	_ = godotenv.Load()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	if !objstore.IsS3URI(opts.outdir) {
		return services.Wrap(services.ErrConfiguration, "", "validate",
			fmt.Sprintf("--outdir must be an s3:// URI, got %q", opts.outdir), nil)
	}

	ctx := cmd.Context()
	inputPath := opts.input
	if synapse.IsSynapseID(inputPath) {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		synClient, err := synapse.New(cfg.Synapse.CLI)
		if err != nil {
			return err
		}
		downloaded, err := synClient.GetFile(ctx, inputPath, filepath.Join(cfg.Paths.WorkDir, "manifests"))
		if err != nil {
			return err
		}
		logger.Info("manifest downloaded",
			logging.String(logging.FieldComponent, "cli"),
			logging.String("path", downloaded),
		)
		inputPath = downloaded
	}

	m, err := manifest.ParseFile(inputPath)
	if err != nil {
		return err
	}

	seqCfg := buildSequenceConfig(cfg, opts, inputPath, dryRun)

	if dryRun {
		seq := sequence.New(seqCfg, nil, nil, logger, cmd.OutOrStdout())
		report, err := seq.Run(ctx, m)
		if err != nil {
			return err
		}
		renderSummary(cmd.OutOrStdout(), report)
		return nil
	}

	if strings.TrimSpace(os.Getenv(towerTokenEnv)) == "" {
		return services.Wrap(services.ErrConfiguration, "", "validate",
			towerTokenEnv+" must be set to launch platform runs", nil)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	lock, err := runlock.Acquire(cfg.Paths.LockDir, seqCfg.OutputBase)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	store, err := objstore.New(ctx)
	if err != nil {
		return err
	}
	if err := store.CheckPrefix(ctx, seqCfg.OutputBase); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "check outdir", "", err)
	}

	platform, err := tower.New(cfg.Tower.CLI, pickFlag(opts.workspace, cfg.Tower.Workspace))
	if err != nil {
		return err
	}

	seq := sequence.New(seqCfg, platform, store, logger, nil)
	report, err := seq.Run(ctx, m)
	renderSummary(cmd.OutOrStdout(), report)
	if err != nil {
		if report.FailedStage != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "sequence aborted at stage %s (run %s)\n",
				report.FailedStage, orDash(report.FailedRunID))
		}
		return err
	}
	return nil
}

func pickFlag(flag, fromConfig string) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	return fromConfig
}

func buildSequenceConfig(cfg *config.Config, opts *runOptions, inputPath string, dryRun bool) sequence.Config {
	pick := pickFlag

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return sequence.Config{
		InputPath:       inputPath,
		InputStem:       stem,
		OutputBase:      strings.TrimSpace(opts.outdir),
		ResultsParentID: strings.TrimSpace(opts.resultsParentID),
		Stage: sequence.PipelineRef{
			Pipeline: cfg.Pipelines.StagePipeline,
			Revision: cfg.Pipelines.StageRevision,
		},
		SpatialVI: sequence.PipelineRef{
			Pipeline: pick(opts.spatialviPipeline, cfg.Pipelines.SpatialVIPipeline),
			Revision: pick(opts.spatialviRevision, cfg.Pipelines.SpatialVIRevision),
		},
		Synindex: sequence.PipelineRef{
			Pipeline: cfg.Pipelines.SynindexPipeline,
			Revision: cfg.Pipelines.SynindexRevision,
		},
		SpacerangerRef:      pick(opts.spacerangerRef, cfg.Pipelines.SpacerangerRef),
		SpacerangerProbeset: pick(opts.spacerangerProbeset, cfg.Pipelines.SpacerangerProbeset),
		Cytassist:           opts.cytassist || cfg.Pipelines.Cytassist,
		ComputeEnv:          pick(opts.computeEnv, cfg.Tower.ComputeEnv),
		SkipStage:           opts.skipStage,
		SkipSpatialVI:       opts.skipSpatialvi,
		SkipSynindex:        opts.skipSynindex,
		DryRun:              dryRun,
		PollInterval:        time.Duration(cfg.Workflow.PollIntervalSeconds) * time.Second,
		WorkDir:             cfg.Paths.WorkDir,
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
