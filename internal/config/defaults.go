package config

const (
	defaultWorkDir             = "~/.local/share/spatialops/work"
	defaultLockDir             = "~/.local/state/spatialops/locks"
	defaultTowerCLI            = "tw"
	defaultSynapseCLI          = "synapse"
	defaultStagePipeline       = "Sage-Bionetworks-Workflows/nf-synstage"
	defaultStageRevision       = "main"
	defaultSpatialVIPipeline   = "nf-core/spatialvi"
	defaultSpatialVIRevision   = "dev"
	defaultSynindexPipeline    = "Sage-Bionetworks-Workflows/nf-synindex"
	defaultSynindexRevision    = "main"
	defaultPollIntervalSeconds = 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LockDir: defaultLockDir,
		},
		Tower: Tower{
			CLI: defaultTowerCLI,
		},
		Synapse: Synapse{
			CLI: defaultSynapseCLI,
		},
		Pipelines: Pipelines{
			StagePipeline:     defaultStagePipeline,
			StageRevision:     defaultStageRevision,
			SpatialVIPipeline: defaultSpatialVIPipeline,
			SpatialVIRevision: defaultSpatialVIRevision,
			SynindexPipeline:  defaultSynindexPipeline,
			SynindexRevision:  defaultSynindexRevision,
		},
		Workflow: Workflow{
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
