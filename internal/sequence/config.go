package sequence

import (
	"fmt"
	"time"

	"spatialops/internal/manifest"
	"spatialops/internal/objstore"
	"spatialops/internal/services"
)

// Stage names, in fixed execution order.
const (
	StageStage     = "stage"
	StageSpatialVI = "spatialvi"
	StageSynindex  = "synindex"
)

// Order lists the stages the sequencer may run, in order.
var Order = []string{StageStage, StageSpatialVI, StageSynindex}

// PipelineRef names one launchable pipeline.
type PipelineRef struct {
	Pipeline string
	Revision string
}

// Config is the immutable run description, assembled once at startup and
// never mutated afterwards.
type Config struct {
	InputPath       string // local manifest path (already fetched if remote)
	InputStem       string // manifest filename without extension
	OutputBase      string // s3:// prefix all artifacts live under
	ResultsParentID string // content-store container for indexed results

	Stage     PipelineRef
	SpatialVI PipelineRef
	Synindex  PipelineRef

	SpacerangerRef      string
	SpacerangerProbeset string
	Cytassist           bool

	ComputeEnv string

	SkipStage     bool
	SkipSpatialVI bool
	SkipSynindex  bool
	DryRun        bool

	PollInterval time.Duration
	WorkDir      string // local scratch for rendered params files
}

// Skipped reports whether the named stage is removed from the sequence.
func (c Config) Skipped(stage string) bool {
	switch stage {
	case StageStage:
		return c.SkipStage
	case StageSpatialVI:
		return c.SkipSpatialVI
	case StageSynindex:
		return c.SkipSynindex
	}
	return false
}

// Validate checks the run description before any stage launches. The parent
// ID for indexing may come from the --results-parent-id flag or from the
// manifest's results_parent_id column.
func (c Config) Validate(m *manifest.Manifest) error {
	if c.InputPath == "" {
		return services.Wrap(services.ErrConfiguration, "", "validate", "input manifest is required", nil)
	}
	if !objstore.IsS3URI(c.OutputBase) {
		return services.Wrap(services.ErrConfiguration, "", "validate",
			fmt.Sprintf("outdir must be an s3:// URI, got %q", c.OutputBase), nil)
	}
	if c.PollInterval <= 0 {
		return services.Wrap(services.ErrConfiguration, "", "validate", "poll interval must be positive", nil)
	}
	if !c.SkipSynindex && c.resolveParentID(m) == "" {
		return services.Wrap(services.ErrConfiguration, "", "validate",
			"results parent ID required for the synindex stage (flag --results-parent-id or manifest column results_parent_id)", nil)
	}
	return nil
}

// resolveParentID prefers the explicit flag over the manifest column.
func (c Config) resolveParentID(m *manifest.Manifest) string {
	if c.ResultsParentID != "" {
		return c.ResultsParentID
	}
	if m == nil {
		return ""
	}
	for _, record := range m.Records() {
		if record.ResultsParentID != "" {
			return record.ResultsParentID
		}
	}
	return ""
}
