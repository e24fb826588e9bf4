package sequence

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"gopkg.in/yaml.v3"

	"spatialops/internal/layout"
	"spatialops/internal/manifest"
)

// Param is one rendered launch parameter. Ordered slices keep params-file and
// plan output deterministic; YAML maps would not preserve ordering.
type Param struct {
	Key   string
	Value string
}

// upload is one object-store write performed before a stage launches.
type upload struct {
	URI  string
	Body []byte
}

// stageSpec is a fully rendered stage: pipeline reference, launch parameters,
// and pre-launch object-store writes.
type stageSpec struct {
	name     string
	ref      PipelineRef
	params   []Param
	uploads  []upload
	nextLoc  string // data location after this stage succeeds ("" = unchanged)
	location string // data location this stage consumes
}

// renderStage computes the launch parameters for one stage, threading the
// current data location (the previous successful stage's output prefix).
func renderStage(cfg Config, lay layout.Layout, records []manifest.SampleRecord, stage, location, parentID string) (stageSpec, error) {
	switch stage {
	case StageStage:
		body, err := renderInputManifest(records)
		if err != nil {
			return stageSpec{}, fmt.Errorf("render input manifest: %w", err)
		}
		inputURI := lay.InputManifestURI(cfg.InputStem)
		return stageSpec{
			name: StageStage,
			ref:  cfg.Stage,
			params: []Param{
				{Key: "input", Value: inputURI},
				{Key: "outdir", Value: lay.StagingPrefix()},
			},
			uploads:  []upload{{URI: inputURI, Body: body}},
			location: location,
			nextLoc:  lay.StagingPrefix(),
		}, nil

	case StageSpatialVI:
		sheet, err := layout.RenderSamplesheet(lay.Artifacts(records), cfg.Cytassist)
		if err != nil {
			return stageSpec{}, fmt.Errorf("render samplesheet: %w", err)
		}
		sheetURI := lay.SamplesheetURI(cfg.InputStem)
		params := []Param{
			{Key: "input", Value: sheetURI},
			{Key: "outdir", Value: lay.ResultsPrefix()},
		}
		if cfg.SpacerangerRef != "" {
			params = append(params, Param{Key: "spaceranger_reference", Value: cfg.SpacerangerRef})
		}
		if cfg.SpacerangerProbeset != "" {
			params = append(params, Param{Key: "spaceranger_probeset", Value: cfg.SpacerangerProbeset})
		}
		return stageSpec{
			name:     StageSpatialVI,
			ref:      cfg.SpatialVI,
			params:   params,
			uploads:  []upload{{URI: sheetURI, Body: sheet}},
			location: location,
			nextLoc:  lay.ResultsPrefix(),
		}, nil

	case StageSynindex:
		// Indexes whatever the previous completed stage published; with
		// spatialvi skipped this resolves to the staging location.
		return stageSpec{
			name: StageSynindex,
			ref:  cfg.Synindex,
			params: []Param{
				{Key: "s3_prefix", Value: location},
				{Key: "parent_id", Value: parentID},
			},
			location: location,
		}, nil
	}
	return stageSpec{}, fmt.Errorf("unknown stage %q", stage)
}

// renderInputManifest reserializes the parsed records in canonical column
// order for the staging pipeline.
func renderInputManifest(records []manifest.SampleRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(manifest.RequiredColumns); err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := writer.Write(record.Row()); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderParamsYAML produces the params-file document in declaration order.
// Each value passes through the YAML encoder so quoting stays correct.
func renderParamsYAML(params []Param) ([]byte, error) {
	var buf bytes.Buffer
	for _, param := range params {
		line, err := yaml.Marshal(map[string]string{param.Key: param.Value})
		if err != nil {
			return nil, err
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}

// paramMap converts rendered params for the run handle.
func paramMap(params []Param) map[string]string {
	out := make(map[string]string, len(params))
	for _, param := range params {
		out[param.Key] = param.Value
	}
	return out
}
