package layout

import (
	"strings"

	"spatialops/internal/manifest"
	"spatialops/internal/objstore"
)

// Layout derives the canonical object-storage locations every stage reads and
// writes under a run's output base. All methods are pure string construction;
// a dry run computes paths identical to a real run.
type Layout struct {
	base string
}

// New normalizes the output base (trailing slashes stripped) and returns the
// run layout.
func New(outputBase string) Layout {
	return Layout{base: strings.TrimRight(strings.TrimSpace(outputBase), "/")}
}

// Base returns the normalized output base.
func (l Layout) Base() string { return l.base }

// StagingPrefix is the root all staged sample inputs live under.
func (l Layout) StagingPrefix() string {
	return objstore.Join(l.base, "staging")
}

// ResultsPrefix is the root the analysis pipeline publishes results under.
func (l Layout) ResultsPrefix() string {
	return objstore.Join(l.base, "results")
}

// InputManifestURI is where the source manifest is republished so the
// staging pipeline can read it.
func (l Layout) InputManifestURI(stem string) string {
	return objstore.Join(l.base, stem+".csv")
}

// SamplesheetURI is where the generated downstream samplesheet is published.
// The stem is the input manifest's filename without extension.
func (l Layout) SamplesheetURI(stem string) string {
	return objstore.Join(l.base, stem+"_spatialvi.csv")
}

// Artifact identifies the staged inputs for one sample. Deterministic in
// (sample, output base) so every stage can recompute it without shared state.
type Artifact struct {
	Sample      string
	ArchivePath string
	ImagePath   string
	ResultsPath string
	Row         manifest.SampleRecord
}

// Artifact computes the staging artifact locations for one sample record.
func (l Layout) Artifact(record manifest.SampleRecord) Artifact {
	sampleDir := objstore.Join(l.base, "staging", record.Sample)
	return Artifact{
		Sample:      record.Sample,
		ArchivePath: objstore.Join(sampleDir, record.Sample+"_archive.tar.gz"),
		ImagePath:   objstore.Join(sampleDir, imageBasename(record)),
		ResultsPath: objstore.Join(l.base, "results", record.Sample) + "/",
		Row:         record,
	}
}

// Artifacts computes artifacts for every record, preserving manifest order.
func (l Layout) Artifacts(records []manifest.SampleRecord) []Artifact {
	out := make([]Artifact, 0, len(records))
	for _, record := range records {
		out = append(out, l.Artifact(record))
	}
	return out
}

// imageBasename derives the staged image filename from the manifest image
// reference. References carrying a path or extension keep their basename;
// opaque content-store IDs fall back to a sample-derived name.
func imageBasename(record manifest.SampleRecord) string {
	ref := record.Image
	if idx := strings.LastIndexByte(ref, '/'); idx >= 0 {
		ref = ref[idx+1:]
	}
	if strings.ContainsRune(ref, '.') && ref != "" {
		return ref
	}
	return record.Sample + "_image"
}
