package layout

import (
	"bytes"
	"encoding/csv"
)

// Samplesheet image column headers. The analysis pipeline expects
// "cytaimage" for CytAssist captures and "image" otherwise.
const (
	ImageColumnDefault   = "image"
	ImageColumnCytassist = "cytaimage"
)

// RenderSamplesheet builds the downstream manifest consumed by the analysis
// pipeline: one row per sample referencing the staged archive and image
// locations. Output is deterministic for a given artifact list.
func RenderSamplesheet(artifacts []Artifact, cytassist bool) ([]byte, error) {
	imageColumn := ImageColumnDefault
	if cytassist {
		imageColumn = ImageColumnCytassist
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"sample", "fastq_dir", imageColumn, "slide", "area"}); err != nil {
		return nil, err
	}
	for _, artifact := range artifacts {
		row := []string{
			artifact.Sample,
			artifact.ArchivePath,
			artifact.ImagePath,
			artifact.Row.Slide,
			artifact.Row.Area,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
