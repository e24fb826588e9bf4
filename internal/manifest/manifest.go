package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"spatialops/internal/services"
)

// Column names required in every input manifest. The four fastq references
// and the image reference are opaque content-store identifiers (or syn://
// URIs rewritten in place by the staging pipeline).
const (
	ColSample  = "sample"
	ColFastq1  = "fastq_1"
	ColFastq2  = "fastq_2"
	ColFastq3  = "fastq_3"
	ColFastq4  = "fastq_4"
	ColImage   = "image"
	ColSlide   = "slide"
	ColArea    = "area"
	ColResults = "results_parent_id"
)

// RequiredColumns lists the header columns every manifest must carry, in
// canonical order. ColArea is required in the header but may be empty per row.
var RequiredColumns = []string{
	ColSample, ColFastq1, ColFastq2, ColFastq3, ColFastq4,
	ColImage, ColSlide, ColArea,
}

// SampleRecord is one parsed manifest row. Immutable once created.
type SampleRecord struct {
	Sample          string
	Fastq           [4]string
	Image           string
	Slide           string
	Area            string
	ResultsParentID string
}

// Row reserializes the record's required fields in canonical column order,
// reproducing the values of the original manifest row exactly.
func (r SampleRecord) Row() []string {
	return []string{
		r.Sample, r.Fastq[0], r.Fastq[1], r.Fastq[2], r.Fastq[3],
		r.Image, r.Slide, r.Area,
	}
}

// FileReferences returns the five content-store references (four reads plus
// the image) in manifest order.
func (r SampleRecord) FileReferences() []string {
	return []string{r.Fastq[0], r.Fastq[1], r.Fastq[2], r.Fastq[3], r.Image}
}

// Manifest holds the parsed sample records in input order.
type Manifest struct {
	samples []SampleRecord
}

// Len reports the number of samples.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.samples)
}

// Records returns a fresh copy of the sample records so callers can iterate
// repeatedly without aliasing the parsed state.
func (m *Manifest) Records() []SampleRecord {
	if m == nil {
		return nil
	}
	out := make([]SampleRecord, len(m.samples))
	copy(out, m.samples)
	return out
}

// ParseFile opens and parses a manifest from disk.
func ParseFile(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "open", path, err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads a CSV manifest. The header row is required and must contain
// every required column; rows with fewer fields than the header fail parsing.
// Duplicate sample IDs are rejected because downstream staging paths are a
// pure function of sample ID and duplicates would overwrite each other.
func Parse(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, services.Wrap(services.ErrValidation, "manifest", "parse", "empty manifest: header row required", nil)
		}
		return nil, services.Wrap(services.ErrValidation, "manifest", "parse header", "", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range RequiredColumns {
		if _, ok := index[required]; !ok {
			return nil, services.Wrap(services.ErrValidation, "manifest", "parse header",
				fmt.Sprintf("missing required column %q", required), nil)
		}
	}
	resultsIdx, hasResults := index[ColResults]

	var samples []SampleRecord
	seen := make(map[string]int)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "manifest",
				fmt.Sprintf("parse row %d", line), "", err)
		}

		record := SampleRecord{
			Sample: strings.TrimSpace(row[index[ColSample]]),
			Fastq: [4]string{
				strings.TrimSpace(row[index[ColFastq1]]),
				strings.TrimSpace(row[index[ColFastq2]]),
				strings.TrimSpace(row[index[ColFastq3]]),
				strings.TrimSpace(row[index[ColFastq4]]),
			},
			Image: strings.TrimSpace(row[index[ColImage]]),
			Slide: strings.TrimSpace(row[index[ColSlide]]),
			Area:  strings.TrimSpace(row[index[ColArea]]),
		}
		if hasResults && resultsIdx < len(row) {
			record.ResultsParentID = strings.TrimSpace(row[resultsIdx])
		}

		if err := validateRecord(record, line); err != nil {
			return nil, err
		}
		if prev, dup := seen[record.Sample]; dup {
			return nil, services.Wrap(services.ErrValidation, "manifest", "parse",
				fmt.Sprintf("duplicate sample %q (rows %d and %d): staging paths would collide", record.Sample, prev, line), nil)
		}
		seen[record.Sample] = line
		samples = append(samples, record)
	}

	if len(samples) == 0 {
		return nil, services.Wrap(services.ErrValidation, "manifest", "parse", "manifest contains no sample rows", nil)
	}
	return &Manifest{samples: samples}, nil
}

func validateRecord(record SampleRecord, line int) error {
	missing := func(column string) error {
		return services.Wrap(services.ErrValidation, "manifest",
			fmt.Sprintf("parse row %d", line),
			fmt.Sprintf("required field %q is empty", column), nil)
	}
	if record.Sample == "" {
		return missing(ColSample)
	}
	for i, ref := range record.Fastq {
		if ref == "" {
			return missing(fmt.Sprintf("fastq_%d", i+1))
		}
	}
	if record.Image == "" {
		return missing(ColImage)
	}
	if record.Slide == "" {
		return missing(ColSlide)
	}
	return nil
}
