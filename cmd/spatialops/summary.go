package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"spatialops/internal/manifest"
	"spatialops/internal/sequence"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// renderSummary prints the per-stage outcome table followed by a single
// colorized outcome line.
func renderSummary(w io.Writer, report sequence.Report) {
	rows := make([][]string, 0, len(report.Stages))
	for _, stage := range report.Stages {
		rows = append(rows, []string{
			stage.Stage,
			stageStateLabel(stage),
			orDash(stage.RunID),
			orDash(stage.RunName),
			stageDuration(stage),
		})
	}

	headers := []string{"Stage", "Status", "Run ID", "Run Name", "Duration"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
	fmt.Fprintln(w, renderTable(headers, rows, aligns))

	line := fmt.Sprintf("Sequence: %s", report.Outcome)
	if report.SequenceID != "" {
		line = fmt.Sprintf("Sequence %s: %s", report.SequenceID, report.Outcome)
	}
	if report.FailedStage != "" {
		line += fmt.Sprintf(" (failed at %s)", report.FailedStage)
	}
	fmt.Fprintln(w, colorizeOutcome(w, report.Outcome, line))
}

func stageStateLabel(stage sequence.StageResult) string {
	switch {
	case stage.Skipped:
		return "SKIPPED"
	case stage.DryRun:
		return "PLANNED"
	case stage.Status != "":
		return string(stage.Status)
	default:
		return "-"
	}
}

func stageDuration(stage sequence.StageResult) string {
	if stage.Duration <= 0 {
		return "-"
	}
	return stage.Duration.Round(time.Second).String()
}

func colorizeOutcome(w io.Writer, outcome sequence.Outcome, line string) string {
	if !shouldColorize(w) {
		return line
	}
	switch outcome {
	case sequence.OutcomeCompleted:
		return ansiGreen + line + ansiReset
	case sequence.OutcomeAborted:
		return ansiRed + line + ansiReset
	case sequence.OutcomeSkippedAll:
		return ansiYellow + line + ansiReset
	default:
		return line
	}
}

// renderManifest prints the parsed samples so a validation run shows what the
// sequencer would operate on.
func renderManifest(w io.Writer, m *manifest.Manifest) {
	rows := make([][]string, 0, m.Len())
	for _, record := range m.Records() {
		fastqs := 0
		for _, fq := range record.Fastq {
			if fq != "" {
				fastqs++
			}
		}
		rows = append(rows, []string{
			record.Sample,
			fmt.Sprintf("%d", fastqs),
			record.Image,
			record.Slide,
			record.Area,
			orDash(record.ResultsParentID),
		})
	}

	headers := []string{"Sample", "FASTQs", "Image", "Slide", "Area", "Results Parent"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
	fmt.Fprintln(w, renderTable(headers, rows, aligns))
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
