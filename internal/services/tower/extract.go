package tower

import "regexp"

// The launch CLI reports the new run in free-form text rather than a
// structured field. The extraction lives behind this adapter so nothing
// outside the package ever sees raw launcher output.
var (
	watchURLPattern  = regexp.MustCompile(`/watch/([0-9A-Za-z]+)`)
	submittedPattern = regexp.MustCompile(`[Ww]orkflow\s+([0-9A-Za-z]+)\s+submitted`)
)

// extractRunID scans launcher output lines for the external run identifier.
func extractRunID(lines []string) (string, bool) {
	for _, line := range lines {
		if match := watchURLPattern.FindStringSubmatch(line); match != nil {
			return match[1], true
		}
	}
	for _, line := range lines {
		if match := submittedPattern.FindStringSubmatch(line); match != nil {
			return match[1], true
		}
	}
	return "", false
}
