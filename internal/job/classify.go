package job

import (
	"strings"

	"github.com/teamcutter/linebrew/internal/domain"
)

const stepMarker = "==>"

var (
	errorPrefixes  = []string{"error:", "error ", "curl: (", "fatal:"}
	warningMarkers = []string{"warning:", "caution:"}
	successMarkers = []string{"successfully installed", "already installed", "complete", "finished", " installed"}
)

// Classify tags a line for display. It is a pure function of the text and
// has no bearing on whether a job succeeds.
func Classify(line string) domain.Tag {
	if strings.HasPrefix(line, stepMarker) {
		return domain.TagStep
	}

	s := strings.ToLower(strings.TrimSpace(line))
	for _, p := range errorPrefixes {
		if strings.HasPrefix(s, p) {
			return domain.TagError
		}
	}
	for _, m := range warningMarkers {
		if strings.Contains(s, m) {
			return domain.TagWarning
		}
	}
	for _, m := range successMarkers {
		if strings.Contains(s, m) {
			return domain.TagSuccess
		}
	}
	return domain.TagInfo
}
