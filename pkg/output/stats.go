package output

import (
	"time"

	"github.com/dustin/go-humanize"
)

// statsView is the rendered form of Stats shared by all formats
type statsView struct {
	FilesWithMatches int    `json:"filesWithMatches" yaml:"filesWithMatches"`
	LinesFound       int    `json:"linesFound" yaml:"linesFound"`
	BytesRead        string `json:"bytesRead" yaml:"bytesRead"`
	Errors           int    `json:"errors" yaml:"errors"`
	Duration         string `json:"duration" yaml:"duration"`
}

func newStatsView(s Stats) *statsView {
	return &statsView{
		FilesWithMatches: s.FilesWithMatches,
		LinesFound:       s.LinesFound,
		BytesRead:        humanize.Bytes(uint64(s.BytesRead)),
		Errors:           s.Errors,
		Duration:         s.Duration.Round(time.Millisecond).String(),
	}
}
