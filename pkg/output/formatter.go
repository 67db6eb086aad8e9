/*
Package output renders search results. A Reporter receives the search
summary, then every file that produced matching lines, then the final
statistics.

Basic usage:

	reporter, err := output.NewReporter(output.Config{
		Format:     output.FormatText,
		WithColors: output.IsTerminal(os.Stdout),
	}, os.Stdout, log)

	reporter.Begin(summary)
	reporter.File(output.FileMatch{Path: path, Lines: lines})
	reporter.End(stats)
*/
package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sonemaro/sauce/pkg/logger"
	"github.com/sonemaro/sauce/pkg/terms"
	"golang.org/x/term"
)

// Format represents the output format type
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// IsValid reports whether f is a supported format
func (f Format) IsValid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Config holds reporter configuration
type Config struct {
	Format     Format
	WithStats  bool
	WithColors bool
}

// Summary describes the search before any file content is read
type Summary struct {
	Root         string
	Params       terms.Document
	TotalFiles   int64
	FilesChecked int
	Skipped      int64
}

// FileMatch holds the matching lines of one file
type FileMatch struct {
	Path  string   `json:"path" yaml:"path"`
	Lines []string `json:"lines" yaml:"lines"`
}

// Stats closes a report
type Stats struct {
	FilesWithMatches int
	LinesFound       int
	BytesRead        int64
	Errors           int
	Duration         time.Duration
}

// Reporter defines the interface for result rendering
type Reporter interface {
	Begin(Summary) error
	File(FileMatch) error
	End(Stats) error
}

// NewReporter creates a reporter writing to w
func NewReporter(config Config, w io.Writer, log logger.Logger) (Reporter, error) {
	log.WithFields(logger.Fields{
		"format":     config.Format,
		"withStats":  config.WithStats,
		"withColors": config.WithColors,
	}).Debug("Creating reporter")

	switch config.Format {
	case FormatText, "":
		return newTextReporter(config, w, log), nil
	case FormatJSON, FormatYAML:
		return newDocumentReporter(config, w, log), nil
	default:
		msg := fmt.Sprintf("unsupported format: %s", config.Format)
		log.Error(msg)
		return nil, fmt.Errorf("%s", msg)
	}
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
