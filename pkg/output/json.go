package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sonemaro/sauce/pkg/logger"
	"github.com/sonemaro/sauce/pkg/terms"
)

// document is the complete structured report shared by JSON and YAML
type document struct {
	Root         string         `json:"root" yaml:"root"`
	Params       terms.Document `json:"params" yaml:"params"`
	TotalFiles   int64          `json:"totalFiles" yaml:"totalFiles"`
	FilesChecked int            `json:"filesChecked" yaml:"filesChecked"`
	Skipped      int64          `json:"skipped" yaml:"skipped"`
	Matches      []FileMatch    `json:"matches" yaml:"matches"`
	Statistics   *statsView     `json:"statistics,omitempty" yaml:"statistics,omitempty"`
	Generated    time.Time      `json:"generated" yaml:"generated"`
}

// documentReporter buffers every match and writes one document at End
type documentReporter struct {
	config Config
	w      io.Writer
	log    logger.Logger
	doc    document
}

func newDocumentReporter(config Config, w io.Writer, log logger.Logger) *documentReporter {
	return &documentReporter{
		config: config,
		w:      w,
		log:    log,
		doc:    document{Matches: []FileMatch{}},
	}
}

func (r *documentReporter) Begin(s Summary) error {
	r.doc.Root = s.Root
	r.doc.Params = s.Params
	r.doc.TotalFiles = s.TotalFiles
	r.doc.FilesChecked = s.FilesChecked
	r.doc.Skipped = s.Skipped
	return nil
}

func (r *documentReporter) File(m FileMatch) error {
	r.doc.Matches = append(r.doc.Matches, m)
	return nil
}

func (r *documentReporter) End(s Stats) error {
	r.doc.Generated = time.Now()
	if r.config.WithStats {
		r.log.Debug("Adding statistics to document")
		r.doc.Statistics = newStatsView(s)
	}

	var (
		data []byte
		err  error
	)
	switch r.config.Format {
	case FormatYAML:
		data, err = r.formatYAML()
	default:
		data, err = r.formatJSON()
	}
	if err != nil {
		r.log.WithFields(logger.Fields{
			"error":  err,
			"format": r.config.Format,
		}).Error("Failed to encode report")
		return fmt.Errorf("failed to encode %s report: %w", r.config.Format, err)
	}

	_, err = r.w.Write(data)
	return err
}

func (r *documentReporter) formatJSON() ([]byte, error) {
	r.log.Debug("Formatting JSON output")

	data, err := json.MarshalIndent(r.doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
