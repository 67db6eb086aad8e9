package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/sonemaro/sauce/pkg/logger"
)

// textReporter streams plain text, one block per file:
//
//	/var/log/app.log
//	================
//	error: disk full
type textReporter struct {
	config Config
	w      io.Writer
	log    logger.Logger

	header *color.Color
	rule   *color.Color
}

func newTextReporter(config Config, w io.Writer, log logger.Logger) *textReporter {
	r := &textReporter{
		config: config,
		w:      w,
		log:    log,
		header: color.New(color.FgCyan, color.Bold),
		rule:   color.New(color.FgHiBlack),
	}

	if config.WithColors {
		r.header.EnableColor()
		r.rule.EnableColor()
	} else {
		r.header.DisableColor()
		r.rule.DisableColor()
	}

	return r
}

func (r *textReporter) Begin(s Summary) error {
	r.log.Debug("Writing search summary")

	var b strings.Builder
	fmt.Fprintf(&b, "search params %s\n", s.Params)
	fmt.Fprintf(&b, "total files %d\n", s.TotalFiles)
	fmt.Fprintf(&b, "files checked %d\n", s.FilesChecked)
	b.WriteString("\n\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *textReporter) File(m FileMatch) error {
	r.log.WithFields(logger.Fields{
		"path":  m.Path,
		"lines": len(m.Lines),
	}).Trace("Writing file block")

	var b strings.Builder
	b.WriteString(r.header.Sprint(m.Path))
	b.WriteString("\n")
	b.WriteString(r.rule.Sprint(underline(m.Path)))
	b.WriteString("\n")
	for _, line := range m.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *textReporter) End(s Stats) error {
	if !r.config.WithStats {
		return nil
	}

	r.log.Debug("Adding statistics to output")

	v := newStatsView(s)
	var b strings.Builder
	b.WriteString("Statistics:\n")
	fmt.Fprintf(&b, "  Files With Matches: %d\n", v.FilesWithMatches)
	fmt.Fprintf(&b, "  Lines Found: %d\n", v.LinesFound)
	fmt.Fprintf(&b, "  Bytes Read: %s\n", v.BytesRead)
	fmt.Fprintf(&b, "  Errors: %d\n", v.Errors)
	fmt.Fprintf(&b, "  Duration: %s\n", v.Duration)

	_, err := io.WriteString(r.w, b.String())
	return err
}

// underline returns one '=' per character of s
func underline(s string) string {
	return strings.Repeat("=", utf8.RuneCountInString(s))
}
