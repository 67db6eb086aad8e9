package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sonemaro/sauce/pkg/logger"
	"github.com/sonemaro/sauce/pkg/terms"
)

// Lines reads path line by line. Each raw line is tested against policy;
// matching lines are trimmed of surrounding whitespace and collected. Unless
// opts.ShowDuplicates is set a trimmed line already collected is dropped.
// Reading stops as soon as opts.Limit lines were collected.
//
// A failure part-way through the file returns the lines collected so far
// together with the error; the caller decides whether to report them.
func (s *scanner) Lines(ctx context.Context, path string, policy terms.Policy, opts LineOptions) ([]string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	file, err := s.fs.Open(path)
	if err != nil {
		s.log.WithFields(logger.Fields{
			"error": err,
			"path":  path,
		}).Warn("Failed to open file")
		if os.IsPermission(err) {
			return nil, &PermissionError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	s.stats.filesRead.Add(1)

	reader := bufio.NewReaderSize(file, s.config.BufferSize)

	var (
		lines  []string
		seen   map[string]struct{}
		lineNo int
	)
	if !opts.ShowDuplicates {
		seen = make(map[string]struct{})
	}

	for {
		if err := ctx.Err(); err != nil {
			return lines, err
		}

		raw, n, readErr := readLine(reader)
		if n > 0 {
			lineNo++
			s.stats.bytesRead.Add(int64(n))

			if !utf8.ValidString(raw) {
				return lines, s.readFailure(path, lineNo-1, ErrInvalidEncoding)
			}

			if policy.Match(raw) {
				line := strings.TrimSpace(raw)
				if seen == nil {
					lines = append(lines, line)
				} else if _, dup := seen[line]; !dup {
					seen[line] = struct{}{}
					lines = append(lines, line)
				}

				if opts.Limit > 0 && len(lines) >= opts.Limit {
					s.log.WithFields(logger.Fields{
						"path":  path,
						"limit": opts.Limit,
						"line":  lineNo,
					}).Debug("Line limit reached")
					break
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return lines, s.readFailure(path, lineNo, readErr)
		}
	}

	s.stats.linesMatched.Add(int64(len(lines)))

	s.log.WithFields(logger.Fields{
		"path":    path,
		"read":    lineNo,
		"matched": len(lines),
	}).Trace("File scanned")

	return lines, nil
}

// readLine returns the next line and the number of bytes consumed. "\n",
// "\r\n" and a lone "\r" all end a line and come back as "\n".
func readLine(r *bufio.Reader) (string, int, error) {
	var (
		line []byte
		n    int
	)
	for {
		c, err := r.ReadByte()
		if err != nil {
			return string(line), n, err
		}
		n++

		switch c {
		case '\n':
			return string(append(line, '\n')), n, nil
		case '\r':
			if next, err := r.Peek(1); err == nil && next[0] == '\n' {
				_, _ = r.ReadByte()
				n++
			}
			return string(append(line, '\n')), n, nil
		}
		line = append(line, c)
	}
}

func (s *scanner) readFailure(path string, line int, err error) error {
	s.log.WithFields(logger.Fields{
		"error": err,
		"path":  path,
		"line":  line,
	}).Warn("Error reading file")

	if os.IsPermission(err) {
		return &PermissionError{Path: path, Err: err}
	}
	return &ReadError{Path: path, Line: line, Err: err}
}
