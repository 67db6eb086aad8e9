/*
Package scanner provides the sequential directory walk and line scan behind
sauce. Walk collects the files whose name satisfies a term policy; Lines
reads one file and collects the lines that satisfy another.

Basic usage:

	s := scanner.NewScanner(scanner.Config{
		MaxDepth:       -1,
		IgnorePatterns: []string{".git/", "node_modules"},
	}, afero.NewOsFs(), log)

	walked, err := s.Walk(ctx, "/var/log", terms.Policy{Include: []string{".log"}})
	for _, path := range walked.Files {
		lines, err := s.Lines(ctx, path, linePolicy, scanner.LineOptions{Limit: 10})
		...
	}
*/
package scanner

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sonemaro/sauce/pkg/logger"
	"github.com/sonemaro/sauce/pkg/terms"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// Scanner defines the file and line filtering operations
type Scanner interface {
	// Walk traverses root and returns the files whose base name satisfies policy
	Walk(ctx context.Context, root string, policy terms.Policy) (WalkResult, error)

	// Lines returns the trimmed lines of path that satisfy policy
	Lines(ctx context.Context, path string, policy terms.Policy, opts LineOptions) ([]string, error)

	// Stats returns the current counters
	Stats() Stats
}

// scanner implements the Scanner interface
type scanner struct {
	config  Config
	fs      afero.Fs
	log     logger.Logger
	limiter *rate.Limiter
	stats   *scannerStats
}

// NewScanner creates a scanner reading from fs
func NewScanner(config Config, fs afero.Fs, log logger.Logger) Scanner {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &scanner{
		config:  config,
		fs:      fs,
		log:     log,
		limiter: limiter,
		stats:   &scannerStats{},
	}
}

// DefaultBufferSize is used when Config.BufferSize is not set
const DefaultBufferSize = 4096

// walkState carries the per-walk bookkeeping through the recursion
type walkState struct {
	root   string
	policy terms.Policy
	result *WalkResult

	// ancestors holds the resolved directories of the current descent
	ancestors map[string]bool
}

// Walk performs a top-down traversal of root. In every directory the files
// are examined before any subdirectory is entered, entries in lexical
// order. Unreadable directories are recorded in the result and skipped.
func (s *scanner) Walk(ctx context.Context, root string, policy terms.Policy) (WalkResult, error) {
	for _, pattern := range s.config.IgnorePatterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return WalkResult{}, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	s.log.WithFields(logger.Fields{
		"path":     root,
		"maxDepth": s.config.MaxDepth,
		"ignore":   s.config.IgnorePatterns,
		"policy":   policy.String(),
	}).Info("Starting walk")

	info, err := s.fs.Stat(root)
	if err != nil {
		s.log.WithFields(logger.Fields{
			"error": err,
			"path":  root,
		}).Error("Failed to stat root directory")
		return WalkResult{}, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return WalkResult{}, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	result := WalkResult{
		Root:      root,
		Errors:    make(map[string]error),
		StartTime: time.Now(),
	}

	realRoot, err := realPath(s.fs, root)
	if err != nil {
		realRoot = filepath.Clean(root)
	}

	state := &walkState{
		root:      root,
		policy:    policy,
		result:    &result,
		ancestors: make(map[string]bool),
	}
	if err := s.walkDir(ctx, state, root, realRoot, 0); err != nil {
		return result, err
	}

	result.Duration = time.Since(result.StartTime)

	s.log.WithFields(logger.Fields{
		"total":    result.Total,
		"matched":  len(result.Files),
		"skipped":  result.Skipped,
		"errors":   len(result.Errors),
		"duration": result.Duration,
	}).Info("Walk completed")

	return result, nil
}

// walkDir visits one directory. dir is the path as the caller will see it,
// realDir its resolved absolute location. A directory whose resolved
// location is already being walked higher up is a cycle and is skipped.
func (s *scanner) walkDir(ctx context.Context, state *walkState, dir, realDir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if state.ancestors[realDir] {
		s.log.WithFields(logger.Fields{
			"path":   dir,
			"target": realDir,
		}).Warn("Symlink cycle detected")
		return nil
	}
	state.ancestors[realDir] = true
	defer delete(state.ancestors, realDir)

	s.log.WithFields(logger.Fields{
		"path":  dir,
		"depth": depth,
	}).Debug("Scanning directory")

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		s.log.WithFields(logger.Fields{
			"error": err,
			"path":  dir,
		}).Warn("Failed to read directory")
		state.result.Errors[dir] = classify(dir, err)
		return nil
	}

	type subdir struct {
		path string
		real string
	}
	var subdirs []subdir

	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())
		isDir := entry.IsDir()
		followed := ""

		if entry.Mode()&os.ModeSymlink != 0 {
			if target, err := s.fs.Stat(entryPath); err == nil && target.IsDir() {
				isDir = true
				if s.config.FollowSymlinks {
					followed, err = realPath(s.fs, entryPath)
					if err != nil {
						s.log.WithFields(logger.Fields{
							"error": err,
							"path":  entryPath,
						}).Warn("Failed to resolve symlink")
						followed = ""
					}
				}
			}
		}

		if pattern, ok := s.ignored(state.root, entryPath, isDir); ok {
			s.log.WithFields(logger.Fields{
				"path":    entryPath,
				"pattern": pattern,
			}).Debug("Ignoring path")
			state.result.Skipped++
			continue
		}

		if isDir {
			switch {
			case entry.Mode()&os.ModeSymlink == 0:
				subdirs = append(subdirs, subdir{path: entryPath, real: filepath.Join(realDir, entry.Name())})
			case followed != "":
				subdirs = append(subdirs, subdir{path: entryPath, real: followed})
			}
			continue
		}

		state.result.Total++
		s.stats.filesWalked.Add(1)

		if state.policy.Match(entry.Name()) {
			s.log.WithFields(logger.Fields{
				"path": entryPath,
			}).Trace("File name matched")
			state.result.Files = append(state.result.Files, entryPath)
		}
	}

	if s.config.MaxDepth >= 0 && depth >= s.config.MaxDepth {
		if len(subdirs) > 0 {
			s.log.WithFields(logger.Fields{
				"path":  dir,
				"depth": depth,
			}).Debug("Max depth reached")
		}
		return nil
	}

	for _, sub := range subdirs {
		if err := s.walkDir(ctx, state, sub.path, sub.real, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// ignored reports the first ignore pattern matching entryPath, if any
func (s *scanner) ignored(root, entryPath string, isDir bool) (string, bool) {
	if len(s.config.IgnorePatterns) == 0 {
		return "", false
	}

	rel, err := filepath.Rel(root, entryPath)
	if err != nil {
		rel = entryPath
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)

	for _, pattern := range s.config.IgnorePatterns {
		p := filepath.ToSlash(pattern)
		if strings.HasSuffix(p, "/") {
			if !isDir {
				continue
			}
			p = strings.TrimSuffix(p, "/")
		}

		if matched, _ := doublestar.Match(p, rel); matched {
			return pattern, true
		}
		if !strings.Contains(p, "/") {
			if matched, _ := doublestar.Match(p, base); matched {
				return pattern, true
			}
		}
	}

	return "", false
}

// Stats returns the current counters
func (s *scanner) Stats() Stats {
	return s.stats.snapshot()
}

func classify(path string, err error) error {
	if os.IsPermission(err) {
		return &PermissionError{Path: path, Err: err}
	}
	return err
}
