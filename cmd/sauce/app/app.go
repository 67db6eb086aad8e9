/*
Package app wires the sauce components together and runs one search:

  - an optional archive is extracted first
  - the search document is loaded and the command line terms merged in
  - the tree is walked for matching file names
  - every matching file is scanned and the non-empty results reported

Usage:

	a := app.New(cfg, log, app.Options{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr})
	if err := a.Run(ctx, "/var/log"); err != nil {
	    log.Fatal(err)
	}
*/
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/sonemaro/sauce/internal/config"
	"github.com/sonemaro/sauce/pkg/archive"
	"github.com/sonemaro/sauce/pkg/logger"
	"github.com/sonemaro/sauce/pkg/output"
	"github.com/sonemaro/sauce/pkg/scanner"
	"github.com/sonemaro/sauce/pkg/terms"
	"github.com/spf13/afero"
)

// Options holds the process resources handed to the application. Zero
// values fall back to the OS filesystem and the standard streams.
type Options struct {
	Fs     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// LockDir receives the archive extraction lock files
	LockDir string
}

// App represents the main application container
type App struct {
	config config.Config
	log    logger.Logger
	fs     afero.Fs

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	scanner   scanner.Scanner
	extractor *archive.Extractor
}

// New creates a new application instance. A nil log discards all logging.
func New(cfg config.Config, log logger.Logger, opts Options) *App {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	a := &App{
		config: cfg,
		log:    log,
		fs:     opts.Fs,
		stdin:  opts.Stdin,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
	}

	a.scanner = scanner.NewScanner(scanner.Config{
		MaxDepth:       cfg.MaxDepth,
		IgnorePatterns: cfg.IgnorePatterns,
		FollowSymlinks: cfg.FollowSymlinks,
		BufferSize:     cfg.BufferSize,
		RateLimit:      cfg.RateLimit,
	}, a.fs, log)

	a.extractor = archive.NewExtractor(a.fs, log, opts.LockDir)

	a.log.WithFields(logger.Fields{
		"output":  cfg.Output,
		"verbose": cfg.Verbose,
	}).Debug("Application initialized")

	return a
}

// Run searches root and writes the report
func (a *App) Run(ctx context.Context, root string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithFields(logger.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Recovered from panic")
			err = fmt.Errorf("search aborted: %v", r)
		}
	}()

	start := time.Now()

	a.extract(ctx)

	doc, err := a.searchDocument()
	if err != nil {
		return err
	}

	a.log.WithFields(logger.Fields{
		"path":   root,
		"params": doc.String(),
		"limit":  a.config.LimitLines,
	}).Info("Starting search")

	w, closeOutput, err := a.openOutput()
	if err != nil {
		return err
	}
	defer closeOutput()

	reporter, err := output.NewReporter(output.Config{
		Format:     output.Format(a.config.Output),
		WithStats:  a.config.Stats,
		WithColors: a.useColors(),
	}, w, a.log)
	if err != nil {
		return err
	}

	walked, err := a.scanner.Walk(ctx, root, doc.Files)
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}

	if err := reporter.Begin(output.Summary{
		Root:         root,
		Params:       doc,
		TotalFiles:   walked.Total,
		FilesChecked: len(walked.Files),
		Skipped:      walked.Skipped,
	}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	stepper := a.stepper()
	stats := output.Stats{Errors: len(walked.Errors)}
	opts := scanner.LineOptions{
		Limit:          a.config.LimitLines,
		ShowDuplicates: a.config.ShowDuplicates,
	}

	for _, path := range walked.Files {
		lines, err := a.scanner.Lines(ctx, path, doc.Lines, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			stats.Errors++
			a.log.WithFields(logger.Fields{
				"error":   err,
				"path":    path,
				"partial": len(lines),
			}).Warn("Failed to scan file")
		}

		if len(lines) == 0 {
			continue
		}

		if err := reporter.File(output.FileMatch{Path: path, Lines: lines}); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		stats.FilesWithMatches++
		stats.LinesFound += len(lines)

		if err := stepper.Step(ctx); err != nil {
			return err
		}
	}

	stats.BytesRead = a.scanner.Stats().BytesRead
	stats.Duration = time.Since(start)

	if err := reporter.End(stats); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	a.log.WithFields(logger.Fields{
		"total":    walked.Total,
		"checked":  len(walked.Files),
		"matched":  stats.FilesWithMatches,
		"lines":    stats.LinesFound,
		"errors":   stats.Errors,
		"duration": stats.Duration,
	}).Info("Search completed")

	return nil
}

// extract unpacks the configured archive. Failures are logged and the
// search goes on with whatever is already on disk.
func (a *App) extract(ctx context.Context) {
	if a.config.ExtractTarfile == "" {
		return
	}

	result, err := a.extractor.Extract(ctx, a.config.ExtractTarfile, a.config.ExtractDir)
	if err != nil {
		a.log.WithFields(logger.Fields{
			"error":   err,
			"archive": a.config.ExtractTarfile,
		}).Error("Archive not extracted")
		return
	}

	a.log.WithFields(logger.Fields{
		"archive": a.config.ExtractTarfile,
		"files":   result.Files,
		"skipped": result.Skipped,
	}).Debug("Archive ready")
}

// searchDocument loads the YAML document, if any, and applies the term
// lists given on the command line
func (a *App) searchDocument() (terms.Document, error) {
	var doc terms.Document

	if a.config.FromYAML != "" {
		a.log.WithFields(logger.Fields{
			"path": a.config.FromYAML,
		}).Info("Loading search document")

		loaded, err := terms.LoadDocument(a.fs, a.config.FromYAML)
		if err != nil {
			a.log.WithFields(logger.Fields{
				"error": err,
				"path":  a.config.FromYAML,
			}).Error("Failed to load search document")
			return terms.Document{}, err
		}
		doc = loaded
	}

	return doc.Merge(a.config.Document()), nil
}

// openOutput returns the report writer and a function releasing it
func (a *App) openOutput() (io.Writer, func(), error) {
	path := a.config.OutputFile
	if path == "" {
		return a.stdout, func() {}, nil
	}

	a.log.WithFields(logger.Fields{
		"path": path,
	}).Debug("Writing output to file")

	if err := a.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		a.log.WithFields(logger.Fields{
			"error": err,
			"path":  path,
		}).Error("Failed to create output directory")
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := a.fs.Create(path)
	if err != nil {
		a.log.WithFields(logger.Fields{
			"error": err,
			"path":  path,
		}).Error("Failed to create output file")
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return f, func() {
		if err := f.Close(); err != nil {
			a.log.WithFields(logger.Fields{
				"error": err,
				"path":  path,
			}).Error("Failed to close output file")
		}
	}, nil
}

func (a *App) useColors() bool {
	return !a.config.NoColor && a.config.OutputFile == "" && output.IsTerminal(a.stdout)
}

// stepper returns nil unless results are walked. The prompt shares the
// report stream unless the report goes to a file.
func (a *App) stepper() *output.Stepper {
	if !a.config.WalkResults {
		return nil
	}
	prompt := a.stdout
	if a.config.OutputFile != "" {
		prompt = a.stderr
	}
	return output.NewStepper(a.stdin, prompt)
}
