/*
Package archive extracts tar archives before a search. Plain, gzip and
bzip2 compressed archives are recognised by their leading bytes.

Basic usage:

	x := archive.NewExtractor(afero.NewOsFs(), log, os.TempDir())
	result, err := x.Extract(ctx, "logs.tar.gz", ".")
*/
package archive

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"
	"github.com/sonemaro/sauce/pkg/logger"
	"github.com/spf13/afero"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
)

// Result summarises an extraction
type Result struct {
	Files    int
	Dirs     int
	Symlinks int
	Skipped  int
}

// Extractor unpacks archives onto a filesystem
type Extractor struct {
	fs      afero.Fs
	log     logger.Logger
	lockDir string
}

// NewExtractor creates an extractor. Lock files are created in lockDir;
// an empty lockDir disables locking.
func NewExtractor(fs afero.Fs, log logger.Logger, lockDir string) *Extractor {
	return &Extractor{
		fs:      fs,
		log:     log,
		lockDir: lockDir,
	}
}

// Extract unpacks archivePath into dest. Entries that would land outside
// dest are skipped. Two extractions of the same archive never run at once.
func (x *Extractor) Extract(ctx context.Context, archivePath, dest string) (Result, error) {
	log := x.log.WithFields(logger.Fields{
		"archive": archivePath,
		"dest":    dest,
	})
	log.Info("Extracting archive")

	release, err := x.lock(ctx, archivePath)
	if err != nil {
		return Result{}, err
	}
	defer release()

	f, err := x.fs.Open(archivePath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	stream, err := decompress(f)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read archive %s: %w", archivePath, err)
	}
	defer stream.Close()

	result, err := x.untar(ctx, stream, dest)
	if err != nil {
		log.WithFields(logger.Fields{
			"error": err,
		}).Error("Extraction failed")
		return result, fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}

	log.WithFields(logger.Fields{
		"files":    result.Files,
		"dirs":     result.Dirs,
		"symlinks": result.Symlinks,
		"skipped":  result.Skipped,
	}).Info("Archive extracted")

	return result, nil
}

// decompress wraps r according to its magic bytes
func decompress(r io.Reader) (io.ReadCloser, error) {
	buffered := bufio.NewReader(r)
	head, err := buffered.Peek(3)
	if err != nil && err != io.EOF {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case bytes.HasPrefix(head, bzip2Magic):
		return io.NopCloser(bzip2.NewReader(buffered)), nil
	default:
		return io.NopCloser(buffered), nil
	}
}

// lock takes an exclusive file lock keyed by the archive's absolute path
func (x *Extractor) lock(ctx context.Context, archivePath string) (func(), error) {
	if x.lockDir == "" {
		return func() {}, nil
	}

	abs, err := filepath.Abs(archivePath)
	if err != nil {
		abs = archivePath
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(abs))
	lockPath := filepath.Join(x.lockDir, fmt.Sprintf("sauce-extract-%x.lock", h.Sum64()))

	x.log.WithFields(logger.Fields{
		"path": lockPath,
	}).Debug("Attempting to acquire lock")

	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("archive %s is being extracted by another process", archivePath)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			x.log.WithFields(logger.Fields{
				"error": err,
				"path":  lockPath,
			}).Warn("Failed to release lock")
		}
		x.log.Debug("Lock released")
	}, nil
}
