package scanner

import (
	"sync/atomic"
	"time"
)

// Config contains scanner configuration options
type Config struct {
	// MaxDepth limits how many directory levels below the root are walked
	// (-1 for unlimited, 0 for the root directory only)
	MaxDepth int

	// IgnorePatterns are doublestar globs matched against the slash
	// separated path relative to the root, and against the base name for
	// patterns without a separator. A trailing slash restricts a pattern
	// to directories.
	IgnorePatterns []string

	// FollowSymlinks descends into symlinked directories
	FollowSymlinks bool

	// BufferSize is the read buffer size used by Lines
	BufferSize int

	// RateLimit caps file reads per second (0 for unlimited)
	RateLimit int
}

// WalkResult is the outcome of a directory walk
type WalkResult struct {
	// Root is the walked directory as given by the caller
	Root string

	// Files holds the paths whose base name matched the file policy, in
	// walk order
	Files []string

	// Total counts every file encountered, matched or not
	Total int64

	// Skipped counts entries dropped by ignore patterns
	Skipped int64

	// Errors maps unreadable paths to the error that was swallowed
	Errors map[string]error

	StartTime time.Time
	Duration  time.Duration
}

// LineOptions controls Lines
type LineOptions struct {
	// Limit stops reading once this many lines were collected (0 for no limit)
	Limit int

	// ShowDuplicates keeps repeated lines; by default a trimmed line is
	// reported once per file
	ShowDuplicates bool
}

// Stats is a snapshot of the scanner counters
type Stats struct {
	FilesWalked  int64
	FilesRead    int64
	BytesRead    int64
	LinesMatched int64
}

// scannerStats holds the counters behind Stats
type scannerStats struct {
	filesWalked  atomic.Int64
	filesRead    atomic.Int64
	bytesRead    atomic.Int64
	linesMatched atomic.Int64
}

func (s *scannerStats) snapshot() Stats {
	return Stats{
		FilesWalked:  s.filesWalked.Load(),
		FilesRead:    s.filesRead.Load(),
		BytesRead:    s.bytesRead.Load(),
		LinesMatched: s.linesMatched.Load(),
	}
}
