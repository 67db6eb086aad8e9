// Package config provides configuration management for sauce. It resolves
// every setting from command-line flags, SAUCE_* environment variables and
// defaults, in that order of precedence, and validates the result.
//
// # Configuration Loading
//
// The root command hands its flag set to Load:
//
//	cfg, err := config.Load(cmd.Flags())
//	if err != nil {
//	    return err
//	}
//
// Load(nil) reads the environment and defaults only. A .env file in the
// working directory is merged into the environment by LoadDotEnv before
// loading; variables already set are never overridden.
//
// # Environment Variables
//
//	SAUCE_FROM_YAML        YAML search document with lines/files terms
//	SAUCE_LIMIT_LINES      Maximum lines reported per file (0 for unlimited)
//	SAUCE_WALK_RESULTS     Pause after every file (true/false)
//	SAUCE_SHOW_DUPLICATES  Report repeated lines (true/false)
//	SAUCE_EXTRACT_TARFILE  Tar archive to unpack before searching
//	SAUCE_EXTRACT_DIR      Destination of the archive (default: .)
//	SAUCE_LINES_INCLUDE    Comma-separated line terms to include
//	SAUCE_LINES_EXCLUDE    Comma-separated line terms to exclude
//	SAUCE_FILES_INCLUDE    Comma-separated file name terms to include
//	SAUCE_FILES_EXCLUDE    Comma-separated file name terms to exclude
//	SAUCE_MAX_DEPTH        Maximum directory depth (-1 for unlimited)
//	SAUCE_IGNORE           Comma-separated ignore patterns
//	SAUCE_FOLLOW_SYMLINKS  Descend into symlinked directories (true/false)
//	SAUCE_OUTPUT           Output format: text|json|yaml
//	SAUCE_OUTPUT_FILE      Output file path (empty for stdout)
//	SAUCE_STATS            Append run statistics (true/false)
//	SAUCE_RATE_LIMIT       File reads per second (0 for unlimited)
//	SAUCE_BUFFER_SIZE      Buffer size for file reading (default: 4096)
//	SAUCE_NO_COLOR         Disable colored output (true/false)
//	SAUCE_VERBOSE          Verbosity level (a number or a run of 'v's)
//	SAUCE_QUIET            Log warnings and errors only (true/false)
//
// # Term Lists
//
// Term lists are split on commas, trimmed, and empty entries are dropped. A
// non-empty list given here replaces the matching list of the search
// document; Config.Document returns the lists in that shape.
//
// # Configuration Validation
//
//   - LimitLines must be non-negative
//   - MaxDepth must be -1 (unlimited) or positive
//   - Output format must be one of: text, json, yaml
//   - WalkResults requires text output
//   - BufferSize must be at least 64 bytes
//   - RateLimit must be non-negative
package config
