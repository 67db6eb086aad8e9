package config

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	// OutputFormatText is the plain text report
	OutputFormatText OutputFormat = "text"

	// OutputFormatJSON represents the JSON output format
	OutputFormatJSON OutputFormat = "json"

	// OutputFormatYAML represents the YAML output format
	OutputFormatYAML OutputFormat = "yaml"
)

// Constants for configuration limits and defaults
const (
	// EnvPrefix prefixes every environment variable
	EnvPrefix = "SAUCE"

	// MinBufferSize is the minimum allowed buffer size in bytes
	MinBufferSize = 64

	// DefaultBufferSize is the default buffer size in bytes
	DefaultBufferSize = 4096

	// UnlimitedDepth represents unlimited directory depth
	UnlimitedDepth = -1

	// UnlimitedLines disables the per-file line cap
	UnlimitedLines = 0
)

// Keys shared between flags, environment variables and defaults. A flag is
// named after its key with dashes instead of underscores.
const (
	KeyFromYAML       = "from_yaml"
	KeyLimitLines     = "limit_lines"
	KeyWalkResults    = "walk_results"
	KeyShowDuplicates = "show_duplicates"
	KeyExtractTarfile = "extract_tarfile"
	KeyExtractDir     = "extract_dir"
	KeyLinesInclude   = "lines_include"
	KeyLinesExclude   = "lines_exclude"
	KeyFilesInclude   = "files_include"
	KeyFilesExclude   = "files_exclude"
	KeyMaxDepth       = "max_depth"
	KeyIgnore         = "ignore"
	KeyFollowSymlinks = "follow_symlinks"
	KeyOutput         = "output"
	KeyOutputFile     = "output_file"
	KeyStats          = "stats"
	KeyRateLimit      = "rate_limit"
	KeyBufferSize     = "buffer_size"
	KeyNoColor        = "no_color"
	KeyVerbose        = "verbose"
	KeyQuiet          = "quiet"
)
