package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sonemaro/sauce/pkg/terms"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application
type Config struct {
	// FromYAML is a search document to load before applying term flags
	FromYAML string

	// LimitLines caps the lines reported per file (0 for unlimited)
	LimitLines int

	// WalkResults pauses after every file block until Enter is pressed
	WalkResults bool

	// ShowDuplicates reports repeated lines of a file more than once
	ShowDuplicates bool

	// ExtractTarfile is a tar archive to unpack into ExtractDir first
	ExtractTarfile string

	// ExtractDir is where ExtractTarfile is unpacked
	ExtractDir string

	// Term lists given on the command line or in the environment; a
	// non-empty list replaces the same list of the YAML document
	LinesInclude []string
	LinesExclude []string
	FilesInclude []string
	FilesExclude []string

	// MaxDepth is the maximum directory depth to walk (-1 for unlimited)
	MaxDepth int

	// IgnorePatterns are glob patterns of paths that are never walked
	IgnorePatterns []string

	// FollowSymlinks descends into symlinked directories
	FollowSymlinks bool

	// Output specifies the output format (text, json or yaml)
	Output string

	// OutputFile is the path to write the report (empty for stdout)
	OutputFile string

	// Stats appends run statistics to the report
	Stats bool

	// RateLimit is the maximum number of file reads per second (0 for unlimited)
	RateLimit int

	// BufferSize is the size of the buffer for file reading
	BufferSize int

	// NoColor disables colored output
	NoColor bool

	// Verbose sets the verbosity level
	Verbose int

	// Quiet limits logging to warnings and errors
	Quiet bool
}

// validOutputFormats contains the list of supported output formats
var validOutputFormats = map[string]bool{
	string(OutputFormatText): true,
	string(OutputFormatJSON): true,
	string(OutputFormatYAML): true,
}

// Load resolves the configuration from, in order of precedence, changed
// flags of fs, SAUCE_* environment variables and defaults. fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault(KeyFromYAML, "")
	v.SetDefault(KeyLimitLines, UnlimitedLines)
	v.SetDefault(KeyWalkResults, false)
	v.SetDefault(KeyShowDuplicates, false)
	v.SetDefault(KeyExtractTarfile, "")
	v.SetDefault(KeyExtractDir, ".")
	v.SetDefault(KeyMaxDepth, UnlimitedDepth)
	v.SetDefault(KeyFollowSymlinks, false)
	v.SetDefault(KeyOutput, string(OutputFormatText))
	v.SetDefault(KeyOutputFile, "")
	v.SetDefault(KeyStats, false)
	v.SetDefault(KeyRateLimit, 0)
	v.SetDefault(KeyBufferSize, DefaultBufferSize)
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyVerbose, 0)
	v.SetDefault(KeyQuiet, false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for _, key := range []string{
		KeyLinesInclude, KeyLinesExclude, KeyFilesInclude, KeyFilesExclude, KeyIgnore,
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return Config{}, err
		}
	}

	verbose, err := parseVerbosity(v.GetString(KeyVerbose))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		FromYAML:       v.GetString(KeyFromYAML),
		LimitLines:     v.GetInt(KeyLimitLines),
		WalkResults:    v.GetBool(KeyWalkResults),
		ShowDuplicates: v.GetBool(KeyShowDuplicates),
		ExtractTarfile: v.GetString(KeyExtractTarfile),
		ExtractDir:     v.GetString(KeyExtractDir),
		LinesInclude:   stringList(v, KeyLinesInclude),
		LinesExclude:   stringList(v, KeyLinesExclude),
		FilesInclude:   stringList(v, KeyFilesInclude),
		FilesExclude:   stringList(v, KeyFilesExclude),
		MaxDepth:       v.GetInt(KeyMaxDepth),
		IgnorePatterns: stringList(v, KeyIgnore),
		FollowSymlinks: v.GetBool(KeyFollowSymlinks),
		Output:         v.GetString(KeyOutput),
		OutputFile:     v.GetString(KeyOutputFile),
		Stats:          v.GetBool(KeyStats),
		RateLimit:      v.GetInt(KeyRateLimit),
		BufferSize:     v.GetInt(KeyBufferSize),
		NoColor:        v.GetBool(KeyNoColor),
		Verbose:        verbose,
		Quiet:          v.GetBool(KeyQuiet),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// bindFlags binds every flag of fs whose name maps onto a known key
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(flag *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key := strings.ReplaceAll(flag.Name, "-", "_")
		if err := v.BindPFlag(key, flag); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	})
	return bindErr
}

// stringList reads a list that is either a flag slice or a comma-separated
// string from the environment
func stringList(v *viper.Viper, key string) []string {
	switch value := v.Get(key).(type) {
	case []string:
		return terms.CleanList(value)
	case []interface{}:
		return terms.CleanList(v.GetStringSlice(key))
	default:
		return terms.ParseList(v.GetString(key))
	}
}

// parseVerbosity accepts a number or a run of 'v's ("vvv" is 3)
func parseVerbosity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	if strings.Trim(raw, "v") == "" {
		return len(raw), nil
	}
	return 0, fmt.Errorf("invalid verbosity %q", raw)
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.LimitLines < 0 {
		return fmt.Errorf("limit lines must be non-negative")
	}

	if c.MaxDepth < UnlimitedDepth {
		return fmt.Errorf("max depth must be -1 (unlimited) or positive")
	}

	if !validOutputFormats[c.Output] {
		return fmt.Errorf("invalid output format: must be one of [text json yaml]")
	}

	if c.WalkResults && c.Output != string(OutputFormatText) {
		return fmt.Errorf("walk results requires text output")
	}

	if c.BufferSize < 0 {
		return fmt.Errorf("buffer size must be positive")
	}
	if c.BufferSize < MinBufferSize {
		return fmt.Errorf("buffer size must be at least %d bytes", MinBufferSize)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}

	if c.Verbose < 0 {
		return fmt.Errorf("verbosity must be non-negative")
	}

	return nil
}

// Document returns the term lists of c as search document overrides
func (c Config) Document() terms.Document {
	return terms.Document{
		Lines: terms.Policy{Include: c.LinesInclude, Exclude: c.LinesExclude},
		Files: terms.Policy{Include: c.FilesInclude, Exclude: c.FilesExclude},
	}
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// String returns a string representation of the configuration
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{FromYAML: %s, LimitLines: %d, WalkResults: %v, ShowDuplicates: %v, "+
			"Lines: +%v -%v, Files: +%v -%v, MaxDepth: %d, Ignore: %v, Output: %s, "+
			"OutputFile: %s, RateLimit: %d, BufferSize: %d, NoColor: %v, Verbose: %d, Quiet: %v}",
		c.FromYAML, c.LimitLines, c.WalkResults, c.ShowDuplicates,
		c.LinesInclude, c.LinesExclude, c.FilesInclude, c.FilesExclude,
		c.MaxDepth, c.IgnorePatterns, c.Output,
		c.OutputFile, c.RateLimit, c.BufferSize, c.NoColor, c.Verbose, c.Quiet,
	)
}
