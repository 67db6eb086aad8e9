package app

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sonemaro/sauce/internal/config"
	"github.com/sonemaro/sauce/pkg/logger"
	"github.com/sonemaro/sauce/pkg/output"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements logger.Logger interface for testing
type mockLogger struct {
	mu   sync.Mutex
	logs []string
}

func (m *mockLogger) add(entry string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
}

func (m *mockLogger) Info(msg string)                               { m.add("INFO: " + msg) }
func (m *mockLogger) Debug(msg string)                              { m.add("DEBUG: " + msg) }
func (m *mockLogger) Error(msg string)                              { m.add("ERROR: " + msg) }
func (m *mockLogger) Warn(msg string)                               { m.add("WARN: " + msg) }
func (m *mockLogger) Trace(msg string)                              { m.add("TRACE: " + msg) }
func (m *mockLogger) WithFields(fields logger.Fields) logger.Logger { return m }

func (m *mockLogger) entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.logs...)
}

func setupTestFS(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/logs/app.log":       "info start\nerror: disk full\n  error: disk full  \nerror: net\n",
		"/logs/readme.txt":    "error in docs\n",
		"/logs/sub/db.log":    "FATAL Error\n",
		"/logs/sub/quiet.log": "all good\n",
	}

	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}

	return fs
}

func baseConfig() config.Config {
	return config.Config{
		MaxDepth:     -1,
		Output:       "text",
		BufferSize:   4096,
		LinesInclude: []string{"error"},
		FilesInclude: []string{".log"},
	}
}

type harness struct {
	fs     afero.Fs
	stdin  *strings.Reader
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	log    *mockLogger
}

func newHarness(t *testing.T, fs afero.Fs, stdin string) *harness {
	t.Helper()
	return &harness{
		fs:     fs,
		stdin:  strings.NewReader(stdin),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		log:    &mockLogger{},
	}
}

func (h *harness) app(cfg config.Config) *App {
	return New(cfg, h.log, Options{
		Fs:     h.fs,
		Stdin:  h.stdin,
		Stdout: h.stdout,
		Stderr: h.stderr,
	})
}

const header = "search params lines(include=[error] exclude=none) files(include=[.log] exclude=none)\n" +
	"total files 4\n" +
	"files checked 3\n" +
	"\n\n"

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   string
	}{
		{
			name:   "text report",
			modify: func(c *config.Config) {},
			want: header +
				"/logs/app.log\n=============\nerror: disk full\nerror: net\n\n\n" +
				"/logs/sub/db.log\n================\nFATAL Error\n\n\n",
		},
		{
			name: "show duplicates",
			modify: func(c *config.Config) {
				c.ShowDuplicates = true
			},
			want: header +
				"/logs/app.log\n=============\nerror: disk full\nerror: disk full\nerror: net\n\n\n" +
				"/logs/sub/db.log\n================\nFATAL Error\n\n\n",
		},
		{
			name: "limit lines",
			modify: func(c *config.Config) {
				c.LimitLines = 1
			},
			want: header +
				"/logs/app.log\n=============\nerror: disk full\n\n\n" +
				"/logs/sub/db.log\n================\nFATAL Error\n\n\n",
		},
		{
			name: "line exclusion",
			modify: func(c *config.Config) {
				c.LinesExclude = []string{"disk"}
			},
			want: "search params lines(include=[error] exclude=[disk]) files(include=[.log] exclude=none)\n" +
				"total files 4\nfiles checked 3\n\n\n" +
				"/logs/app.log\n=============\nerror: net\n\n\n" +
				"/logs/sub/db.log\n================\nFATAL Error\n\n\n",
		},
		{
			name: "max depth keeps the root level",
			modify: func(c *config.Config) {
				c.MaxDepth = 0
			},
			want: "search params lines(include=[error] exclude=none) files(include=[.log] exclude=none)\n" +
				"total files 2\nfiles checked 1\n\n\n" +
				"/logs/app.log\n=============\nerror: disk full\nerror: net\n\n\n",
		},
		{
			name: "no matching files",
			modify: func(c *config.Config) {
				c.FilesInclude = []string{".csv"}
			},
			want: "search params lines(include=[error] exclude=none) files(include=[.csv] exclude=none)\n" +
				"total files 4\nfiles checked 0\n\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.modify(&cfg)

			h := newHarness(t, setupTestFS(t), "")
			require.NoError(t, h.app(cfg).Run(context.Background(), "/logs"))

			assert.Equal(t, tt.want, h.stdout.String())
			assert.Empty(t, h.stderr.String())
			assert.Contains(t, h.log.entries(), "INFO: Search completed")
		})
	}
}

func TestRunWithoutLogger(t *testing.T) {
	var stdout bytes.Buffer
	a := New(baseConfig(), nil, Options{
		Fs:     setupTestFS(t),
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &bytes.Buffer{},
	})

	require.NoError(t, a.Run(context.Background(), "/logs"))
	assert.Contains(t, stdout.String(), "/logs/sub/db.log\n")
}

func TestRunSearchDocument(t *testing.T) {
	t.Run("flag terms replace document terms", func(t *testing.T) {
		fs := setupTestFS(t)
		doc := "lines:\n  include: [start]\n  exclude: [debug]\nfiles:\n  include: [.txt]\n"
		require.NoError(t, afero.WriteFile(fs, "/search.yaml", []byte(doc), 0644))

		cfg := baseConfig()
		cfg.FromYAML = "/search.yaml"
		cfg.FilesInclude = nil

		h := newHarness(t, fs, "")
		require.NoError(t, h.app(cfg).Run(context.Background(), "/logs"))

		want := "search params lines(include=[error] exclude=[debug]) files(include=[.txt] exclude=none)\n" +
			"total files 4\nfiles checked 1\n\n\n" +
			"/logs/readme.txt\n================\nerror in docs\n\n\n"
		assert.Equal(t, want, h.stdout.String())
	})

	t.Run("missing document", func(t *testing.T) {
		cfg := baseConfig()
		cfg.FromYAML = "/nope.yaml"

		h := newHarness(t, setupTestFS(t), "")
		err := h.app(cfg).Run(context.Background(), "/logs")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read search document")
		assert.Empty(t, h.stdout.String())
	})

	t.Run("invalid document", func(t *testing.T) {
		fs := setupTestFS(t)
		require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("lines: [oops"), 0644))

		cfg := baseConfig()
		cfg.FromYAML = "/bad.yaml"

		h := newHarness(t, fs, "")
		err := h.app(cfg).Run(context.Background(), "/logs")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid search document")
	})
}

func TestRunOutputFile(t *testing.T) {
	fs := setupTestFS(t)

	cfg := baseConfig()
	cfg.Output = "json"
	cfg.OutputFile = "/reports/out.json"
	cfg.Stats = true

	h := newHarness(t, fs, "")
	require.NoError(t, h.app(cfg).Run(context.Background(), "/logs"))
	assert.Empty(t, h.stdout.String())

	data, err := afero.ReadFile(fs, "/reports/out.json")
	require.NoError(t, err)

	var report struct {
		Root         string             `json:"root"`
		TotalFiles   int64              `json:"totalFiles"`
		FilesChecked int                `json:"filesChecked"`
		Matches      []output.FileMatch `json:"matches"`
		Statistics   map[string]any     `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, "/logs", report.Root)
	assert.Equal(t, int64(4), report.TotalFiles)
	assert.Equal(t, 3, report.FilesChecked)
	assert.Equal(t, []output.FileMatch{
		{Path: "/logs/app.log", Lines: []string{"error: disk full", "error: net"}},
		{Path: "/logs/sub/db.log", Lines: []string{"FATAL Error"}},
	}, report.Matches)
	assert.NotNil(t, report.Statistics)
}

func TestRunStats(t *testing.T) {
	cfg := baseConfig()
	cfg.Stats = true

	h := newHarness(t, setupTestFS(t), "")
	require.NoError(t, h.app(cfg).Run(context.Background(), "/logs"))

	out := h.stdout.String()
	assert.Contains(t, out, "Statistics:\n")
	assert.Contains(t, out, "  Files With Matches: 2\n")
	assert.Contains(t, out, "  Lines Found: 3\n")
	assert.Contains(t, out, "  Errors: 0\n")
}

func TestRunWalkResults(t *testing.T) {
	t.Run("prompt follows every file block", func(t *testing.T) {
		cfg := baseConfig()
		cfg.WalkResults = true

		h := newHarness(t, setupTestFS(t), "\n\n")
		require.NoError(t, h.app(cfg).Run(context.Background(), "/logs"))

		want := header +
			"/logs/app.log\n=============\nerror: disk full\nerror: net\n\n\n" + output.StepPrompt +
			"/logs/sub/db.log\n================\nFATAL Error\n\n\n" + output.StepPrompt
		assert.Equal(t, want, h.stdout.String())
		assert.Zero(t, h.stdin.Len())
	})

	t.Run("closed input stops pausing", func(t *testing.T) {
		cfg := baseConfig()
		cfg.WalkResults = true

		h := newHarness(t, setupTestFS(t), "")
		require.NoError(t, h.app(cfg).Run(context.Background(), "/logs"))
		assert.Equal(t, 1, strings.Count(h.stdout.String(), output.StepPrompt))
	})

	t.Run("prompt goes to stderr when writing a file", func(t *testing.T) {
		fs := setupTestFS(t)
		cfg := baseConfig()
		cfg.WalkResults = true
		cfg.OutputFile = "/out.txt"

		h := newHarness(t, fs, "\n\n")
		require.NoError(t, h.app(cfg).Run(context.Background(), "/logs"))

		assert.Empty(t, h.stdout.String())
		assert.Equal(t, output.StepPrompt+output.StepPrompt, h.stderr.String())

		data, err := afero.ReadFile(fs, "/out.txt")
		require.NoError(t, err)
		assert.NotContains(t, string(data), output.StepPrompt)
	})
}

func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestRunExtract(t *testing.T) {
	t.Run("archive contents are searched", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/bundle.tar", buildTar(t, map[string]string{
			"node1/kern.log": "error: oom\nok\n",
		}), 0644))

		cfg := baseConfig()
		cfg.ExtractTarfile = "/bundle.tar"
		cfg.ExtractDir = "/work"

		h := newHarness(t, fs, "")
		require.NoError(t, h.app(cfg).Run(context.Background(), "/work"))

		assert.Contains(t, h.stdout.String(), "/work/node1/kern.log\n====================\nerror: oom\n")
	})

	t.Run("failed extraction does not stop the search", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ExtractTarfile = "/missing.tar"
		cfg.ExtractDir = "/logs"

		h := newHarness(t, setupTestFS(t), "")
		require.NoError(t, h.app(cfg).Run(context.Background(), "/logs"))

		assert.Contains(t, h.stdout.String(), "/logs/app.log\n")
		assert.Contains(t, h.log.entries(), "ERROR: Archive not extracted")
	})
}

func TestRunErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		h := newHarness(t, setupTestFS(t), "")
		err := h.app(baseConfig()).Run(context.Background(), "/nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to walk /nope")
	})

	t.Run("root is a file", func(t *testing.T) {
		h := newHarness(t, setupTestFS(t), "")
		err := h.app(baseConfig()).Run(context.Background(), "/logs/app.log")
		require.Error(t, err)
	})

	t.Run("unsupported format", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Output = "tree"

		h := newHarness(t, setupTestFS(t), "")
		err := h.app(cfg).Run(context.Background(), "/logs")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format: tree")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h := newHarness(t, setupTestFS(t), "")
		err := h.app(baseConfig()).Run(ctx, "/logs")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid utf-8 keeps the lines read before it", func(t *testing.T) {
		fs := setupTestFS(t)
		require.NoError(t, afero.WriteFile(fs, "/logs/bin.log", []byte("error one\n\xff\xfe error\n"), 0644))

		h := newHarness(t, fs, "")
		require.NoError(t, h.app(baseConfig()).Run(context.Background(), "/logs"))

		assert.Contains(t, h.stdout.String(), "/logs/bin.log\n=============\nerror one\n\n\n")
		assert.Contains(t, h.log.entries(), "WARN: Failed to scan file")
	})
}

func TestWatchSignals(t *testing.T) {
	log := &mockLogger{}
	sigChan := make(chan os.Signal, 2)
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exited := make(chan int, 1)
	go watchSignals(sigChan, done, cancel, log, func(code int) { exited <- code })

	sigChan <- syscall.SIGINT
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled by the first signal")
	}

	sigChan <- syscall.SIGTERM
	select {
	case code := <-exited:
		assert.Equal(t, forcedExitCode, code)
	case <-time.After(time.Second):
		t.Fatal("second signal did not force an exit")
	}

	assert.Contains(t, log.entries(), "WARN: Received second interrupt, forcing exit")
}

func TestWithSignalsStop(t *testing.T) {
	ctx, stop := WithSignals(context.Background(), &mockLogger{})
	require.NoError(t, ctx.Err())

	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
