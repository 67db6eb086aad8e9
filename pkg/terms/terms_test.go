package terms

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyMatch(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		item   string
		want   bool
	}{
		{
			name: "no terms accepts everything",
			item: "anything at all",
			want: true,
		},
		{
			name:   "empty lists behave like absent lists",
			policy: Policy{Include: []string{}, Exclude: []string{}},
			item:   "anything",
			want:   true,
		},
		{
			name:   "include only - hit",
			policy: Policy{Include: []string{"error"}},
			item:   "an error occurred",
			want:   true,
		},
		{
			name:   "include only - miss",
			policy: Policy{Include: []string{"error"}},
			item:   "all good",
			want:   false,
		},
		{
			name:   "include is case-insensitive",
			policy: Policy{Include: []string{"ErRoR"}},
			item:   "FATAL ERROR",
			want:   true,
		},
		{
			name:   "include any of several terms",
			policy: Policy{Include: []string{"foo", "bar"}},
			item:   "only bar here",
			want:   true,
		},
		{
			name:   "exclude only - hit",
			policy: Policy{Exclude: []string{"debug"}},
			item:   "DEBUG: noise",
			want:   false,
		},
		{
			name:   "exclude only - miss",
			policy: Policy{Exclude: []string{"debug"}},
			item:   "info: signal",
			want:   true,
		},
		{
			name:   "include and exclude - included and not excluded",
			policy: Policy{Include: []string{"error"}, Exclude: []string{"debug"}},
			item:   "error: disk full",
			want:   true,
		},
		{
			name:   "include and exclude - exclusion wins",
			policy: Policy{Include: []string{"error"}, Exclude: []string{"debug"}},
			item:   "debug error trace",
			want:   false,
		},
		{
			name:   "include and exclude - neither",
			policy: Policy{Include: []string{"error"}, Exclude: []string{"debug"}},
			item:   "hello",
			want:   false,
		},
		{
			name:   "substring inside a word",
			policy: Policy{Include: []string{".log"}},
			item:   "server.log.1",
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Match(tt.item))
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "blank", input: "   ", want: nil},
		{name: "single", input: "error", want: []string{"error"}},
		{name: "several", input: "error,warn,fatal", want: []string{"error", "warn", "fatal"}},
		{name: "surrounding whitespace", input: " error , warn ", want: []string{"error", "warn"}},
		{name: "empty entries dropped", input: "a,,b,", want: []string{"a", "b"}},
		{name: "only separators", input: ",,,", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseList(tt.input))
		})
	}
}

func TestDocument(t *testing.T) {
	t.Run("load from filesystem", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := `
lines:
  include: [error, " panic "]
  exclude: [debug]
files:
  include: [.log]
`
		require.NoError(t, afero.WriteFile(fs, "/search.yaml", []byte(content), 0644))

		doc, err := LoadDocument(fs, "/search.yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{"error", " panic "}, doc.Lines.Include)
		assert.Equal(t, []string{"debug"}, doc.Lines.Exclude)
		assert.Equal(t, []string{".log"}, doc.Files.Include)
		assert.Empty(t, doc.Files.Exclude)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDocument(afero.NewMemMapFs(), "/nope.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read search document")
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := ParseDocument([]byte("lines: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid search document")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseDocument([]byte("lines:\n  exlude: [x]\n"))
		require.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		doc, err := ParseDocument(nil)
		require.NoError(t, err)
		assert.True(t, doc.Lines.IsEmpty())
		assert.True(t, doc.Files.IsEmpty())
	})

	t.Run("terms kept as written", func(t *testing.T) {
		doc, err := ParseDocument([]byte("lines:\n  include: [\" id \", \"\"]\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{" id "}, doc.Lines.Include)
		assert.False(t, doc.Lines.Match("valid line"))
		assert.True(t, doc.Lines.Match("user id 42"))
	})

	t.Run("null lists", func(t *testing.T) {
		doc, err := ParseDocument([]byte("lines:\n  include:\n  exclude: ~\n"))
		require.NoError(t, err)
		assert.True(t, doc.Lines.IsEmpty())
	})
}

func TestDocumentMerge(t *testing.T) {
	base := Document{
		Lines: Policy{Include: []string{"error"}, Exclude: []string{"debug"}},
		Files: Policy{Include: []string{".log"}},
	}

	merged := base.Merge(Document{
		Lines: Policy{Include: []string{"panic"}},
		Files: Policy{Exclude: []string{".gz"}},
	})

	assert.Equal(t, []string{"panic"}, merged.Lines.Include)
	assert.Equal(t, []string{"debug"}, merged.Lines.Exclude)
	assert.Equal(t, []string{".log"}, merged.Files.Include)
	assert.Equal(t, []string{".gz"}, merged.Files.Exclude)

	// the receiver is untouched
	assert.Equal(t, []string{"error"}, base.Lines.Include)
	assert.Empty(t, base.Files.Exclude)
}

func TestDocumentString(t *testing.T) {
	doc := Document{Lines: Policy{Include: []string{"a", "b"}}}
	assert.Equal(t, "lines(include=[a,b] exclude=none) files(include=none exclude=none)", doc.String())
}
