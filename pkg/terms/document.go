package terms

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Document holds the complete set of search parameters: one policy for
// file names and one for file lines.
type Document struct {
	Lines Policy `yaml:"lines" json:"lines"`
	Files Policy `yaml:"files" json:"files"`
}

// LoadDocument reads a YAML search document from fs. Unknown keys are
// rejected.
func LoadDocument(fs afero.Fs, path string) (Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read search document %s: %w", path, err)
	}

	return ParseDocument(data)
}

// ParseDocument decodes a YAML search document. An empty input yields an
// empty document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, nil
		}
		return Document{}, fmt.Errorf("invalid search document: %w", err)
	}

	doc.Lines = doc.Lines.cleaned()
	doc.Files = doc.Files.cleaned()

	return doc, nil
}

// Merge returns a copy of d where every non-empty list of overrides
// replaces the matching list of d.
func (d Document) Merge(overrides Document) Document {
	merged := d
	if len(overrides.Lines.Include) > 0 {
		merged.Lines.Include = overrides.Lines.Include
	}
	if len(overrides.Lines.Exclude) > 0 {
		merged.Lines.Exclude = overrides.Lines.Exclude
	}
	if len(overrides.Files.Include) > 0 {
		merged.Files.Include = overrides.Files.Include
	}
	if len(overrides.Files.Exclude) > 0 {
		merged.Files.Exclude = overrides.Files.Exclude
	}
	return merged
}

func (d Document) String() string {
	return fmt.Sprintf("lines(%s) files(%s)", d.Lines, d.Files)
}

// cleaned drops empty terms. Document terms are otherwise kept as written,
// surrounding spaces included.
func (p Policy) cleaned() Policy {
	return Policy{
		Include: dropEmpty(p.Include),
		Exclude: dropEmpty(p.Exclude),
	}
}

func dropEmpty(list []string) []string {
	var kept []string
	for _, term := range list {
		if term != "" {
			kept = append(kept, term)
		}
	}
	return kept
}
