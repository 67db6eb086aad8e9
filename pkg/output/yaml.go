package output

import (
	"gopkg.in/yaml.v3"
)

func (r *documentReporter) formatYAML() ([]byte, error) {
	r.log.Debug("Formatting YAML output")

	return yaml.Marshal(r.doc)
}
