package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/onscreen/internal/display"
)

// JSONFormatter formats snapshots as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the entries as a JSON array. An empty snapshot is "[]".
func (f *JSONFormatter) Format(w io.Writer, entries []display.EntrySnapshot) error {
	if entries == nil {
		entries = []display.EntrySnapshot{}
	}
	encoder := json.NewEncoder(w)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(entries)
}

// FormatSections writes the sections as a JSON array.
func (f *JSONFormatter) FormatSections(w io.Writer, sections []Section) error {
	if sections == nil {
		sections = []Section{}
	}
	encoder := json.NewEncoder(w)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(sections)
}

// YAMLFormatter formats snapshots as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes the entries as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, entries []display.EntrySnapshot) error {
	if entries == nil {
		entries = []display.EntrySnapshot{}
	}
	return encodeYAML(w, entries)
}

// FormatSections writes the sections as a YAML document.
func (f *YAMLFormatter) FormatSections(w io.Writer, sections []Section) error {
	if sections == nil {
		sections = []Section{}
	}
	return encodeYAML(w, sections)
}

func encodeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
