// Package output prints snapshots of the active display entries.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/onscreen/internal/display"
)

// Formatter formats display snapshots for output.
type Formatter interface {
	// Format writes the entries, in display order, to the writer.
	Format(w io.Writer, entries []display.EntrySnapshot) error
	// FormatSections writes several labelled snapshots.
	FormatSections(w io.Writer, sections []Section) error
}

// Section is a labelled snapshot, e.g. one taken during a scripted run.
type Section struct {
	Label   string                  `json:"label" yaml:"label"`
	Elapsed float64                 `json:"elapsed" yaml:"elapsed"` // Seconds
	Entries []display.EntrySnapshot `json:"entries" yaml:"entries"`
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (FormatType, error) {
	switch f := FormatType(s); f {
	case FormatPlain, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want plain, json or yaml)", s)
	}
}

// NewFormatter creates a formatter for the specified format type. Unknown
// types fall back to plain text.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template   string // Custom text/template for plain format, one execution per entry
	ShowIndex  bool   // Show 1-based index prefix
	ShowTiming bool   // Show remaining and displayed time
	TextMaxLen int    // Maximum text length (0 = unlimited)
	Compact    bool   // Single-line JSON
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:  true,
		ShowTiming: true,
		TextMaxLen: 80,
	}
}
