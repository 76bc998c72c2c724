package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/onscreen/internal/display"
)

// PlainFormatter formats snapshots as plain text, one line per entry.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter. A custom template
// that fails to parse is an error.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse output template: %w", err)
		}
		f.template = tmpl
	}

	return f, nil
}

// Format writes the entries as plain text.
func (f *PlainFormatter) Format(w io.Writer, entries []display.EntrySnapshot) error {
	if len(entries) == 0 && f.template == nil {
		_, err := fmt.Fprintln(w, "(no active messages)")
		return err
	}
	for i := range entries {
		if err := f.formatEntry(w, i+1, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// FormatSections writes each section under a header with its label and
// elapsed time, separated by blank lines.
func (f *PlainFormatter) FormatSections(w io.Writer, sections []Section) error {
	for i, sec := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "== %s (at %s) ==\n", sec.Label, seconds(sec.Elapsed)); err != nil {
			return err
		}
		if err := f.Format(w, sec.Entries); err != nil {
			return err
		}
	}
	return nil
}

// templateData provides data for custom templates.
type templateData struct {
	Index int
	Entry *display.EntrySnapshot
}

// formatEntry formats a single entry.
func (f *PlainFormatter) formatEntry(w io.Writer, index int, e *display.EntrySnapshot) error {
	if f.template != nil {
		return f.template.Execute(w, templateData{Index: index, Entry: e})
	}

	var sb strings.Builder
	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}
	fmt.Fprintf(&sb, "%-10s %s", e.Class, truncate(e.Text, f.opts.TextMaxLen))

	if f.opts.ShowTiming {
		fmt.Fprintf(&sb, "  (%s of %s left, shown %s, opacity %s)",
			seconds(e.Timing.TimeRemaining),
			seconds(e.Timing.OriginalTimeRemaining),
			seconds(e.Timing.TotalDisplayedTime),
			percent(e.Alpha),
		)
	}

	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"seconds":  seconds,
		"percent":  percent,
	}
}

// seconds renders a duration in seconds, e.g. "2.5s".
func seconds(s float64) string {
	return humanize.FtoaWithDigits(s, 2) + "s"
}

// percent renders an opacity, e.g. "75%".
func percent(alpha float64) string {
	return humanize.FtoaWithDigits(alpha*100, 1) + "%"
}

// truncate shortens s to maxLen runes. maxLen <= 0 means unlimited.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
