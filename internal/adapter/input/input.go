// Package input provides message sources that feed the display manager.
package input

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jmylchreest/onscreen/internal/model"
)

// Sink receives messages produced by a Source. Sources call it from their own
// goroutine, so the sink must hand messages over to the frame loop rather
// than touch the display manager directly.
type Sink func(model.Message)

// Source produces messages until its input ends or ctx is done.
type Source interface {
	// Name returns the source identifier (e.g., "stdin", "follow").
	Name() string

	// Run delivers messages to sink. It returns nil when the input ends or
	// ctx is canceled.
	Run(ctx context.Context, sink Sink) error
}

// lineEntry is the JSON form of an input line.
type lineEntry struct {
	Text     string `json:"text"`
	AppName  string `json:"app_name"`
	Summary  string `json:"summary"`
	Body     string `json:"body"`
	Duration string `json:"duration"`
}

// ParseLine converts one line of input into a message. Accepted forms:
//
//	plain text                        -> normal simple message
//	long: plain text                  -> simple message with a duration class
//	{"text": "...", "duration": "short"}
//	{"app_name": "...", "summary": "...", "body": "..."}
//
// Blank lines and lines starting with # yield no message. An unknown class
// prefix is treated as part of the text.
func ParseLine(line string) (model.Message, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}

	if strings.HasPrefix(line, "{") {
		var entry lineEntry
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			return convertLineEntry(entry)
		}
	}

	class := model.DurationNormal
	if prefix, rest, found := strings.Cut(line, ":"); found {
		if c, err := model.ParseDurationClass(prefix); err == nil {
			class = c
			line = strings.TrimSpace(rest)
		}
	}

	text := sanitizeString(line)
	if text == "" {
		return nil, false
	}
	return model.NewSimpleMessage(text, class), true
}

// convertLineEntry converts a JSON line to a message.
func convertLineEntry(entry lineEntry) (model.Message, bool) {
	class := model.DurationNormal
	if entry.Duration != "" {
		if c, err := model.ParseDurationClass(entry.Duration); err == nil {
			class = c
		}
	}

	summary := sanitizeString(entry.Summary)
	if summary != "" {
		return model.NewNotificationMessage(
			sanitizeString(entry.AppName),
			summary,
			sanitizeString(entry.Body),
			class,
			0,
		), true
	}

	text := sanitizeString(entry.Text)
	if text == "" {
		return nil, false
	}
	return model.NewSimpleMessage(text, class), true
}

// sanitizeString replaces control characters with spaces and trims.
func sanitizeString(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r < 32 || r == 0x7f {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
