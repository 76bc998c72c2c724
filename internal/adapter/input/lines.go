package input

import (
	"bufio"
	"context"
	"io"
	"os"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

// LineReader turns each line of a reader into a message.
type LineReader struct {
	name   string
	reader io.Reader
}

// NewStdinReader creates a LineReader reading from os.Stdin.
func NewStdinReader() *LineReader {
	return &LineReader{name: "stdin", reader: os.Stdin}
}

// NewLineReader creates a LineReader with a custom reader.
func NewLineReader(name string, r io.Reader) *LineReader {
	return &LineReader{name: name, reader: r}
}

// Name returns the adapter identifier.
func (a *LineReader) Name() string {
	return a.name
}

// Run reads lines until EOF. Cancellation is noticed between lines; a
// blocked read is not interrupted.
func (a *LineReader) Run(ctx context.Context, sink Sink) error {
	scanner := bufio.NewScanner(a.reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if msg, ok := ParseLine(scanner.Text()); ok {
			sink(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		return &AdapterError{
			Source:  a.name,
			Message: "failed to read input",
			Err:     err,
		}
	}
	return nil
}
