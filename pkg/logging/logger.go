// Package logging builds the hclog loggers used by the CLI.
package logging

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Line markers for text output. Continuation lines of multi-line values
// are indented to the marker's width.
const (
	markerDefault = "⚙️ "
	markerWarn    = "⚠️ "
	markerError   = "✖ "
	continuation  = "   "
)

// markWriter marks each text log entry on a terminal stream by level.
// hclog hands over one whole entry per LevelWrite; it is written to the
// stream in a single call so entries from concurrent decodes never
// interleave.
type markWriter struct {
	mu  sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

func newMarkWriter(out io.Writer) *markWriter {
	return &markWriter{out: out}
}

func marker(level hclog.Level) string {
	switch {
	case level >= hclog.Error:
		return markerError
	case level == hclog.Warn:
		return markerWarn
	default:
		return markerDefault
	}
}

// LevelWrite implements hclog.LevelWriter.
func (w *markWriter) LevelWrite(level hclog.Level, p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(p)
	w.buf.Reset()
	prefix := marker(level)
	for len(p) > 0 {
		line := p
		if i := bytes.IndexByte(p, '\n'); i >= 0 {
			line = p[:i+1]
		}
		w.buf.WriteString(prefix)
		w.buf.Write(line)
		p = p[len(line):]
		prefix = continuation
	}
	if end := w.buf.Len(); end > 0 && w.buf.Bytes()[end-1] != '\n' {
		w.buf.WriteByte('\n')
	}

	if _, err := w.out.Write(w.buf.Bytes()); err != nil {
		return 0, err
	}
	return n, nil
}

// Write marks p as an entry without a level.
func (w *markWriter) Write(p []byte) (int, error) {
	return w.LevelWrite(hclog.NoLevel, p)
}

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	return NewLoggerWithFormat(name, level, output, os.Getenv("FACTORIO_JSON_LOG") == "1")
}

// NewLoggerWithFormat is NewLogger with the output format chosen by the
// caller instead of the environment.
func NewLoggerWithFormat(name string, level string, output io.Writer, jsonFormat bool) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	if !jsonFormat {
		output = newMarkWriter(output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// GetLogLevel returns the configured log level from environment
func GetLogLevel() string {
	level := os.Getenv("FACTORIO_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return level
}
