// Package logging builds the zerolog logger shared by the CLI commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level string
	// JSON writes one JSON object per line instead of the console format.
	JSON bool
	// Dir, when set, also writes an uncoloured copy to a session log file.
	Dir string
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// LogFilePath names a session log file.
func LogFilePath(dir string, start time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("twinvector.%s.log", start.Format("20060102_150405")))
}

// New returns a logger writing to out. The returned closer releases the
// session log file, if any.
func New(out io.Writer, opts Options) (zerolog.Logger, io.Closer, error) {
	var w io.Writer = out
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return zerolog.Nop(), closer, err
		}
		f, err := os.Create(LogFilePath(opts.Dir, time.Now()))
		if err != nil {
			return zerolog.Nop(), closer, err
		}
		closer = f
		w = zerolog.MultiLevelWriter(w, zerolog.ConsoleWriter{
			Out:        f,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	log := zerolog.New(w).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
