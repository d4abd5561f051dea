// internal/logging/logging.go
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// New builds the diagnostic logger. With a non-empty path the log is appended
// to that file, since the TUI owns the terminal; otherwise it goes to w through
// a console writer. With neither a path nor a writer logging is disabled.
// The returned closer releases the file, if any.
func New(path, level string, w io.Writer) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, errors.Wrapf(err, "log level %q", level)
	}

	if path == "" {
		if w == nil {
			return zerolog.Nop(), nopCloser{}, nil
		}
		out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zerolog.Nop(), nopCloser{}, errors.Wrap(err, "create log dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, errors.Wrap(err, "open log file")
	}

	return zerolog.New(f).Level(lvl).With().Timestamp().Logger(), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
