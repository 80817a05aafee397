// Package logging configures the process-wide logrus logger to write every
// entry to standard output and to a persistent log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Setup points the standard logger at stdout and the file at path (created,
// with its directory, when missing; appended to otherwise) and sets the level.
// An unknown level falls back to info with a warning.
//
// It returns a closer for the file and a run id that callers attach to their
// entries with log.WithField("run_id", id).
func Setup(path, level string) (io.Closer, string, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("logging: create %s: %w", dir, err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, "", fmt.Errorf("logging: open %s: %w", path, err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	log.SetOutput(out)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})

	lvl := log.InfoLevel
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			defer log.Warnf("logging: unknown level %q, using info", level)
		} else {
			lvl = parsed
		}
	}
	log.SetLevel(lvl)

	return closer, uuid.NewString(), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
