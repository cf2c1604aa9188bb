// Package logging configures the process-wide zerolog logger.
//
// The interactive programs own the terminal, so log output goes to a file by
// default; one-shot commands may additionally attach a console writer.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init points the global logger at logPath (created if needed) and, when
// console is non-nil, at a human-readable console writer as well.
func Init(logPath string, debug bool, console io.Writer) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen})
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}

// Writer returns the open log file, or io.Discard when logging to a file is off.
// It lets libraries with their own writers (such as SQL query hooks) share the log.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return io.Discard
	}
	return logFile
}

// Close flushes and releases the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	err := logFile.Close()
	logFile = nil
	return err
}
