package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// levelRouter is a logrus hook that writes INFO/WARN to stdout and ERROR and
// above to stderr.
type levelRouter struct {
	mu        sync.Mutex
	stdout    io.Writer
	stderr    io.Writer
	formatter log.Formatter
}

func (lr *levelRouter) Levels() []log.Level {
	return log.AllLevels
}

func (lr *levelRouter) Fire(entry *log.Entry) error {
	line, err := lr.formatter.Format(entry)
	if err != nil {
		return err
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()

	if entry.Level <= log.ErrorLevel {
		_, err = lr.stderr.Write(line)
	} else {
		_, err = lr.stdout.Write(line)
	}
	return err
}

// setupLogger configures the standard logrus logger. INFO/WARN go to stdout,
// ERROR goes to stderr. If logPath is non-empty, all levels are also written
// to that file. Returns a cleanup function that closes the log file (if
// opened).
func setupLogger(logger *log.Logger, logPath string) (func(), error) {
	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	var cleanup func()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	logger.SetLevel(log.InfoLevel)
	logger.SetOutput(io.Discard)
	logger.ReplaceHooks(make(log.LevelHooks))
	logger.AddHook(&levelRouter{
		stdout:    stdoutW,
		stderr:    stderrW,
		formatter: &log.TextFormatter{FullTimestamp: true, DisableColors: true},
	})
	return cleanup, nil
}
