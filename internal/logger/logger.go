// Package logger provides the leveled logger shared by the SDK packages.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is a log severity level.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var (
	mu     sync.RWMutex
	level  = LevelInfo
	logger = log.New(os.Stderr, "", log.LstdFlags)
)

// ParseLevel parses a level name (error|warn|info|debug|trace).
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", name)
	}
}

// SetLevel sets the minimum level that gets logged.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// SetFlags sets the underlying log flags (see the log package).
func SetFlags(flags int) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetFlags(flags)
}

func logf(l Level, prefix, format string, args ...interface{}) {
	mu.RLock()
	enabled := l <= level
	out := logger
	mu.RUnlock()
	if !enabled {
		return
	}
	out.Printf(prefix+format, args...)
}

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) {
	logf(LevelError, "ERROR ", format, args...)
}

// Warnf logs at warn level.
func Warnf(format string, args ...interface{}) {
	logf(LevelWarn, "WARN ", format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...interface{}) {
	logf(LevelInfo, "INFO ", format, args...)
}

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) {
	logf(LevelDebug, "DEBUG ", format, args...)
}

// Tracef logs at trace level.
func Tracef(format string, args ...interface{}) {
	logf(LevelTrace, "TRACE ", format, args...)
}
