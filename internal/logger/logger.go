package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// components are the prefixed loggers handed out by WithPrefix
var (
	componentsMu sync.Mutex
	components   = make(map[string]*log.Logger)
)

func init() {
	Logger = log.New(os.Stderr)

	// Set log level from environment variable
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel parses a level name; unknown or empty names fall back to INFO.
// The level also applies to every component logger already created.
func SetLevel(level string) {
	var lvl log.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN", "WARNING":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	case "FATAL":
		lvl = log.FatalLevel
	default:
		lvl = log.InfoLevel
	}
	Logger.SetLevel(lvl)

	componentsMu.Lock()
	defer componentsMu.Unlock()
	for _, l := range components {
		l.SetLevel(lvl)
	}
}

// WithPrefix returns the logger of a component. Callers asking for the same
// prefix share one logger.
func WithPrefix(prefix string) *log.Logger {
	componentsMu.Lock()
	defer componentsMu.Unlock()
	if l, ok := components[prefix]; ok {
		return l
	}
	l := Logger.WithPrefix(prefix)
	components[prefix] = l
	return l
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	Logger.Fatalf(format, args...)
}
