// Package log provides a minimal leveled key-value logger for the scanner.
// Output goes to stderr; annotator failures and other degraded-mode events
// are logged here rather than surfaced to callers.
package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync"
)

// Level is a log severity level.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger   *stdlog.Logger
	initOnce sync.Once
	minLevel = LevelInfo
)

func initLogger() {
	initOnce.Do(func() {
		logger = stdlog.New(os.Stderr, "", stdlog.LstdFlags|stdlog.Lmicroseconds)

		// SCANNER_LOG_LEVEL overrides the default minimum level.
		switch strings.ToUpper(os.Getenv("SCANNER_LOG_LEVEL")) {
		case "DEBUG":
			minLevel = LevelDebug
		case "WARN":
			minLevel = LevelWarn
		case "ERROR":
			minLevel = LevelError
		}
	})
}

// SetLevel sets the minimum level emitted.
func SetLevel(l Level) {
	initLogger()
	minLevel = l
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, kv ...any) {
	emit(LevelDebug, msg, kv...)
}

// Info logs an informational message with optional key-value pairs.
func Info(msg string, kv ...any) {
	emit(LevelInfo, msg, kv...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, kv ...any) {
	emit(LevelWarn, msg, kv...)
}

// Error logs an error with optional key-value pairs. The error is always
// rendered as the first pair.
func Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	emit(LevelError, msg, extended...)
}

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

func emit(level Level, msg string, kv ...any) {
	initLogger()
	if levelRank[level] < levelRank[minLevel] {
		return
	}

	var b strings.Builder
	b.WriteString("[" + string(level) + "] " + msg)

	// kv is key, value, key, value ...; a trailing odd argument is ignored.
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b.WriteString(" " + key + "=" + fmt.Sprint(kv[i+1]))
	}

	logger.Println(b.String())
}
