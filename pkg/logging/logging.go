package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a LogLevel.
// Unknown names fall back to LevelInfo and report false.
func ParseLevel(name string) (LogLevel, bool) {
	switch name {
	case "debug", "DEBUG":
		return LevelDebug, true
	case "info", "INFO", "":
		return LevelInfo, true
	case "warn", "WARN", "warning":
		return LevelWarn, true
	case "error", "ERROR":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// LogEntry is the structured log entry forwarded to the interactive shell.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	shellChannel  chan LogEntry
	shellLevel    LogLevel
	isShellMode   bool
)

const shellChannelBufferSize = 256

// InitForCLI initializes the logging system for one-shot CLI commands.
// Entries below filterLevel are dropped; everything else is written to output
// by a slog text handler.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeShellChannelLocked()
	isShellMode = false

	defaultLogger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: filterLevel.SlogLevel(),
	}))
	slog.SetDefault(defaultLogger)
}

// InitForShell initializes logging for the interactive shell. Entries at or above
// filterLevel are delivered on the returned channel so the shell can print them
// without tearing the readline prompt. Call CloseShellChannel on shutdown.
func InitForShell(filterLevel LogLevel) <-chan LogEntry {
	mu.Lock()
	defer mu.Unlock()

	closeShellChannelLocked()
	isShellMode = true
	shellLevel = filterLevel
	shellChannel = make(chan LogEntry, shellChannelBufferSize)

	// Direct slog calls made by libraries are discarded in shell mode.
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	slog.SetDefault(defaultLogger)
	return shellChannel
}

// CloseShellChannel closes the shell log channel. Safe to call more than once.
func CloseShellChannel() {
	mu.Lock()
	defer mu.Unlock()
	closeShellChannelLocked()
}

func closeShellChannelLocked() {
	if shellChannel != nil {
		close(shellChannel)
		shellChannel = nil
	}
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	now := time.Now()

	if isShellMode {
		if level < shellLevel || shellChannel == nil {
			return
		}
		entry := LogEntry{
			Timestamp: now,
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		}
		select {
		case shellChannel <- entry:
		default:
			fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] shell log channel full. Dropping: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		}
		return
	}

	if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}
