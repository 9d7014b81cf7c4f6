// Package logger provides leveled logging for the server and CLI.
//
// Output always goes to stderr because stdout carries the MCP protocol.
// Message keys are passed through go-l10n so they can be translated.
package logger

import "strings"

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for request-level tracing.
	LevelDebug LogLevel = iota
	// LevelInfo is for lifecycle messages.
	LevelInfo
	// LevelWarn is for failed tool calls and recoverable problems.
	LevelWarn
	// LevelError is for problems that stop the server.
	LevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown values map to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the logging interface used across the application.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a logger that prefixes messages with a component name.
	WithComponent(component string) Logger
}
