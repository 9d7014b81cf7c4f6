package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// ConsoleLogger writes leveled, optionally coloured lines to a writer.
type ConsoleLogger struct {
	mu        *sync.Mutex
	out       io.Writer
	level     LogLevel
	component string
	color     bool
	now       func() time.Time
}

// NewConsole creates a logger writing to stderr. Colour is enabled when
// stderr is a terminal.
func NewConsole(level LogLevel) *ConsoleLogger {
	fd := os.Stderr.Fd()
	return &ConsoleLogger{
		mu:    &sync.Mutex{},
		out:   os.Stderr,
		level: level,
		color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		now:   time.Now,
	}
}

// NewWriter creates an uncoloured logger writing to w.
func NewWriter(w io.Writer, level LogLevel) *ConsoleLogger {
	return &ConsoleLogger{
		mu:    &sync.Mutex{},
		out:   w,
		level: level,
		now:   time.Now,
	}
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// WithComponent returns a new logger with the specified component name.
// The returned logger shares the writer and its lock.
func (l *ConsoleLogger) WithComponent(component string) Logger {
	c := *l
	c.component = component
	return &c
}

func (l *ConsoleLogger) log(level LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}

	text := l10n.F(msg, args...)
	if l.component != "" {
		if l.color {
			text = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, text)
		} else {
			text = fmt.Sprintf("[%s] %s", l.component, text)
		}
	}

	line := fmt.Sprintf("%s %-5s %s", l.now().Format("2006-01-02 15:04:05"), level, text)
	if l.color {
		switch level {
		case LevelDebug:
			line = colorGray + line + colorReset
		case LevelWarn:
			line = colorYellow + line + colorReset
		case LevelError:
			line = colorRed + line + colorReset
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}
