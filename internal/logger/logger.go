// Package logger provides the levelled console logger used during a
// migration run.
//
// Lines look like "2006-01-02 15:04:05 :: LEVEL :: message". The level tag is
// coloured when the console is a terminal. An optional log file receives the
// same lines without colour and is rotated by size.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// TimeFormat is the timestamp layout of every log line.
const TimeFormat = "2006-01-02 15:04:05"

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag printed for the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
// Empty or unknown names give LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgCyan),
	LevelInfo:  color.New(color.FgBlue),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
}

// Logger writes levelled messages to a console writer and, optionally, a
// rotating file. It is safe for concurrent use.
type Logger struct {
	mu          sync.Mutex
	out         io.Writer
	file        io.WriteCloser
	level       Level
	colorOutput bool
	now         func() time.Time
}

// New creates a Logger writing to w. A nil w discards console output.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		out:         w,
		level:       level,
		colorOutput: isTerminal(w),
		now:         time.Now,
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(nil, LevelError+1)
}

// isTerminal reports whether w is a terminal that should get colours.
// NO_COLOR is honoured through fatih/color.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetLevel changes the minimum level written to the console.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum console level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().Format(TimeFormat)
	msg := fmt.Sprintf(format, args...)

	if l.out != nil && level >= l.level {
		tag := level.String()
		if l.colorOutput {
			tag = levelColors[level].Sprint(tag)
		}
		fmt.Fprintf(l.out, "%s :: %s :: %s\n", ts, tag, msg)
	}

	// The file gets everything from debug up.
	if l.file != nil {
		fmt.Fprintf(l.file, "%s :: %s :: %s\n", ts, level.String(), msg)
	}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
