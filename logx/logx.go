// Package logx writes leveled "LEVEL:message" log lines through the standard log package.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
	Critical
)

var levelNames = [...]string{
	Debug:    "DEBUG",
	Info:     "INFO",
	Warning:  "WARNING",
	Error:    "ERROR",
	Critical: "CRITICAL",
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts the level names in any case.
func ParseLevel(tag string) (Level, error) {
	upper := strings.ToUpper(tag)
	for l, name := range levelNames {
		if name == upper {
			return Level(l), nil
		}
	}
	return 0, fmt.Errorf("logx: unknown level %q", tag)
}

type Logger struct {
	level Level
	out   *log.Logger
}

func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, out: log.New(w, "", 0)}
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	l.out.Printf("%s:%s", level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) {
	l.Logf(Debug, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Logf(Info, format, args...)
}

func (l *Logger) Warningf(format string, args ...any) {
	l.Logf(Warning, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Logf(Error, format, args...)
}

func (l *Logger) Criticalf(format string, args ...any) {
	l.Logf(Critical, format, args...)
}

var std atomic.Pointer[Logger]

func init() {
	std.Store(New(os.Stderr, Warning))
}

func Default() *Logger {
	return std.Load()
}

func SetDefault(l *Logger) {
	std.Store(l)
}

// ConfigureFile appends every record at or above level to the file at path and installs the
// logger as the default. The returned func closes the file.
func ConfigureFile(path string, level Level) (*Logger, func() error, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	fmt.Println("All Logs will be saved to", abs)

	f, err := os.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	l := New(f, level)
	SetDefault(l)
	return l, f.Close, nil
}

// TimedEval runs f and reports "label: result Time Spent: seconds" through logf.
func TimedEval[R any](logf func(format string, args ...any), label string, f func() R) R {
	start := time.Now()
	result := f()
	logf("%s: %v Time Spent: %v", label, result, time.Since(start).Seconds())
	return result
}
