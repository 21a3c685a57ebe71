// Package logger provides the leveled, named logger used during a publish cycle.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

type Level int

const (
	LevelSilent Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

// LevelFor maps the silent flag to a level.
func LevelFor(silent bool) Level {
	if silent {
		return LevelSilent
	}
	return LevelInfo
}

// Logger writes "[name] message" lines at or below its level.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	name  string
	level Level

	red    func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
}

func New(name string, out io.Writer, level Level) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		out:    out,
		name:   name,
		level:  level,
		red:    color.New(color.FgRed).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
		gray:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return New("", io.Discard, LevelSilent)
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Name() string { return l.name }

func (l *Logger) Enabled(level Level) bool {
	return level != LevelSilent && level <= l.level
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, l.red, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, l.yellow, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprint, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, l.gray, format, args...)
}

func (l *Logger) log(level Level, paint func(a ...interface{}) string, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s\n", l.cyan("["+l.name+"]"), paint(msg))
}
