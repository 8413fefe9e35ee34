// SPDX-License-Identifier: MIT
//
// Package log is a small level-gated logger. Packages hold a component
// Logger from With so every line carries its origin:
//
//	2026/01/02 15:04:05.000000 [INFO]  [audio] Output device: ...
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l LogLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	name := strings.ToUpper(strings.TrimSpace(levelStr))
	if name == "WARNING" {
		name = "WARN"
	}
	for l, n := range levelNames {
		if n == name {
			return LogLevel(l), true
		}
	}
	return LevelInfo, false
}

var (
	currentLevel atomic.Uint32
	logger       = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)
	root         Logger
)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// SetOutput redirects all log output. Tests use it to capture messages.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Debugf(format string, v ...any) { root.logf(LevelDebug, format, v) }
func Infof(format string, v ...any)  { root.logf(LevelInfo, format, v) }
func Warnf(format string, v ...any)  { root.logf(LevelWarn, format, v) }
func Errorf(format string, v ...any) { root.logf(LevelError, format, v) }

// Fatalf logs regardless of level and exits with status 1.
func Fatalf(format string, v ...any) { root.Fatalf(format, v...) }

// Logger tags every message with a component name, e.g. "[DEBUG] [audio] ...".
// The zero value logs without a tag.
type Logger struct {
	component string
}

// With returns a Logger for the named component.
func With(component string) Logger {
	return Logger{component: component}
}

// With returns a child logger tagged "parent/sub".
func (l Logger) With(sub string) Logger {
	if l.component == "" {
		return With(sub)
	}
	return Logger{component: l.component + "/" + sub}
}

func (l Logger) Debugf(format string, v ...any) { l.logf(LevelDebug, format, v) }
func (l Logger) Infof(format string, v ...any)  { l.logf(LevelInfo, format, v) }
func (l Logger) Warnf(format string, v ...any)  { l.logf(LevelWarn, format, v) }
func (l Logger) Errorf(format string, v ...any) { l.logf(LevelError, format, v) }

func (l Logger) Fatalf(format string, v ...any) {
	l.output(LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func (l Logger) logf(level LogLevel, format string, v []any) {
	if level < GetLevel() {
		return
	}
	l.output(level, fmt.Sprintf(format, v...))
}

// output writes one line. Four-letter levels get an extra space so messages
// line up.
func (l Logger) output(level LogLevel, msg string) {
	name := level.String()
	pad := " "
	if len(name) == 4 {
		pad = "  "
	}
	if l.component != "" {
		logger.Printf("[%s]%s[%s] %s", name, pad, l.component, msg)
		return
	}
	logger.Printf("[%s]%s%s", name, pad, msg)
}
