// Package log implements a levelled logger which writes formatted entries to
// a log file and, optionally, the console.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LogLevel is the visibility level of a log entry.
type LogLevel int

// The level of visibility of the log output.
// ERROR is the lowest level, VERBOSE is the highest and it increases in the order that it is written.
const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	VERBOSE
)

var levelNames = []string{"ERROR", "WARN", "INFO", "DEBUG", "VERBOSE"}

// String returns the name of the level as it appears in log entries.
func (l LogLevel) String() string {
	if l < ERROR || l > VERBOSE {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses a level name, ignoring case.
func ParseLevel(str string) (LogLevel, error) {
	for i, name := range levelNames {
		if strings.EqualFold(str, name) {
			return LogLevel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q", str)
}

// UnmarshalText allows levels to be decoded from configuration files.
func (l *LogLevel) UnmarshalText(text []byte) error {
	level, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// MarshalText encodes the level as its name.
func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// Logger is exposed to the user and all logging is done through it.
// It handles its internal errors, so the user doesn't have to catch any.
// Logs are printed out to the log file and, unless disabled, the console.
// A Logger is safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	level     LogLevel
	formatter Formatter
	logFile   *os.File
	console   io.Writer
	logWriter io.Writer
}

// NewLogger creates a Logger writing to the file at filePath.
// It opens the log file with write-only, truncate and create flags and with mode 0644 (before umask).
// Passing filePath as a blank string makes it go to `/dev/null`.
// disableConsole disables console output.
func NewLogger(level LogLevel, filePath string, disableConsole bool) (*Logger, error) {
	if filePath == "" {
		filePath = os.DevNull
	}
	logFile, err := os.OpenFile(filePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	l := &Logger{
		level:     level,
		formatter: DefaultFormatter(),
		logFile:   logFile,
		console:   os.Stdout,
	}
	l.SetConsole(disableConsole)
	return l, nil
}

// New creates a Logger writing only to w.
func New(level LogLevel, w io.Writer) *Logger {
	return &Logger{
		level:     level,
		formatter: DefaultFormatter(),
		logWriter: w,
	}
}

// SetLevel sets the log visibility level of the Logger instance.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current visibility level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetConsole enables or disables console output. It has no effect on
// loggers created with New.
func (l *Logger) SetConsole(disableConsole bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile == nil {
		return
	}
	if disableConsole || l.console == nil {
		l.logWriter = l.logFile
	} else {
		l.logWriter = io.MultiWriter(l.logFile, l.console)
	}
}

// SetConsoleWriter replaces the console output, such as with a terminal UI
// which displays recent entries. It has no effect on loggers created with New.
func (l *Logger) SetConsoleWriter(w io.Writer) {
	l.mu.Lock()
	l.console = w
	l.mu.Unlock()
	l.SetConsole(w == nil)
}

// SetFormatter replaces the entry format.
func (l *Logger) SetFormatter(f Formatter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.formatter = f
}

// Write formats the message and flushes it to the outputs.
func (l *Logger) Write(level LogLevel, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level > l.level {
		return nil
	}
	formattedStr, err := l.formatter.Format(level.String(), message)
	if err != nil {
		return fmt.Errorf("format failed: %w", err)
	}
	if _, err := io.WriteString(l.logWriter, formattedStr); err != nil {
		return fmt.Errorf("failed to write logs: %w", err)
	}
	return nil
}

func (l *Logger) log(level LogLevel, message string, args []any) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	if err := l.Write(level, message); err != nil {
		fmt.Fprintf(os.Stderr, "Failed Log Write: %s\n", err)
	}
}

// Error prints out the error message passed to the outputs.
func (l *Logger) Error(message string, args ...any) {
	l.log(ERROR, message, args)
}

// Warn prints out the warning message if the log level allows it.
func (l *Logger) Warn(message string, args ...any) {
	l.log(WARN, message, args)
}

// Info prints out the information if the log level allows it.
func (l *Logger) Info(message string, args ...any) {
	l.log(INFO, message, args)
}

// Debug prints out the debug message if the log level allows it.
func (l *Logger) Debug(message string, args ...any) {
	l.log(DEBUG, message, args)
}

// Verbose prints out the message if the log level allows it.
func (l *Logger) Verbose(message string, args ...any) {
	l.log(VERBOSE, message, args)
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile == nil {
		return nil
	}
	err := l.logFile.Close()
	l.logFile = nil
	l.logWriter = io.Discard
	return err
}

var (
	defaultMu     sync.Mutex
	defaultLogger = New(ERROR, io.Discard)
)

// SetDefault sets the logger used by the package level functions.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the logger used by the package level functions.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLogger
}

// Error writes to the default logger.
func Error(message string, args ...any) {
	Default().Error(message, args...)
}

// Warn writes to the default logger.
func Warn(message string, args ...any) {
	Default().Warn(message, args...)
}

// Info writes to the default logger.
func Info(message string, args ...any) {
	Default().Info(message, args...)
}

// Debug writes to the default logger.
func Debug(message string, args ...any) {
	Default().Debug(message, args...)
}

// Verbose writes to the default logger.
func Verbose(message string, args ...any) {
	Default().Verbose(message, args...)
}
