package log

import (
	"errors"
	"strings"
	"time"
)

var errNoMessage = errors.New("missing {message} in format string")

// Formatter formats log entries. It is initialized with a formatStr that can
// use certain internal variables:
// `ascTime` - The time of the log print in human readable form.
// `level` - The visibility level of the log.
// `message` - The log message itself. This is a compulsory format variable.
// All format variables are enclosed in '{' and '}'.
// Eg: "{ascTime}: [{level}] - {message}"
type Formatter struct {
	formatStr string
	now       func() time.Time
}

// DefaultFormatter creates a simple Formatter instance with a pre-defined `formatStr`.
func DefaultFormatter() Formatter {
	return NewFormatter("{ascTime}: [{level}] - {message}")
}

// NewFormatter creates a Formatter instance with a user-defined `formatStr`.
func NewFormatter(formatStr string) Formatter {
	return Formatter{formatStr: formatStr, now: time.Now}
}

// WithClock returns a copy of the formatter which reads the time from now.
func (f Formatter) WithClock(now func() time.Time) Formatter {
	f.now = now
	return f
}

// args makes the replacement pairs for every format variable in formatStr.
func (f *Formatter) args(ascTime string, level string, message string) ([]string, error) {
	if !strings.Contains(f.formatStr, "{message}") {
		return nil, errNoMessage
	}
	var formatArgs []string
	if strings.Contains(f.formatStr, "{ascTime}") {
		formatArgs = append(formatArgs, "{ascTime}", ascTime)
	}
	if strings.Contains(f.formatStr, "{level}") {
		formatArgs = append(formatArgs, "{level}", level)
	}
	return append(formatArgs, "{message}", message), nil
}

// Format is used to get a fully formatted line from `formatStr`.
func (f *Formatter) Format(level string, message string) (string, error) {
	now := f.now
	if now == nil {
		now = time.Now
	}
	args, err := f.args(now().Format(time.RFC3339), level, message)
	if err != nil {
		return "", err
	}
	return strings.NewReplacer(args...).Replace(f.formatStr) + "\n", nil
}
