package log

import (
	"os"
	"path/filepath"
)

// PathEnv names the environment variable which overrides the log file path.
const PathEnv = "DESKCTL_LOG_PATH"

// LogConf describes how to construct a Logger.
type LogConf struct {
	LogLevel  LogLevel
	FilePath  string
	FormatStr string
}

// DefaultConf returns a configuration at the given level writing to
// $DESKCTL_LOG_PATH, or deskctl.log in the temporary directory.
func DefaultConf(level LogLevel) LogConf {
	path := os.Getenv(PathEnv)
	if path == "" {
		path = filepath.Join(os.TempDir(), "deskctl.log")
	}
	return LogConf{LogLevel: level, FilePath: path}
}

// Open creates the Logger described by the configuration.
func (c LogConf) Open(disableConsole bool) (*Logger, error) {
	l, err := NewLogger(c.LogLevel, c.FilePath, disableConsole)
	if err != nil {
		return nil, err
	}
	if c.FormatStr != "" {
		l.SetFormatter(NewFormatter(c.FormatStr))
	}
	return l, nil
}
