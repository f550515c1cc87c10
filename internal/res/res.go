// Package res contains various resources embedded within deskctl that are
// used elsewhere.
package res

import (
	"crypto/sha1"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultConfigPath = "default.toml"
	ExampleScriptPath = "example.yaml"
)

// DefaultConfig contains the example configuration.
//
//go:embed default.toml
var DefaultConfig []byte

// ExampleScript contains an example input script for the replay command.
//
//go:embed example.yaml
var ExampleScript []byte

// dataDir contains the directory in which resources are stored. It is assigned
// by WriteResources on startup.
var dataDir string

// This variable is intended for packagers. It can be modified using LDFLAGS.
// Set this variable at build time if you want to change the location where
// the example files can be found.
var overrideDataDir string

// getDataDirectory returns the path to the data directory for deskctl.
// If an override was specified at build time, it will be used. Otherwise,
// $XDG_DATA_HOME/deskctl or the user's cache directory will be used.
func getDataDirectory() (string, error) {
	if overrideDataDir != "" {
		return overrideDataDir, nil
	}

	dir, ok := os.LookupEnv("XDG_DATA_HOME")
	if ok && dir != "" {
		return filepath.Join(dir, "deskctl"), nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "deskctl"), nil
}

// GetDataDirectory returns the directory assigned by WriteResources.
func GetDataDirectory() string {
	return dataDir
}

// WriteResources writes various resources to disk on startup if needed.
func WriteResources() error {
	dir, err := getDataDirectory()
	if err != nil {
		return fmt.Errorf("get data dir: %w", err)
	}
	dataDir = dir

	if overrideDataDir != "" {
		return nil
	}
	return writeResources(dataDir)
}

func writeResources(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	resources := map[string][]byte{
		DefaultConfigPath: DefaultConfig,
		ExampleScriptPath: ExampleScript,
	}
	for name, contents := range resources {
		path := filepath.Join(dir, name)
		// Only overwrite if changed.
		if file, err := os.ReadFile(path); err == nil {
			if sha1.Sum(contents) == sha1.Sum(file) {
				continue
			}
		}
		if err := os.WriteFile(path, contents, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
