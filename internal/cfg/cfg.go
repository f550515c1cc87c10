// Package cfg allows for reading the user's configuration.
package cfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/log"
	"github.com/tesselslate/deskctl/internal/res"
)

// Display contains settings used when querying the display.
type Display struct {
	DefaultSize Size `toml:"default_size"` // Used when the display cannot be queried
}

// Input contains delays for synthesized input, in milliseconds.
type Input struct {
	DragStepDelay int `toml:"drag_step_delay"` // Pause after each drag step
	HoldDefault   int `toml:"hold_default"`    // Button hold duration
	TypeDelay     int `toml:"type_delay"`      // Pause after each typed character
}

// Capture contains the user's capture settings.
type Capture struct {
	Display int `toml:"display"` // Index of the captured display
}

// Stream contains the settings of the stream command.
type Stream struct {
	FPS      int    `toml:"fps"`      // Capture rate
	Buffer   int    `toml:"buffer"`   // Frame buffer capacity
	Listen   string `toml:"listen"`   // Websocket listen address
	Snapshot string `toml:"snapshot"` // Optional BMP snapshot path
}

// Profile contains an entire configuration profile.
type Profile struct {
	LogLevel log.LogLevel `toml:"log_level"`

	Display Display `toml:"display"`
	Input   Input   `toml:"input"`
	Capture Capture `toml:"capture"`
	Stream  Stream  `toml:"stream"`
}

// Size is a width and height in pixels, written as "WxH".
type Size struct {
	W, H int
}

// Default returns the profile used for settings missing from a profile.
func Default() Profile {
	return Profile{
		LogLevel: log.INFO,
		Display: Display{
			DefaultSize: Size{calib.DefaultSize.W, calib.DefaultSize.H},
		},
		Input: Input{
			DragStepDelay: 2,
			HoldDefault:   100,
		},
		Stream: Stream{
			FPS:    30,
			Buffer: 3,
			Listen: "127.0.0.1:7878",
		},
	}
}

// GetDirectory returns the path to the user's configuration directory.
func GetDirectory() (string, error) {
	// UserConfigDir checks for $XDG_CONFIG_HOME and falls back to
	// $HOME/.config, or the platform equivalent.
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "deskctl"), nil
}

// GetPath returns the path of the profile with the given name.
func GetPath(name string) (string, error) {
	dir, err := GetDirectory()
	if err != nil {
		return "", fmt.Errorf("get config directory: %w", err)
	}
	return filepath.Join(dir, name+".toml"), nil
}

// ListProfiles returns the names of the user's configuration profiles.
func ListProfiles() ([]string, error) {
	dir, err := GetDirectory()
	if err != nil {
		return nil, fmt.Errorf("get config directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config directory: %w", err)
	}
	var names []string
	for _, v := range entries {
		name := v.Name()
		if v.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasSuffix(name, ".toml") {
			names = append(names, strings.TrimSuffix(name, ".toml"))
		}
	}
	return names, nil
}

// GetProfile returns a parsed configuration profile.
func GetProfile(name string) (Profile, error) {
	path, err := GetPath(name)
	if err != nil {
		return Profile{}, err
	}
	return LoadProfile(path)
}

// LoadProfile reads and validates the profile at path. Settings missing from
// the file keep their default values.
func LoadProfile(path string) (Profile, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read config file: %w", err)
	}
	profile := Default()
	if err = toml.Unmarshal(file, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse config file: %w", err)
	}
	if err = validateProfile(&profile); err != nil {
		return Profile{}, fmt.Errorf("validate config: %w", err)
	}
	return profile, nil
}

// MakeProfile makes a new configuration profile with the given name and the
// default settings. An existing profile is not overwritten.
func MakeProfile(name string) (string, error) {
	dir, err := GetDirectory()
	if err != nil {
		return "", fmt.Errorf("get config directory: %w", err)
	}
	stat, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat config directory: %w", err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create config directory: %w", err)
		}
	} else if !stat.IsDir() {
		return "", fmt.Errorf("config directory (%s) is not a directory", dir)
	}
	path := filepath.Join(dir, name+".toml")
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create profile: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(res.DefaultConfig); err != nil {
		return "", fmt.Errorf("write profile: %w", err)
	}
	return path, nil
}

// validateProfile ensures that the user's configuration profile does not have
// any illegal or invalid settings.
func validateProfile(conf *Profile) error {
	if conf.LogLevel < log.ERROR || conf.LogLevel > log.VERBOSE {
		return fmt.Errorf("invalid log level %d", conf.LogLevel)
	}
	if conf.Display.DefaultSize.W <= 0 || conf.Display.DefaultSize.H <= 0 {
		return errors.New("invalid default display size")
	}

	in := conf.Input
	if in.DragStepDelay < 0 {
		return fmt.Errorf("invalid drag step delay %d", in.DragStepDelay)
	}
	if in.HoldDefault < 0 {
		return fmt.Errorf("invalid hold duration %d", in.HoldDefault)
	}
	if in.TypeDelay < 0 {
		return fmt.Errorf("invalid type delay %d", in.TypeDelay)
	}
	if in.DragStepDelay > 50 {
		log.Warn("Very high drag step delay in config. Long drags will take several seconds.")
	}

	if conf.Capture.Display < 0 {
		return fmt.Errorf("invalid display index %d", conf.Capture.Display)
	}

	if conf.Stream.FPS < 1 || conf.Stream.FPS > 120 {
		return fmt.Errorf("invalid stream fps %d (must be 1-120)", conf.Stream.FPS)
	}
	if conf.Stream.Buffer < 1 {
		return fmt.Errorf("invalid frame buffer size %d", conf.Stream.Buffer)
	}
	if conf.Stream.Listen == "" {
		return errors.New("missing stream listen address")
	}
	return nil
}

// StepDelay returns the pause after each drag step. A delay of zero in the
// profile disables the pause.
func (i Input) StepDelay() time.Duration {
	if i.DragStepDelay == 0 {
		return -1
	}
	return time.Duration(i.DragStepDelay) * time.Millisecond
}

// Hold returns the default button hold duration.
func (i Input) Hold() time.Duration {
	return time.Duration(i.HoldDefault) * time.Millisecond
}

// CharDelay returns the pause after each typed character.
func (i Input) CharDelay() time.Duration {
	return time.Duration(i.TypeDelay) * time.Millisecond
}

// Interval returns the time between captured frames.
func (s Stream) Interval() time.Duration {
	return time.Second / time.Duration(s.FPS)
}

// Calib converts the size for use by the calibrator.
func (s Size) Calib() calib.Size {
	return calib.Size{W: s.W, H: s.H}
}

// String returns the size as "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *Size) UnmarshalTOML(value any) error {
	str, ok := value.(string)
	if !ok {
		return errors.New("size value was not a string")
	}
	n, err := fmt.Sscanf(str, "%dx%d", &s.W, &s.H)
	if err != nil {
		return fmt.Errorf("parse size %q: %w", str, err)
	}
	if n != 2 {
		return errors.New("missing size dimensions")
	}
	return nil
}
