package main

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/tesselslate/deskctl/internal/cfg"
	"github.com/tesselslate/deskctl/internal/log"
	"github.com/tesselslate/deskctl/internal/res"
)

//go:embed .notice
var notice string

//go:embed .version
var version string

// profileEnv names the profile used by commands other than stream.
const profileEnv = "DESKCTL_PROFILE"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "--help", "-h", "help":
		printHelp()
		return
	case "--version", "version":
		fmt.Print(
			"\n    deskctl ",
			strings.Trim(version, "\n"),
			" - desktop input and capture tool\n",
			notice,
		)
		return
	case "new":
		if len(os.Args) < 3 {
			printHelp()
			os.Exit(1)
		}
		var path string
		path, err = cfg.MakeProfile(os.Args[2])
		if err == nil {
			fmt.Println("Created profile at", path)
		}
	case "stream":
		name := ""
		if len(os.Args) > 2 {
			name = os.Args[2]
		}
		err = runStream(name)
	default:
		cmd, ok := commands[os.Args[1]]
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown command %q.\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
		err = runCommand(cmd, os.Args[2:])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadProfile returns the named profile. With no name, the profile named by
// $DESKCTL_PROFILE is used, then the default profile if it exists, and
// otherwise the built-in defaults.
func loadProfile(name string) (cfg.Profile, string, error) {
	if name == "" {
		name = os.Getenv(profileEnv)
	}
	if name == "" {
		path, err := cfg.GetPath("default")
		if err != nil {
			return cfg.Default(), "", nil
		}
		if _, err := os.Stat(path); err != nil {
			return cfg.Default(), "", nil
		}
		name = "default"
	}
	profile, err := cfg.GetProfile(name)
	if err != nil {
		return cfg.Profile{}, "", fmt.Errorf("load profile %s: %w", name, err)
	}
	return profile, name, nil
}

// setupLogger installs the default logger and writes the example resources.
func setupLogger(level log.LogLevel, disableConsole bool) (*log.Logger, error) {
	logger, err := log.DefaultConf(level).Open(disableConsole)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	if err := res.WriteResources(); err != nil {
		logger.Warn("Failed to write resources: %s", err)
	}
	return logger, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

func printHelp() {
	fmt.Printf(`
    deskctl - desktop input and capture tool
    USAGE:
        deskctl COMMAND [ARGS]

    COMMANDS:
        deskctl new PROFILE         Create a new profile named PROFILE with
                                    the default configuration.
        deskctl info                Print display and cursor information.
        deskctl capture [N] [FILE]  Capture display N to a BMP file.
        deskctl move X Y            Move the pointer.
        deskctl click [BUTTON]      Click left, right or middle.
        deskctl hold [BUTTON] [MS]  Hold a button down.
        deskctl drag X Y [BUTTON]   Drag from the pointer to X,Y.
        deskctl scroll DX DY        Scroll by wheel notches (+DY is up).
        deskctl type TEXT           Type text.
        deskctl key CHORD           Press a key chord, such as ctrl-shift-t.
        deskctl replay FILE         Replay an input script.
          --watch                   Replay again whenever FILE changes.
        deskctl stream [PROFILE]    Stream the display over a websocket and
                                    accept remote input.
        deskctl help                Print this message.
        deskctl version             Get the version of deskctl installed.

    Commands other than stream use the profile in $%s, or the
    profile named "default" if it exists. The log is written to $%s
    or deskctl.log in the temporary directory.
`, profileEnv, log.PathEnv)
}
