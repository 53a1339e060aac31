package app

import (
	"io"
	"os"

	"datapresso/internal/capability"
	"datapresso/internal/project"
)

// Config holds the runtime options an Application is built from. Most of it
// comes from command-line flags; Settings are loaded from disk on top of it.
type Config struct {
	// ConfigDir overrides the settings directory (~/.config/datapresso).
	ConfigDir string
	// Debug forces the debug log level.
	Debug bool
	// Quiet hides informational notifications and progress output.
	Quiet bool
	// Overrides are settings keys set on the command line.
	Overrides map[string]any
	// Shell routes log output to a channel instead of Err.
	Shell bool

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Prompter, Picker and Notifier replace the terminal defaults when set.
	Prompter capability.Prompter
	Picker   capability.Picker
	Notifier project.Notifier
}

// NewConfig creates a Config bound to the process's standard streams.
func NewConfig(configDir string, debug, quiet bool) *Config {
	return &Config{
		ConfigDir: configDir,
		Debug:     debug,
		Quiet:     quiet,
		Overrides: map[string]any{},
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
	}
}
