package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"datapresso/pkg/logging"
)

const (
	userConfigDir    = ".config/datapresso"
	settingsFileName = "settings"
	envPrefix        = "DATAPRESSO"
)

// Settings keys, as used in settings.yaml and (upper-cased with the
// DATAPRESSO_ prefix) in the environment.
const (
	KeyRegistryDir   = "registry_dir"
	KeyProjectFile   = "project_file"
	KeyLogLevel      = "log_level"
	KeyAssumeYes     = "assume_yes"
	KeyHistoryFile   = "history_file"
	KeyWatch         = "watch"
	KeyWatchDebounce = "watch_debounce"
)

// Settings is the application configuration.
type Settings struct {
	// ConfigDir is the directory settings were loaded from.
	ConfigDir string `mapstructure:"-"`
	// RegistryDir holds the recent projects registry.
	RegistryDir string `mapstructure:"registry_dir"`
	// ProjectFile is the config file name looked up in a project directory.
	ProjectFile string `mapstructure:"project_file"`
	LogLevel    string `mapstructure:"log_level"`
	// AssumeYes grants access to restored directories without asking.
	AssumeYes   bool   `mapstructure:"assume_yes"`
	HistoryFile string `mapstructure:"history_file"`
	// Watch makes the shell reload the config file when it changes on disk.
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

// DefaultConfigDir returns ~/.config/datapresso.
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// Load reads settings from configDir/settings.yaml and the environment, then
// applies overrides (typically command-line flags). A missing settings file
// means defaults. An empty configDir selects DefaultConfigDir.
func Load(configDir string, overrides map[string]any) (Settings, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return Settings{}, err
		}
		configDir = dir
	}

	v := viper.New()
	setDefaults(v, configDir)

	v.SetConfigName(settingsFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, ConfigurationError{
				FilePath:  filepath.Join(configDir, settingsFileName+".yaml"),
				ErrorType: "parse",
				Message:   "settings file could not be read",
				Details:   err.Error(),
				Suggestions: []string{
					"Check the YAML syntax of settings.yaml",
					"Remove the file to fall back to defaults",
				},
			}
		}
		logging.Debug("Bootstrap", "No settings file in %s, using defaults", configDir)
	} else {
		logging.Debug("Bootstrap", "Loaded settings from %s", v.ConfigFileUsed())
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, ConfigurationError{
			FilePath:  v.ConfigFileUsed(),
			ErrorType: "parse",
			Message:   "settings have the wrong type",
			Details:   err.Error(),
		}
	}
	s.ConfigDir = configDir

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault(KeyRegistryDir, configDir)
	v.SetDefault(KeyProjectFile, "config.yaml")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAssumeYes, false)
	v.SetDefault(KeyHistoryFile, filepath.Join(configDir, "history"))
	v.SetDefault(KeyWatch, true)
	v.SetDefault(KeyWatchDebounce, 300*time.Millisecond)
}

// Validate checks the settings for values the application cannot use.
func (s Settings) Validate() error {
	var errs ConfigurationErrorCollection

	if s.ProjectFile == "" || filepath.Base(s.ProjectFile) != s.ProjectFile || s.ProjectFile == "." || s.ProjectFile == ".." {
		errs.Add(ConfigurationError{
			Key:         KeyProjectFile,
			ErrorType:   "validation",
			Message:     fmt.Sprintf("%q is not a plain file name", s.ProjectFile),
			Suggestions: []string{"Use a name such as config.yaml without any directory part"},
		})
	}
	if s.RegistryDir == "" {
		errs.Add(ConfigurationError{
			Key:       KeyRegistryDir,
			ErrorType: "validation",
			Message:   "registry directory cannot be empty",
		})
	}
	if _, ok := logging.ParseLevel(s.LogLevel); !ok {
		errs.Add(ConfigurationError{
			Key:         KeyLogLevel,
			ErrorType:   "validation",
			Message:     fmt.Sprintf("unknown log level %q", s.LogLevel),
			Suggestions: []string{"Use one of debug, info, warn, error"},
		})
	}
	if s.WatchDebounce < 0 {
		errs.Add(ConfigurationError{
			Key:       KeyWatchDebounce,
			ErrorType: "validation",
			Message:   "watch debounce cannot be negative",
		})
	}

	return errs.ErrOrNil()
}

// Level returns the parsed log level.
func (s Settings) Level() logging.LogLevel {
	level, _ := logging.ParseLevel(s.LogLevel)
	return level
}
