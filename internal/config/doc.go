// Package config loads the application settings of datapresso.
//
// Settings come from, in increasing precedence:
//
//  1. built-in defaults
//  2. ~/.config/datapresso/settings.yaml (optional)
//  3. DATAPRESSO_* environment variables, e.g. DATAPRESSO_LOG_LEVEL=debug
//  4. overrides passed by the caller, usually command-line flags
//
// Example settings.yaml:
//
//	registry_dir: /home/me/.local/share/datapresso
//	project_file: config.yaml
//	log_level: info
//	watch: true
//	watch_debounce: 500ms
//
// Invalid values are reported as ConfigurationError values with suggestions.
package config
