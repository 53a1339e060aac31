// Package logging provides the structured logger used across datapresso.
//
// It is a thin layer over log/slog that tags every entry with a subsystem name
// and supports two output modes:
//
//   - CLI mode: entries go straight to a slog text handler (usually stderr).
//   - Shell mode: entries are delivered on a channel so the interactive shell can
//     print them above the readline prompt.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Project", "Opened %s", name)
//	logging.Debug("Registry", "Loaded %d records", n)
//	logging.Warn("Broker", "Permission query unsupported for %s", dir)
//	logging.Error("Project", err, "Failed to save %s", path)
//
// # Subsystems
//
//   - Bootstrap: settings loading and component wiring
//   - Project: project open/save/close and file watching
//   - Broker: directory permission checks and prompts
//   - Registry: recent projects registry
//   - Store: durable blob store
//   - Shell: interactive shell
package logging
