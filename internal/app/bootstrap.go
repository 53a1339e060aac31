package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"datapresso/internal/capability"
	"datapresso/internal/cli"
	"datapresso/internal/config"
	"datapresso/internal/project"
	"datapresso/internal/recent"
	"datapresso/internal/store"
	"datapresso/internal/workflow"
	"datapresso/pkg/logging"
)

// Application wires settings into the project components. One-shot commands
// build an Application per invocation; the shell keeps one alive so that the
// active project survives between commands.
//
// Example usage:
//
//	cfg := app.NewConfig("", false, false)
//	a, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	_, err = a.OpenPath(ctx, "./my-project", "")
type Application struct {
	config   *Config
	settings config.Settings
	logs     <-chan logging.LogEntry

	store    *store.FileStore
	registry *recent.Registry
	broker   *capability.Broker
	manager  *project.Manager
}

// NewApplication loads settings, configures logging and builds the component graph.
func NewApplication(cfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logOutput := cfg.Err
	if logOutput == nil {
		logOutput = io.Discard
	}
	logging.InitForCLI(level, logOutput)

	settings, err := config.Load(cfg.ConfigDir, cfg.Overrides)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load settings")
		return nil, err
	}
	if !cfg.Debug {
		level = settings.Level()
	}
	if cfg.Quiet && level < logging.LevelWarn {
		level = logging.LevelWarn
	}

	a := &Application{config: cfg, settings: settings}
	if cfg.Shell {
		a.logs = logging.InitForShell(level)
	} else {
		logging.InitForCLI(level, logOutput)
	}

	a.store = store.NewFileStore(settings.RegistryDir)
	a.registry = recent.NewRegistry(a.store)
	a.broker = capability.NewBroker(a.prompter())
	a.manager = project.NewManager(project.Options{
		Broker:   a.broker,
		Registry: a.registry,
		Store:    workflow.NewStore(),
		Picker:   a.picker(),
		Notifier: a.notifier(),
		FileName: settings.ProjectFile,
	})

	logging.Debug("Bootstrap", "Registry at %s, project file %s", a.store.Root(), settings.ProjectFile)
	return a, nil
}

func (a *Application) prompter() capability.Prompter {
	switch {
	case a.settings.AssumeYes:
		return capability.StaticPrompter(true)
	case a.config.Prompter != nil:
		return a.config.Prompter
	case a.config.In == nil:
		return capability.StaticPrompter(false)
	default:
		return capability.NewTerminalPrompter(a.config.In, a.config.Err)
	}
}

func (a *Application) picker() capability.Picker {
	if a.config.Picker != nil {
		return a.config.Picker
	}
	if a.config.In == nil {
		return nil
	}
	return capability.NewPromptPicker(a.broker, a.config.In, a.config.Err)
}

func (a *Application) notifier() project.Notifier {
	if a.config.Notifier != nil {
		return a.config.Notifier
	}
	return project.NotifierFunc(a.printNotification)
}

// printNotification is the notifier for one-shot commands.
func (a *Application) printNotification(n project.Notification) {
	if a.config.Err == nil {
		return
	}
	switch n.Level {
	case project.LevelInfo:
		if !a.config.Quiet {
			fmt.Fprintln(a.config.Err, cli.FormatSuccess(n.Message))
		}
	default:
		fmt.Fprintln(a.config.Err, cli.FormatWarning(n.Message))
	}
}

// Settings returns the loaded settings.
func (a *Application) Settings() config.Settings { return a.settings }

// Manager returns the project manager.
func (a *Application) Manager() *project.Manager { return a.manager }

// Registry returns the recent projects registry.
func (a *Application) Registry() *recent.Registry { return a.registry }

// Broker returns the permission broker.
func (a *Application) Broker() *capability.Broker { return a.broker }

// Logs returns the log channel in shell mode, nil otherwise.
func (a *Application) Logs() <-chan logging.LogEntry { return a.logs }

// OpenPath opens the project in the directory at path. Naming a path on the
// command line counts as the user choosing it, so it is granted read-write.
func (a *Application) OpenPath(ctx context.Context, path, name string) (project.LoadResult, error) {
	dir, err := a.broker.Select(path)
	if err != nil {
		return project.LoadResult{}, err
	}
	return a.manager.LoadConfig(ctx, dir, name)
}

// ErrAmbiguous is returned by FindRecent when a reference matches several records.
var ErrAmbiguous = errors.New("reference matches more than one recent project")

// FindRecent looks up a recent project by id, unique id prefix or name.
func (a *Application) FindRecent(ref string) (recent.Record, error) {
	if ref == "" {
		return recent.Record{}, fmt.Errorf("empty project reference: %w", project.ErrNotFound)
	}
	if rec, err := a.registry.Get(ref); err == nil {
		return rec, nil
	} else if !errors.Is(err, recent.ErrNotFound) {
		return recent.Record{}, err
	}

	records, err := a.registry.List()
	if err != nil {
		return recent.Record{}, err
	}

	var matches []recent.Record
	for _, rec := range records {
		if strings.HasPrefix(rec.ID, ref) || strings.EqualFold(rec.Name, ref) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return recent.Record{}, fmt.Errorf("recent project %q: %w", ref, project.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return recent.Record{}, fmt.Errorf("%q: %w", ref, ErrAmbiguous)
	}
}

// Close releases the shell log channel, if any.
func (a *Application) Close() {
	if a.logs != nil {
		logging.CloseShellChannel()
	}
}
