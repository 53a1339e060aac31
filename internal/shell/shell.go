package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"

	"datapresso/internal/app"
	"datapresso/internal/capability"
	"datapresso/internal/cli"
	"datapresso/internal/project"
	"datapresso/pkg/logging"
)

// Options configures a Shell.
type Options struct {
	Out     io.Writer
	Format  cli.OutputFormat
	NoColor bool
	// HistoryFile is where readline keeps command history. Empty disables history.
	HistoryFile string
}

// Shell is an interactive session that keeps one project open across commands.
//
// The Shell doubles as the prompter, picker and notifier of its Application,
// so that questions and notifications go through the readline prompt:
//
//	sh := shell.New(opts)
//	cfg.Prompter, cfg.Picker, cfg.Notifier = sh.Prompter(), sh.Picker(), sh
//	a, err := app.NewApplication(cfg)
//	...
//	return sh.Run(ctx, a)
type Shell struct {
	opts     Options
	out      *lockedWriter
	printer  *cli.Printer
	registry *Registry
	app      *app.Application

	rl *readline.Instance
	// readLine reads one answer for a prompter or picker question.
	readLine func(prompt string) (string, error)

	mu          sync.Mutex
	runCtx      context.Context
	watchCancel context.CancelFunc
	wg          sync.WaitGroup
}

// New creates a Shell. Attach or Run binds it to an Application.
func New(opts Options) *Shell {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	s := &Shell{
		opts:     opts,
		out:      &lockedWriter{w: opts.Out},
		registry: NewRegistry(),
		runCtx:   context.Background(),
	}
	s.printer = cli.NewPrinter(s.out, cli.PrinterOptions{Format: opts.Format, NoColor: opts.NoColor})
	s.readLine = func(string) (string, error) { return "", io.EOF }
	return s
}

// Attach binds the Shell to a and registers the commands.
func (s *Shell) Attach(a *app.Application) {
	s.app = a
	s.registerCommands()
}

func (s *Shell) registerCommands() {
	s.registry = NewRegistry()
	base := &baseCommand{sh: s}

	s.registry.Register("open", &openCommand{base})
	s.registry.Register("recent", &recentCommand{base})
	s.registry.Register("save", &saveCommand{base})
	s.registry.Register("close", &closeCommand{base})
	s.registry.Register("status", &statusCommand{base})
	s.registry.Register("ls", &lsCommand{base})
	s.registry.Register("mkdir", &mkdirCommand{base})
	s.registry.Register("touch", &touchCommand{base})
	s.registry.Register("name", &nameCommand{base})
	s.registry.Register("revoke", &revokeCommand{base})
	s.registry.Register("show", &showCommand{base})
	s.registry.Register("get", &getCommand{base})
	s.registry.Register("set", &setCommand{base})
	s.registry.Register("export", &exportCommand{base})
	s.registry.Register("import", &importCommand{base})
	s.registry.Register("help", &helpCommand{baseCommand: base, registry: s.registry})
	s.registry.Register("exit", &exitCommand{base})
}

// Prompter returns a capability.Prompter that asks through the shell prompt.
func (s *Shell) Prompter() capability.Prompter {
	return capability.PrompterFunc(func(ctx context.Context, dir *capability.Directory, mode capability.Mode) (bool, error) {
		answer, err := s.readLine(fmt.Sprintf("Allow %s access to %q (%s)? [y/N] ", mode, dir.Name(), dir.Path()))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return false, nil
			}
			return false, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes", nil
	})
}

// Picker returns a capability.Picker that reads a directory path at the shell prompt.
func (s *Shell) Picker() capability.Picker {
	return shellPicker{s}
}

type shellPicker struct{ s *Shell }

func (p shellPicker) Pick(ctx context.Context, preferredName string) (*capability.Directory, error) {
	prompt := "Project directory: "
	if preferredName != "" {
		prompt = fmt.Sprintf("Project directory for %q: ", preferredName)
	}
	path, err := p.s.readLine(prompt)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil, capability.ErrUserCancelled
		}
		return nil, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, capability.ErrUserCancelled
	}
	return capability.PathPicker{Broker: p.s.app.Broker(), Path: path}.Pick(ctx, preferredName)
}

// Notify prints a project notification above the prompt.
func (s *Shell) Notify(n project.Notification) {
	var line string
	switch n.Level {
	case project.LevelInfo:
		line = s.colorize(text.FgGreen, cli.FormatSuccess(n.Message))
	case project.LevelWarning:
		line = s.colorize(text.FgYellow, cli.FormatWarning(n.Message))
	default:
		line = s.colorize(text.FgRed, cli.FormatError(errors.New(n.Message)))
	}
	s.println(line)

	var fe interface{ DetailedError() string }
	if n.Kind == project.KindFormatError && errors.As(n.Err, &fe) {
		s.println(fe.DetailedError())
	}
}

// SetHistoryFile sets where command history is kept. Call before Run.
func (s *Shell) SetHistoryFile(path string) {
	s.opts.HistoryFile = path
}

// Run attaches a and reads commands until exit, end of input or ctx is done.
// The words of initial, if any, are run as the first command.
func (s *Shell) Run(ctx context.Context, a *app.Application, initial ...string) error {
	s.Attach(a)
	if s.opts.HistoryFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.opts.HistoryFile), 0o700); err != nil {
			logging.Warn("Shell", "Command history disabled: %v", err)
			s.opts.HistoryFile = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.opts.HistoryFile,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          s.opts.Out,

		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	s.rl = rl
	s.out.setWriter(rl.Stdout())
	s.readLine = func(prompt string) (string, error) {
		rl.SetPrompt(prompt)
		defer rl.SetPrompt(s.prompt())
		return rl.Readline()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	if logs := a.Logs(); logs != nil {
		s.wg.Add(1)
		go s.forwardLogs(logs)
	}
	defer func() {
		s.stopWatch()
		a.Close()
		s.wg.Wait()
	}()

	s.println("datapresso shell. Type 'help' for available commands. Use TAB for completion.")
	if len(initial) > 0 {
		if err := s.run(ctx, initial); err != nil {
			s.println(s.colorize(text.FgRed, cli.DescribeError(err)))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			s.println("Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				s.println("Goodbye!")
				return nil
			}
			s.println(s.colorize(text.FgRed, cli.DescribeError(err)))
		}
	}
}

// Execute parses and runs one input line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	words, err := splitLine(line)
	if err != nil {
		return err
	}
	return s.run(ctx, words)
}

func (s *Shell) run(ctx context.Context, words []string) error {
	if len(words) == 0 {
		return nil
	}

	name := strings.ToLower(words[0])
	if name == "?" {
		name = "help"
	}
	command, exists := s.registry.Get(name)
	if !exists {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", words[0])
	}
	return command.Execute(ctx, words[1:])
}

// prompt shows the active project and whether the tree has been saved.
func (s *Shell) prompt() string {
	if s.app == nil {
		return "datapresso> "
	}
	active, ok := s.app.Manager().Active()
	if !ok {
		return "datapresso> "
	}
	return fmt.Sprintf("datapresso [%s]> ", active.Name)
}

// startWatch reloads the config file of the active project on external
// changes until the project changes or the shell exits.
func (s *Shell) startWatch() {
	settings := s.app.Settings()
	if !settings.Watch {
		return
	}
	s.stopWatch()

	s.mu.Lock()
	ctx, cancel := context.WithCancel(s.runCtx)
	s.watchCancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.app.Manager().Watch(ctx, settings.WatchDebounce)
		if err != nil && !errors.Is(err, project.ErrNoActiveProject) {
			logging.Warn("Shell", "Not watching for external changes: %v", err)
		}
	}()
}

func (s *Shell) stopWatch() {
	s.mu.Lock()
	cancel := s.watchCancel
	s.watchCancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// forwardLogs prints log entries from the shell log channel until it closes.
// Project entries are skipped unless they are debug output, because the
// matching notification has already been printed.
func (s *Shell) forwardLogs(logs <-chan logging.LogEntry) {
	defer s.wg.Done()
	for entry := range logs {
		if entry.Subsystem == "Project" && entry.Level != logging.LevelDebug {
			continue
		}
		line := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(entry.Level.String()), entry.Subsystem, entry.Message)
		if entry.Err != nil {
			line += ": " + entry.Err.Error()
		}
		s.println(s.colorize(text.FgHiBlack, line))
	}
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Shell) colorize(c text.Color, str string) string {
	if s.opts.NoColor {
		return str
	}
	return c.Sprint(str)
}

// lockedWriter serializes writes from commands, notifications and log forwarding.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (l *lockedWriter) setWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w = w
}
