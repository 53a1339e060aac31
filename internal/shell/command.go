package shell

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/shlex"
)

// errExit is returned by the exit command to end the loop.
var errExit = errors.New("exit")

// Command is a shell command.
type Command interface {
	// Execute runs the command with the given arguments
	Execute(ctx context.Context, args []string) error

	// Usage returns the usage string for the command
	Usage() string

	// Description returns a brief description of what the command does
	Description() string

	// Completions returns possible completions for the first argument
	Completions(input string) []string

	// Aliases returns alternative names for this command
	Aliases() []string
}

// Registry manages available commands for the shell.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string // alias -> primary command name
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command to the registry.
func (r *Registry) Register(name string, cmd Command) {
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases() {
		r.aliases[alias] = name
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	if cmd, exists := r.commands[name]; exists {
		return cmd, true
	}
	if primary, exists := r.aliases[name]; exists {
		cmd, exists := r.commands[primary]
		return cmd, exists
	}
	return nil, false
}

// List returns all registered command names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// parseArgs checks that args has at least minArgs elements.
func parseArgs(args []string, minArgs int, usage string) ([]string, error) {
	if len(args) < minArgs {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	return args, nil
}

// splitLine splits an input line into words, honouring shell quoting so that
// names with spaces can be given as "My project".
func splitLine(line string) ([]string, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	return words, nil
}
