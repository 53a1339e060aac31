package shell

import (
	"context"
	"fmt"
	"strings"
)

// helpCommand shows available commands and usage information
type helpCommand struct {
	*baseCommand
	registry *Registry
}

func (h *helpCommand) Execute(_ context.Context, args []string) error {
	if len(args) == 0 {
		h.showGeneralHelp()
		return nil
	}

	name := strings.ToLower(args[0])
	command, exists := h.registry.Get(name)
	if !exists {
		h.sh.println(fmt.Sprintf("Unknown command: %s", name))
		h.sh.println("Use 'help' to see all available commands.")
		return nil
	}
	h.sh.println("Usage: " + command.Usage())
	h.sh.println("  " + command.Description())
	if aliases := command.Aliases(); len(aliases) > 0 {
		h.sh.println("  Aliases: " + strings.Join(aliases, ", "))
	}
	return nil
}

func (h *helpCommand) showGeneralHelp() {
	h.sh.println("Available commands:")
	for _, name := range h.registry.List() {
		command, _ := h.registry.Get(name)
		h.sh.println(fmt.Sprintf("  %-50s - %s", command.Usage(), command.Description()))
	}
	h.sh.println("")
	h.sh.println("Keyboard shortcuts:")
	h.sh.println("  TAB      - Auto-complete commands and arguments")
	h.sh.println("  Ctrl+R   - Search command history")
	h.sh.println("  Ctrl+D   - Exit the shell")
}

func (h *helpCommand) Usage() string { return "help [command]" }

func (h *helpCommand) Description() string { return "Show this help message" }

func (h *helpCommand) Completions(string) []string { return h.registry.List() }

func (h *helpCommand) Aliases() []string { return []string{"?"} }

// exitCommand ends the shell.
type exitCommand struct{ *baseCommand }

func (e *exitCommand) Execute(context.Context, []string) error { return errExit }

func (e *exitCommand) Usage() string { return "exit" }

func (e *exitCommand) Description() string { return "Exit the shell" }

func (e *exitCommand) Aliases() []string { return []string{"quit", "q"} }
