package shell

import (
	"context"
	"fmt"
	"strings"

	"datapresso/internal/project"
)

// baseCommand provides the shell to every command.
type baseCommand struct {
	sh *Shell
}

func (b *baseCommand) manager() *project.Manager {
	return b.sh.app.Manager()
}

func (b *baseCommand) Completions(string) []string { return nil }

func (b *baseCommand) Aliases() []string { return nil }

// printLoadResult reports how a project was opened and lists its directory.
func (b *baseCommand) printLoadResult(res project.LoadResult) error {
	if res.FormatErr != nil {
		b.sh.println("The project is open with the default configuration. Save to overwrite the file.")
	}
	return b.sh.printer.PrintEntries(res.Entries)
}

// recentCompletions offers recent project names for completion.
func (b *baseCommand) recentCompletions() []string {
	records, err := b.sh.app.Registry().List()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
	}
	return names
}

// openCommand opens a project directory.
type openCommand struct{ *baseCommand }

func (c *openCommand) Execute(ctx context.Context, args []string) error {
	var name string
	if len(args) > 1 {
		name = strings.Join(args[1:], " ")
	}

	if len(args) == 0 {
		dir, err := c.manager().SelectDirectory(ctx, "")
		if err != nil {
			return err
		}
		if dir == nil {
			c.sh.println("Cancelled.")
			return nil
		}
		c.sh.startWatch()
		return c.listActive(ctx)
	}

	res, err := c.sh.app.OpenPath(ctx, args[0], name)
	if err != nil {
		return err
	}
	c.sh.startWatch()
	return c.printLoadResult(res)
}

func (c *openCommand) listActive(ctx context.Context) error {
	var entries []project.Entry
	for entry, err := range c.manager().ActiveEntries(ctx) {
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	return c.sh.printer.PrintEntries(entries)
}

func (c *openCommand) Usage() string { return "open [directory [name]]" }

func (c *openCommand) Description() string {
	return "Open a project directory, asking for one if none is given"
}

// recentCommand lists, opens and forgets recent projects.
type recentCommand struct{ *baseCommand }

func (c *recentCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		records, err := c.sh.app.Registry().List()
		if err != nil {
			return err
		}
		return c.sh.printer.PrintRecords(records)
	}

	args, err := parseArgs(args, 2, c.Usage())
	if err != nil {
		return err
	}
	rec, err := c.sh.app.FindRecent(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	switch args[0] {
	case "open":
		res, err := c.manager().OpenRecent(ctx, rec)
		if err != nil {
			return err
		}
		c.sh.startWatch()
		return c.printLoadResult(res)
	case "remove", "rm":
		if err := c.sh.app.Registry().Remove(rec.ID); err != nil {
			return err
		}
		c.sh.println(fmt.Sprintf("Removed %s from recent projects", rec.Name))
		return nil
	default:
		return fmt.Errorf("usage: %s", c.Usage())
	}
}

func (c *recentCommand) Usage() string { return "recent [list | open <name|id> | remove <name|id>]" }

func (c *recentCommand) Description() string { return "List, reopen or forget recent projects" }

func (c *recentCommand) Completions(string) []string {
	return append([]string{"list", "open", "remove"}, c.recentCompletions()...)
}

// saveCommand writes the configuration to the active project.
type saveCommand struct{ *baseCommand }

func (c *saveCommand) Execute(ctx context.Context, _ []string) error {
	return c.manager().SaveConfig(ctx)
}

func (c *saveCommand) Usage() string { return "save" }

func (c *saveCommand) Description() string {
	return "Write the configuration to the project's config file"
}

// closeCommand closes the active project.
type closeCommand struct{ *baseCommand }

func (c *closeCommand) Execute(context.Context, []string) error {
	c.sh.stopWatch()
	c.manager().Close()
	return nil
}

func (c *closeCommand) Usage() string { return "close" }

func (c *closeCommand) Description() string {
	return "Close the active project, keeping the configuration in memory"
}

// statusCommand shows the active project.
type statusCommand struct{ *baseCommand }

func (c *statusCommand) Execute(context.Context, []string) error {
	m := c.manager()
	active, ok := m.Active()
	if !ok {
		c.sh.println(fmt.Sprintf("State:   %s", m.State()))
		c.sh.println("Project: none")
		return nil
	}
	c.sh.println(fmt.Sprintf("State:   %s", m.State()))
	c.sh.println(fmt.Sprintf("Project: %s", active.Name))
	c.sh.println(fmt.Sprintf("Path:    %s", active.Directory.Path()))
	c.sh.println(fmt.Sprintf("File:    %s", m.FileName()))
	return nil
}

func (c *statusCommand) Usage() string { return "status" }

func (c *statusCommand) Description() string { return "Show the active project" }

func (c *statusCommand) Aliases() []string { return []string{"pwd"} }

// lsCommand lists the active project directory.
type lsCommand struct{ *baseCommand }

func (c *lsCommand) Execute(ctx context.Context, _ []string) error {
	var entries []project.Entry
	for entry, err := range c.manager().ActiveEntries(ctx) {
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	return c.sh.printer.PrintEntries(entries)
}

func (c *lsCommand) Usage() string { return "ls" }

func (c *lsCommand) Description() string { return "List the files of the active project" }

func (c *lsCommand) Aliases() []string { return []string{"dir"} }

// mkdirCommand creates a directory inside the active project.
type mkdirCommand struct{ *baseCommand }

func (c *mkdirCommand) Execute(ctx context.Context, args []string) error {
	args, err := parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	return c.manager().CreateDirectory(ctx, args[0])
}

func (c *mkdirCommand) Usage() string { return "mkdir <name>" }

func (c *mkdirCommand) Description() string {
	return "Create a directory in the active project"
}

// touchCommand creates a file inside the active project.
type touchCommand struct{ *baseCommand }

func (c *touchCommand) Execute(ctx context.Context, args []string) error {
	args, err := parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	var content []byte
	if len(args) > 1 {
		content = []byte(strings.Join(args[1:], " ") + "\n")
	}
	return c.manager().CreateFile(ctx, args[0], content)
}

func (c *touchCommand) Usage() string { return "touch <name> [content...]" }

func (c *touchCommand) Description() string {
	return "Write a file in the active project"
}

// nameCommand renames the active project.
type nameCommand struct{ *baseCommand }

func (c *nameCommand) Execute(_ context.Context, args []string) error {
	args, err := parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	return c.manager().SetProjectName(strings.Join(args, " "))
}

func (c *nameCommand) Usage() string { return "name <project name>" }

func (c *nameCommand) Description() string {
	return "Rename the active project (recorded the next time it is opened)"
}

// revokeCommand drops the access grant of the active project.
type revokeCommand struct{ *baseCommand }

func (c *revokeCommand) Execute(context.Context, []string) error {
	active, ok := c.manager().Active()
	if !ok {
		return project.ErrNoActiveProject
	}
	c.sh.stopWatch()
	c.sh.app.Broker().Revoke(active.Directory)
	c.sh.println(fmt.Sprintf("Access to %s revoked; it will be asked for again", active.Directory.Path()))
	return nil
}

func (c *revokeCommand) Usage() string { return "revoke" }

func (c *revokeCommand) Description() string {
	return "Forget the access grant for the active project directory"
}
