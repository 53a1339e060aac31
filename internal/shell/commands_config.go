package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"datapresso/internal/codec"
	"datapresso/internal/workflow"
)

// configPaths offers the top-level keys and sections for completion.
func configPaths() []string {
	paths := []string{workflow.KeyWorkflowName, workflow.KeyWorkflowDescription}
	for _, s := range workflow.Sections {
		paths = append(paths, string(s))
	}
	return paths
}

// showCommand prints the configuration tree.
type showCommand struct{ *baseCommand }

func (c *showCommand) Execute(_ context.Context, args []string) error {
	cfg := c.manager().Store().Get()
	if len(args) == 0 {
		return c.sh.printer.PrintConfig(cfg)
	}
	v, err := cfg.Lookup(args[0])
	if err != nil {
		return err
	}
	return c.sh.printer.PrintValue(v)
}

func (c *showCommand) Usage() string { return "show [section]" }

func (c *showCommand) Description() string {
	return "Show the configuration as it would be saved"
}

func (c *showCommand) Completions(string) []string { return configPaths() }

// getCommand prints one value of the configuration.
type getCommand struct{ *baseCommand }

func (c *getCommand) Execute(_ context.Context, args []string) error {
	args, err := parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	v, err := c.manager().Store().Get().Lookup(args[0])
	if err != nil {
		return err
	}
	return c.sh.printer.PrintValue(v)
}

func (c *getCommand) Usage() string { return "get <path>" }

func (c *getCommand) Description() string {
	return "Print a value, e.g. get trainingConfig.epochs"
}

func (c *getCommand) Completions(string) []string { return configPaths() }

// setCommand changes one value of the configuration.
type setCommand struct{ *baseCommand }

func (c *setCommand) Execute(_ context.Context, args []string) error {
	args, err := parseArgs(args, 2, c.Usage())
	if err != nil {
		return err
	}
	value, err := codec.ParseValue(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if err := c.manager().Store().Set(args[0], value); err != nil {
		return err
	}
	if _, ok := c.manager().Active(); ok {
		c.sh.println(fmt.Sprintf("Set %s. Use 'save' to write it to the project.", args[0]))
	}
	return nil
}

func (c *setCommand) Usage() string { return "set <path> <value>" }

func (c *setCommand) Description() string {
	return "Change a value, e.g. set trainingConfig.epochs 3"
}

func (c *setCommand) Completions(string) []string { return configPaths() }

// exportCommand writes the encoded configuration to the terminal or a file.
type exportCommand struct{ *baseCommand }

func (c *exportCommand) Execute(_ context.Context, args []string) error {
	if len(args) == 0 {
		return c.manager().Export(c.sh.out)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", args[0], err)
	}
	if err := c.manager().Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	c.sh.println(fmt.Sprintf("Exported configuration to %s", args[0]))
	return nil
}

func (c *exportCommand) Usage() string { return "export [file]" }

func (c *exportCommand) Description() string {
	return "Write the configuration as YAML to the terminal or a file"
}

// importCommand replaces the configuration with the contents of a file.
type importCommand struct{ *baseCommand }

func (c *importCommand) Execute(ctx context.Context, args []string) error {
	args, err := parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if err := c.manager().Import(ctx, data); err != nil {
		var fe *codec.FormatError
		if errors.As(err, &fe) {
			fe.Source = args[0]
		}
		return err
	}
	c.sh.println(fmt.Sprintf("Imported %s", args[0]))
	return nil
}

func (c *importCommand) Usage() string { return "import <file>" }

func (c *importCommand) Description() string {
	return "Replace the configuration with a YAML file"
}
