package cmd

import (
	"github.com/spf13/cobra"
)

var openName string

// newOpenCmd creates the command that opens a project directory and records
// it in the recent projects list.
func newOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <directory>",
		Short: "Open a project directory",
		Long: `Open a project directory: read its config.yaml, record it in the recent
projects list and print its contents.

A directory without config.yaml is opened as a new project. A config.yaml that
cannot be parsed is reported and the project is opened with defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: runOpen,
	}
	cmd.Flags().StringVar(&openName, "name", "", "Display name for the project")
	return cmd
}

func runOpen(cmd *cobra.Command, args []string) error {
	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := openProject(cmd.Context(), cmd, a, args[0], openName, false)
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), newPrinter(cmd), a, res)
}
