package cmd

import (
	"github.com/spf13/cobra"

	"datapresso/internal/project"
)

// newLsCmd creates the command that lists a project directory without opening it.
func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [directory]",
		Short: "List the files of a project directory",
		Long: `List the immediate children of a project directory. The directory is not
opened as a project and is not added to the recent projects list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLs,
	}
}

func runLs(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	dir, err := a.Broker().Select(path)
	if err != nil {
		return err
	}

	var entries []project.Entry
	for entry, err := range a.Manager().Entries(cmd.Context(), dir) {
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	return newPrinter(cmd).PrintEntries(entries)
}
