package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRecentCmd creates the command group for the recent projects list.
func newRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List, reopen or forget recent projects",
		Long: `Projects are remembered when they are opened, most recent first.
A project is identified by its name, its id or a unique prefix of its id.`,
		Args: cobra.NoArgs,
		RunE: runRecentList,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recent projects",
		Args:  cobra.NoArgs,
		RunE:  runRecentList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "open <name|id>",
		Short: "Reopen a recent project",
		Long: `Reopen a recent project. Access to the directory is asked for again
unless --yes is given. A project whose directory has gone stays in the list;
remove it with 'datapresso recent remove'.`,
		Args: cobra.ExactArgs(1),
		RunE: runRecentOpen,
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "remove <name|id>",
		Aliases: []string{"rm"},
		Short:   "Forget a recent project",
		Long:    `Remove a project from the recent projects list. Its files are not touched.`,
		Args:    cobra.ExactArgs(1),
		RunE:    runRecentRemove,
	})
	return cmd
}

func runRecentList(cmd *cobra.Command, args []string) error {
	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.Registry().List()
	if err != nil {
		return err
	}
	return newPrinter(cmd).PrintRecords(records)
}

func runRecentOpen(cmd *cobra.Command, args []string) error {
	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.FindRecent(args[0])
	if err != nil {
		return err
	}
	res, err := a.Manager().OpenRecent(cmd.Context(), rec)
	if err != nil {
		return err
	}
	if res.FormatErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), res.FormatErr.DetailedError())
	}
	return printSummary(cmd.OutOrStdout(), newPrinter(cmd), a, res)
}

func runRecentRemove(cmd *cobra.Command, args []string) error {
	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.FindRecent(args[0])
	if err != nil {
		return err
	}
	if err := a.Registry().Remove(rec.ID); err != nil {
		return err
	}
	if !rootQuiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Removed %s from recent projects\n", rec.Name)
	}
	return nil
}
