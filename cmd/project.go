package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"datapresso/internal/app"
	"datapresso/internal/cli"
	"datapresso/internal/project"
)

// openProject opens the project in dir for a one-shot command. With
// requireValid, a config file that cannot be parsed is an error instead of a
// project opened with defaults, so the command does not overwrite it.
func openProject(ctx context.Context, cmd *cobra.Command, a *app.Application, dir, name string, requireValid bool) (project.LoadResult, error) {
	var res project.LoadResult
	err := cli.Progress(cmd.ErrOrStderr(), rootQuiet, "Opening project", func() error {
		var err error
		res, err = a.OpenPath(ctx, dir, name)
		return err
	})
	if err != nil {
		return res, err
	}
	if res.FormatErr != nil {
		if requireValid {
			return res, fmt.Errorf("refusing to overwrite %s: %w", a.Manager().FileName(), res.FormatErr)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), res.FormatErr.DetailedError())
	}
	return res, nil
}

// printSummary describes the opened project followed by its directory listing.
func printSummary(w io.Writer, p *cli.Printer, a *app.Application, res project.LoadResult) error {
	if p.Format() == cli.OutputFormatTable {
		active, _ := a.Manager().Active()
		state := "loaded"
		switch {
		case res.Fresh:
			state = "new project, no " + a.Manager().FileName() + " yet"
		case res.FormatErr != nil:
			state = "defaults, " + a.Manager().FileName() + " is malformed"
		}
		fmt.Fprintf(w, "%s %s\n", text.FgHiCyan.Sprint("Project:"), res.Name)
		fmt.Fprintf(w, "%s %s\n", text.FgHiCyan.Sprint("Path:   "), active.Directory.Path())
		fmt.Fprintf(w, "%s %s\n", text.FgHiCyan.Sprint("Config: "), state)
	}
	return p.PrintEntries(res.Entries)
}
