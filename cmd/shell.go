package cmd

import (
	"github.com/spf13/cobra"

	"datapresso/internal/app"
	"datapresso/internal/cli"
	"datapresso/internal/config"
	"datapresso/internal/shell"
)

// newShellCmd creates the command that starts the interactive shell.
func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [directory]",
		Short: "Start an interactive session",
		Long: `Start an interactive session that keeps a project open between commands.
Type 'help' in the shell for the available commands.

When a directory is given it is opened first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShell,
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	sh := shell.New(shell.Options{
		Out:     cmd.OutOrStdout(),
		Format:  cli.OutputFormat(rootOutput),
		NoColor: rootNoColor,
	})

	cfg := app.NewConfig(rootConfigDir, rootDebug, rootQuiet)
	cfg.Shell = true
	cfg.In = cmd.InOrStdin()
	cfg.Out = cmd.OutOrStdout()
	cfg.Err = cmd.ErrOrStderr()
	cfg.Prompter = sh.Prompter()
	cfg.Picker = sh.Picker()
	cfg.Notifier = sh
	if rootAssumeYes {
		cfg.Overrides[config.KeyAssumeYes] = true
	}

	a, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}
	sh.SetHistoryFile(a.Settings().HistoryFile)

	var initial []string
	if len(args) == 1 {
		initial = []string{"open", args[0]}
	}
	return sh.Run(cmd.Context(), a, initial...)
}
