package cmd

import (
	"github.com/spf13/cobra"
)

var saveForce bool

// newSaveCmd creates the command that rewrites a project's config file.
func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <directory>",
		Short: "Write a project's config file in canonical form",
		Long: `Open a project directory and write its configuration back to config.yaml.

The file is rewritten with sorted keys and all five sections present. A new
project gets a config.yaml with the default configuration. A file that cannot be
parsed is left alone unless --force is given, in which case it is replaced by
the defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: runSave,
	}
	cmd.Flags().BoolVar(&saveForce, "force", false, "Replace a malformed config file with the defaults")
	return cmd
}

func runSave(cmd *cobra.Command, args []string) error {
	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := openProject(cmd.Context(), cmd, a, args[0], "", !saveForce); err != nil {
		return err
	}
	return a.Manager().SaveConfig(cmd.Context())
}
