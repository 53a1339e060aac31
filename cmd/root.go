package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"datapresso/internal/app"
	"datapresso/internal/cli"
	"datapresso/internal/config"
)

var (
	rootConfigDir string
	rootDebug     bool
	rootQuiet     bool
	rootAssumeYes bool
	rootOutput    string
	rootNoColor   bool
)

// rootCmd represents the base command for the datapresso application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "datapresso",
	Short: "Manage datapresso workflow projects",
	Long: `datapresso keeps the configuration of a data workflow (seed, generation,
filtering, assessment and training settings) in a config.yaml file inside a
project directory, and remembers recently opened projects.

Open a project and edit it from the command line, or start an interactive
session with 'datapresso shell'.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	// Errors are printed by Execute with hints.
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootNoColor {
			text.DisableColors()
		}
		return cli.ValidateOutputFormat(rootOutput)
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It executes the root command and exits with a code describing the failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "datapresso version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if code := getExitCode(err); code != cli.ExitOK {
		fmt.Fprintln(rootCmd.ErrOrStderr(), cli.DescribeError(err))
		os.Exit(code)
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	return cli.ExitCodeFor(err)
}

// newApplication builds the Application for a one-shot command from the
// persistent flags.
func newApplication(cmd *cobra.Command) (*app.Application, error) {
	cfg := app.NewConfig(rootConfigDir, rootDebug, rootQuiet)
	cfg.In = cmd.InOrStdin()
	cfg.Out = cmd.OutOrStdout()
	cfg.Err = cmd.ErrOrStderr()
	if rootAssumeYes {
		cfg.Overrides[config.KeyAssumeYes] = true
	}
	return app.NewApplication(cfg)
}

// newPrinter returns a Printer for the command's output stream.
func newPrinter(cmd *cobra.Command) *cli.Printer {
	return cli.NewPrinter(cmd.OutOrStdout(), cli.PrinterOptions{
		Format:  cli.OutputFormat(rootOutput),
		NoColor: rootNoColor,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigDir, "config-dir", "", "Settings directory (default is $HOME/.config/datapresso)")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&rootQuiet, "quiet", "q", false, "Suppress progress indicators and informational messages")
	rootCmd.PersistentFlags().BoolVarP(&rootAssumeYes, "yes", "y", false, "Grant access to remembered project directories without asking")
	rootCmd.PersistentFlags().StringVarP(&rootOutput, "output", "o", string(cli.OutputFormatTable), "Output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newSaveCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newRecentCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newShellCmd())
}
