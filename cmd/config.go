package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"datapresso/internal/cli"
	"datapresso/internal/codec"
)

var (
	configProjectDir string
	configExportFile string
	configForce      bool
)

// newConfigCmd creates the command group that reads and edits a project's configuration.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit a project's workflow configuration",
		Long: `Read and edit the workflow configuration of a project directory.

Values are addressed by dotted paths: workflowName, workflowDescription, a
section (seedConfig, generationConfig, filteringConfig, assessmentConfig,
trainingConfig) or a key inside one, e.g. trainingConfig.optimizer.lr.

Values given to 'set' are parsed as YAML, so 3 is a number, true a boolean and
'[a, b]' a list. Quote a value to keep it a string.`,
	}
	cmd.PersistentFlags().StringVarP(&configProjectDir, "dir", "d", ".", "Project directory")

	show := &cobra.Command{
		Use:   "show [section]",
		Short: "Print the configuration as it would be saved",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigShow,
	}
	get := &cobra.Command{
		Use:   "get <path>",
		Short: "Print one value",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigGet,
	}
	set := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Change one value and save the project",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runConfigSet,
	}
	set.Flags().BoolVar(&configForce, "force", false, "Replace a malformed config file")
	export := &cobra.Command{
		Use:   "export",
		Short: "Export the configuration as YAML or JSON",
		Long: `Export the configuration. YAML output (-o yaml or table) is exactly what
'save' writes; -o json converts it to JSON.`,
		Args: cobra.NoArgs,
		RunE: runConfigExport,
	}
	export.Flags().StringVar(&configExportFile, "file", "", "Write to this file instead of standard output")
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the configuration with a YAML file and save the project",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigImport,
	}

	cmd.AddCommand(show, get, set, export, importCmd)
	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := openProject(cmd.Context(), cmd, a, configProjectDir, "", false); err != nil {
		return err
	}
	cfg := a.Manager().Store().Get()
	p := newPrinter(cmd)
	if len(args) == 0 {
		return p.PrintConfig(cfg)
	}
	v, err := cfg.Lookup(args[0])
	if err != nil {
		return err
	}
	return p.PrintValue(v)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := openProject(cmd.Context(), cmd, a, configProjectDir, "", false); err != nil {
		return err
	}
	v, err := a.Manager().Store().Get().Lookup(args[0])
	if err != nil {
		return err
	}
	return newPrinter(cmd).PrintValue(v)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	value, err := codec.ParseValue(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := openProject(cmd.Context(), cmd, a, configProjectDir, "", !configForce); err != nil {
		return err
	}
	if err := a.Manager().Store().Set(args[0], value); err != nil {
		return err
	}
	return a.Manager().SaveConfig(cmd.Context())
}

func runConfigExport(cmd *cobra.Command, args []string) error {
	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := openProject(cmd.Context(), cmd, a, configProjectDir, "", false); err != nil {
		return err
	}

	var buf bytes.Buffer
	if cli.OutputFormat(rootOutput) == cli.OutputFormatJSON {
		err = cli.NewPrinter(&buf, cli.PrinterOptions{Format: cli.OutputFormatJSON}).PrintConfig(a.Manager().Store().Get())
	} else {
		err = a.Manager().Export(&buf)
	}
	if err != nil {
		return err
	}

	if configExportFile == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(configExportFile, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configExportFile, err)
	}
	return nil
}

func runConfigImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	a, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// The project's own file is replaced, so it need not parse.
	if _, err := openProject(cmd.Context(), cmd, a, configProjectDir, "", false); err != nil {
		return err
	}
	if err := a.Manager().Import(cmd.Context(), data); err != nil {
		var fe *codec.FormatError
		if errors.As(err, &fe) {
			fe.Source = args[0]
		}
		return err
	}
	return a.Manager().SaveConfig(cmd.Context())
}
