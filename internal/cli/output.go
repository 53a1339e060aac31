package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"datapresso/internal/codec"
	"datapresso/internal/project"
	"datapresso/internal/recent"
	"datapresso/internal/workflow"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a rounded table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// PrinterOptions controls how a Printer renders results.
type PrinterOptions struct {
	// Format specifies the desired output format (table, json, yaml)
	Format OutputFormat
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// NoColor disables ANSI colors in table output
	NoColor bool
}

// Printer renders command results to a writer in the selected format.
type Printer struct {
	out     io.Writer
	options PrinterOptions
}

// NewPrinter creates a Printer. An empty format means table.
func NewPrinter(out io.Writer, options PrinterOptions) *Printer {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	return &Printer{out: out, options: options}
}

// Format returns the output format in use.
func (p *Printer) Format() OutputFormat {
	return p.options.Format
}

// recordView is the serialized shape of a recent project.
type recordView struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Path       string    `json:"path" yaml:"path"`
	LastOpened time.Time `json:"lastOpened" yaml:"lastOpened"`
}

// entryView is the serialized shape of a directory entry.
type entryView struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// PrintRecords prints the recent projects list, most recent first.
func (p *Printer) PrintRecords(records []recent.Record) error {
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{
			ID:         rec.ID,
			Name:       rec.Name,
			Path:       rec.Directory.Path(),
			LastOpened: rec.LastOpened,
		})
	}

	if p.options.Format != OutputFormatTable {
		return p.encode(views)
	}
	if len(views) == 0 {
		p.printEmpty("No recent projects")
		return nil
	}

	t := p.newTable("NAME", "PATH", "LAST OPENED", "ID")
	for _, v := range views {
		t.AppendRow(table.Row{
			p.colorize(text.FgHiWhite, v.Name),
			v.Path,
			formatTimestamp(v.LastOpened),
			v.ID,
		})
	}
	t.Render()
	return nil
}

// PrintEntries prints the immediate children of a project directory.
func (p *Printer) PrintEntries(entries []project.Entry) error {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{Name: e.Name, Type: e.Kind.String()})
	}

	if p.options.Format != OutputFormatTable {
		return p.encode(views)
	}
	if len(views) == 0 {
		p.printEmpty("Directory is empty")
		return nil
	}

	t := p.newTable("NAME", "TYPE")
	for _, v := range views {
		name := v.Name
		if v.Type == project.KindDirectory.String() {
			name = p.colorize(text.FgHiBlue, name+"/")
		}
		t.AppendRow(table.Row{name, v.Type})
	}
	t.Render()
	return nil
}

// PrintConfig prints a configuration document. Table and YAML output use the
// canonical file encoding so that what is shown is what would be saved.
func (p *Printer) PrintConfig(cfg workflow.Config) error {
	data, err := codec.Encode(cfg)
	if err != nil {
		return err
	}
	if p.options.Format == OutputFormatJSON {
		if data, err = codec.ToJSON(data); err != nil {
			return err
		}
		data = append(data, '\n')
	}
	_, err = p.out.Write(data)
	return err
}

// PrintValue prints a single configuration value.
func (p *Printer) PrintValue(v any) error {
	if p.options.Format == OutputFormatJSON {
		return p.encode(v)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to format value: %w", err)
	}
	_, err = p.out.Write(data)
	return err
}

func (p *Printer) encode(v any) error {
	switch p.options.Format {
	case OutputFormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %q", p.options.Format)
	}
}

// newTable creates a new table with standard styling
func (p *Printer) newTable(headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	if !p.options.NoHeaders {
		row := make(table.Row, 0, len(headers))
		for _, h := range headers {
			row = append(row, p.colorize(text.FgHiCyan, h))
		}
		t.AppendHeader(row)
	}
	return t
}

func (p *Printer) printEmpty(message string) {
	fmt.Fprintln(p.out, p.colorize(text.FgYellow, message))
}

func (p *Printer) colorize(c text.Color, s string) string {
	if p.options.NoColor {
		return s
	}
	return c.Sprint(s)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
