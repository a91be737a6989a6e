package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
	FormatYAML     OutputFormat = "yaml"
	FormatTable    OutputFormat = "table"
)

type OutputOptions struct {
	Format OutputFormat
	Quiet  bool
	Writer io.Writer
}

func NewOutputOptions() *OutputOptions {
	return &OutputOptions{
		Format: FormatMarkdown,
		Writer: os.Stdout,
	}
}

// PrintStructured renders v as JSON or YAML depending on the selected
// format. Formats without a structured meaning (markdown, table) fall
// back to JSON so scripting callers always get machine-readable output.
func (o *OutputOptions) PrintStructured(v any) error {
	switch o.Format {
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		_, err = o.Writer.Write(data)
		return err
	default:
		enc := json.NewEncoder(o.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// PrintTable writes an aligned table with a header row.
func (o *OutputOptions) PrintTable(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(o.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

// Infof prints a progress message unless quiet mode is on.
func (o *OutputOptions) Infof(format string, args ...any) {
	if o.Quiet {
		return
	}
	fmt.Fprintf(o.Writer, format+"\n", args...)
}
