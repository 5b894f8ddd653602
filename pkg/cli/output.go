// Package cli provides output formatting and terminal styling shared by the
// tranh command-line tool.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// ErrNoTable is returned for table output of a result that has no table
// form.
var ErrNoTable = errors.New("cli: result has no table form")

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatYAML  OutputFormat = "yaml"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	// FormatRaw writes strings, byte slices and io.WriterTo results as is.
	FormatRaw OutputFormat = "raw"
)

// Tabler is a result with a table form.
type Tabler interface {
	Table() Table
}

// OutputOptions configures output behavior
type OutputOptions struct {
	Format OutputFormat

	// File is the output file path (empty for stdout)
	File string

	// Indent is the indentation for JSON output
	Indent string

	// Writer is an optional custom writer (overrides File)
	Writer io.Writer
}

// Output writes the result to the configured destination. An unknown
// format fails before any file is created.
func Output(result any, opts OutputOptions) error {
	write, err := formatter(result, opts)
	if err != nil {
		return err
	}

	w := opts.Writer
	if w == nil && opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := write(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	if w == nil {
		w = os.Stdout
	}
	return write(w)
}

func formatter(result any, opts OutputOptions) (func(io.Writer) error, error) {
	switch opts.Format {
	case FormatJSON:
		return func(w io.Writer) error { return outputJSON(w, result, opts.Indent) }, nil
	case FormatYAML, "":
		return func(w io.Writer) error { return outputYAML(w, result) }, nil
	case FormatTable:
		t, ok := result.(Tabler)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNoTable, result)
		}
		return func(w io.Writer) error {
			_, err := fmt.Fprintln(w, t.Table().Render())
			return err
		}, nil
	case FormatRaw:
		return func(w io.Writer) error { return outputRaw(w, result) }, nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", opts.Format)
}

func outputJSON(w io.Writer, result any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func outputRaw(w io.Writer, result any) error {
	switch v := result.(type) {
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := io.WriteString(w, v)
		return err
	case io.WriterTo:
		_, err := v.WriteTo(w)
		return err
	default:
		return outputYAML(w, result)
	}
}
