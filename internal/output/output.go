// Package output renders object listings and definitions for the CLI in
// table, json, or yaml form.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"nagctl/internal/nagios"
)

// Format selects the output rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format string, defaulting empty to table.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", s)
	}
}

// Row is one object in a listing.
type Row struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
}

// RowFor summarizes a block for listing. The name is the block's natural-key
// value, or its template name for register-0 blocks.
func RowFor(b *nagios.Block) Row {
	name := ""
	if b.IsTemplate() {
		name, _ = b.Get(nagios.TemplateKeyAttr)
	} else {
		key := make(map[string]string)
		for _, attr := range nagios.KeyAttributes(b.Type) {
			if v, ok := b.Get(attr); ok {
				key[attr] = v
			}
		}
		name = nagios.Description(b.Type, key)
	}
	return Row{
		Type: string(b.Type),
		Name: name,
		File: b.File,
		Line: b.Start + 1,
	}
}

// RenderRows writes a listing in the requested format.
func RenderRows(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, rows)
	case FormatYAML:
		return renderYAML(w, rows)
	default:
		renderTable(w, rows)
		return nil
	}
}

func renderTable(w io.Writer, rows []Row) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "%s\n", text.FgYellow.Sprint("No objects found"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("TYPE"),
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("FILE"),
		text.FgHiCyan.Sprint("LINE"),
	})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Type, r.Name, r.File, r.Line})
	}
	t.Render()
}

func renderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderYAML(w io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// RenderBlock writes one object definition. Table format prints the raw
// definition text; json and yaml print the parsed attributes.
func RenderBlock(w io.Writer, format Format, b *nagios.Block, lines []string) error {
	switch format {
	case FormatJSON, FormatYAML:
		doc := map[string]interface{}{
			"type": string(b.Type),
			"file": b.File,
			"line": b.Start + 1,
		}
		attrs := make(map[string]string, len(b.Attrs))
		for _, a := range b.Attrs {
			attrs[a.Name] = a.Value
		}
		doc["attributes"] = attrs
		if format == FormatJSON {
			return renderJSON(w, doc)
		}
		return renderYAML(w, doc)
	default:
		for i := b.Start; i <= b.End && i < len(lines); i++ {
			fmt.Fprintln(w, lines[i])
		}
		return nil
	}
}
