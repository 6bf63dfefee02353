package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

// Format selects how tables are rendered
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat validates an --output value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatMarkdown, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format '%s' (table, markdown, csv)", s)
	}
}

// Match is one endpoint whose template matched a path
type Match struct {
	Endpoint *mvc.Endpoint
	Values   mvc.RouteValues
}

// RenderEndpoints prints the route table in evaluation order
func RenderEndpoints(w io.Writer, format Format, endpoints []*mvc.Endpoint) {
	if len(endpoints) == 0 {
		fmt.Fprintln(w, color.YellowString("No routes registered"))
		return
	}

	t := newTable(w)
	t.AppendHeader(header("#", "KIND", "NAME", "TEMPLATE", "ACTION", "METHODS", "DEFAULTS", "CONSTRAINTS"))
	for i, ep := range endpoints {
		action, methods := "", "*"
		if ep.Action != nil {
			action = ep.Action.DisplayName()
		}
		if len(ep.HTTPMethods) > 0 {
			methods = strings.Join(ep.HTTPMethods, ",")
		}
		t.AppendRow(table.Row{
			i + 1,
			ep.Kind,
			ep.Name,
			ep.Template.String(),
			action,
			methods,
			formatValues(ep.Defaults),
			formatExprs(ep.ConstraintExprs),
		})
	}
	render(t, format)
}

// RenderMatches prints the endpoints a path matched with the values each extracted
func RenderMatches(w io.Writer, format Format, matches []Match) {
	t := newTable(w)
	t.AppendHeader(header("NAME", "TEMPLATE", "VALUES", "DATA TOKENS"))
	for _, m := range matches {
		name := m.Endpoint.Name
		if name == "" && m.Endpoint.Action != nil {
			name = m.Endpoint.Action.DisplayName()
		}
		t.AppendRow(table.Row{name, m.Endpoint.Template.String(), m.Values.Format(), formatValues(m.Endpoint.DataTokens)})
	}
	render(t, format)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func render(t table.Writer, format Format) {
	switch format {
	case FormatMarkdown:
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	default:
		t.Render()
	}
}

// header colours the column titles unless colour output is off
func header(titles ...string) table.Row {
	row := make(table.Row, len(titles))
	for i, title := range titles {
		if color.NoColor {
			row[i] = title
		} else {
			row[i] = text.FgHiCyan.Sprint(title)
		}
	}
	return row
}

func formatValues(values mvc.RouteValues) string {
	if len(values) == 0 {
		return ""
	}
	return values.Format()
}

func formatExprs(exprs map[string]string) string {
	if len(exprs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(exprs))
	for k := range exprs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + exprs[k]
	}
	return strings.Join(parts, ", ")
}
