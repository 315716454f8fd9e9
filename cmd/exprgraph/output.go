package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/chazu/exprgraph/pkg/expr"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	colorError   = lipgloss.Color("#E74C3C")
	colorWarning = lipgloss.Color("#F4D03F")
	colorOK      = lipgloss.Color("#2CD7C7")
	colorMuted   = lipgloss.Color("#2C4A54")

	styleHeader  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	styleOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
)

func checkFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

// writeResult renders r in the requested format.
func writeResult(w io.Writer, format string, r EvalResult) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return writeText(w, r)
	}
	return checkFormat(format)
}

// writeText prints the trace as a table followed by errors and findings.
func writeText(w io.Writer, r EvalResult) error {
	if len(r.Nodes()) > 0 {
		rows := lo.Map(r.Nodes(), func(n expr.Node, _ int) []string {
			return []string{n.ID.String(), n.Kind.String(), n.Target.String(), n.String()}
		})
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(styleMuted).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return styleHeader
				}
				return styleCell
			}).
			Headers("ID", "KIND", "TARGET", "EXPRESSION").
			Rows(rows...)
		if _, err := fmt.Fprintln(w, t.Render()); err != nil {
			return err
		}
	}
	return writeFindings(w, r)
}

// writeFindings prints script errors, validation findings and a summary line.
func writeFindings(w io.Writer, r EvalResult) error {
	for _, e := range r.Errors {
		loc := ""
		if e.Line > 0 {
			loc = "line " + strconv.Itoa(e.Line) + ": "
		}
		if _, err := fmt.Fprintln(w, styleError.Render("✗ "+loc+e.Message)); err != nil {
			return err
		}
	}
	for _, f := range r.Findings {
		style, icon := styleWarning, "⚠"
		if f.Severity == expr.SeverityError.String() {
			style, icon = styleError, "✗"
		}
		line := fmt.Sprintf("%s [%s] %s: %s", icon, f.Severity, f.Node, f.Message)
		if _, err := fmt.Fprintln(w, style.Render(line)); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d nodes, %d errors, %d findings", len(r.Nodes()), len(r.Errors), len(r.Findings))
	if r.OK() {
		summary = styleOK.Render("✓ " + summary)
	} else {
		summary = styleError.Render("✗ " + summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}
