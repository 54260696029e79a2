package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// renderCheckLine formats one pass/fail line for preflight and status output.
func renderCheckLine(label string, passed bool, detail string, colorize bool) string {
	state := "FAIL"
	color := ansiRed
	if passed {
		state = "OK"
		color = ansiGreen
	}
	line := fmt.Sprintf("  %-20s [%s] %s", label+":", state, detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

// renderStateLine formats a labeled value with an optional highlight color.
func renderStateLine(label, value, color string, colorize bool) string {
	line := fmt.Sprintf("  %-20s %s", label+":", value)
	if colorize && color != "" {
		return color + line + ansiReset
	}
	return line
}

// renderDetectionTable renders detections as a rounded table. Numeric
// columns are right-aligned.
func renderDetectionTable(headers []string, rows [][]string, rightAligned ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, column := range rightAligned {
		configs = append(configs, table.ColumnConfig{
			Number:      column,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
