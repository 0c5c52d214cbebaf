package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls how tables are rendered.
type Mode int

const (
	ASCII    Mode = iota // Box-drawn terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps a config or flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii", "text":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return ASCII, fmt.Errorf("unknown output format %q (want ascii or markdown)", s)
}

func (m Mode) String() string {
	if m == Markdown {
		return "markdown"
	}
	return "ascii"
}

// tableBuilder wraps a go-pretty writer for one table.
type tableBuilder struct {
	writer table.Writer
	mode   Mode
	title  string
}

func newTable(m Mode, title string) *tableBuilder {
	w := table.NewWriter()
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	w.SetStyle(style)
	if m == ASCII && title != "" {
		w.SetTitle(title)
	}
	return &tableBuilder{writer: w, mode: m, title: title}
}

func (b *tableBuilder) header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	b.writer.AppendHeader(row)
}

func (b *tableBuilder) row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	b.writer.AppendRow(row)
}

// alignRight right-aligns the given 1-based columns.
func (b *tableBuilder) alignRight(cols ...int) {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, n := range cols {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight}
	}
	b.writer.SetColumnConfigs(cfgs)
}

func (b *tableBuilder) String() string {
	if b.mode == Markdown {
		// Markdown tables have no title row.
		if b.title != "" {
			return "**" + b.title + "**\n\n" + b.writer.RenderMarkdown() + "\n"
		}
		return b.writer.RenderMarkdown() + "\n"
	}
	return b.writer.Render() + "\n"
}
