package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bookwise/bookwise-server/internal/domain"
	"github.com/bookwise/bookwise-server/internal/engine"
	"github.com/bookwise/bookwise-server/internal/service"
)

const (
	colorBorder = "#30363d"
	colorBlue   = "#58a6ff"
	colorGray   = "#8b949e"
	colorRed    = "#f85149"
	colorBright = "#f0f6fc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorBright))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray)).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorBlue)).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorRed))
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(colorBorder))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderRecommendations(w io.Writer, heading string, items []engine.Recommendation) {
	fmt.Fprintln(w, titleStyle.Render(heading))
	if len(items) == 0 {
		fmt.Fprintln(w, helpStyle.Render("no recommendations"))
		return
	}

	t := newTable("#", "Title", "Source", "Rating", "Genre", "Score")
	for i, item := range items {
		t.Row(
			strconv.Itoa(i+1),
			item.Record.Title,
			item.Record.Source.String(),
			item.Record.Rating.String(),
			item.Record.Genre,
			strconv.FormatFloat(item.Score, 'f', 3, 64),
		)
	}
	fmt.Fprintln(w, t)
}

func renderBooks(w io.Writer, page *service.BrowseResponse) {
	t := newTable("Title", "Source", "Rating", "Genre")
	for _, b := range page.Books {
		t.Row(b.Title, b.Source.String(), b.Rating.String(), b.Genre)
	}
	fmt.Fprintln(w, t)

	shown := fmt.Sprintf("%d-%d of %d", page.Offset+1, page.Offset+len(page.Books), page.Total)
	if len(page.Books) == 0 {
		shown = fmt.Sprintf("0 of %d", page.Total)
	}
	if page.HasMore {
		shown += fmt.Sprintf(", next page: --offset %d", page.Offset+page.Limit)
	}
	fmt.Fprintln(w, helpStyle.Render(shown))
}

func renderList(w io.Writer, heading string, items []string) {
	fmt.Fprintln(w, titleStyle.Render(heading))
	if len(items) == 0 {
		fmt.Fprintln(w, helpStyle.Render("none"))
		return
	}
	for _, item := range items {
		fmt.Fprintln(w, "  "+item)
	}
}

func renderStats(w io.Writer, stats *service.CatalogStats) {
	fmt.Fprintln(w, titleStyle.Render("Snapshot "+stats.SnapshotID))

	t := newTable("Metric", "Value")
	t.Row("Built", stats.BuiltAt.Format("2006-01-02 15:04:05"))
	t.Row("Books", strconv.Itoa(stats.Books))
	for _, src := range domain.Sources {
		t.Row("  "+src.String(), strconv.Itoa(stats.BySource[src]))
	}
	t.Row("Vocabulary", strconv.Itoa(stats.Vocabulary))
	t.Row("Genres", strconv.Itoa(stats.Genres))
	t.Row("Dropped rows", strconv.Itoa(stats.Rejected))
	fmt.Fprintln(w, t)

	sources := newTable("Origin", "Rows", "Loaded", "Dropped")
	for _, b := range stats.Load.Batches {
		origin := b.Origin
		if b.Missing {
			origin += " (missing)"
		}
		sources.Row(origin, strconv.Itoa(b.Rows), strconv.Itoa(b.Loaded), strconv.Itoa(b.Dropped))
	}
	fmt.Fprintln(w, sources)
}

func renderImport(w io.Writer, path string, imported, total map[domain.Source]int) {
	fmt.Fprintln(w, titleStyle.Render("Imported into "+path))

	t := newTable("Source", "Imported", "Stored")
	for _, src := range domain.Sources {
		t.Row(src.String(), strconv.Itoa(imported[src]), strconv.Itoa(total[src]))
	}
	fmt.Fprintln(w, t)
}
