package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lukemcguire/sitemapcheck/result"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	urlStyle         = lipgloss.NewStyle()
	statusOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// categoryOrder defines the display order for error categories (most to least actionable).
var categoryOrder = []result.ErrorCategory{
	result.Category4xx,
	result.Category5xx,
	result.Category3xx,
	result.Category2xx,
	result.CategoryTimeout,
	result.CategoryDNSFailure,
	result.CategoryConnectionRefused,
	result.CategoryRedirectLoop,
	result.CategoryUnknown,
}

// failingRow is one URL in a category table.
type failingRow struct {
	url    string
	status string
}

// RenderSummary produces a Lip Gloss styled report.
func RenderSummary(report *result.Report) string {
	if report == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	if report.Total == 0 {
		builder.WriteString(warnStyle.Render("No URLs found in the sitemap."))
		builder.WriteString("\n")
		writeDocumentFailures(&builder, report)
		builder.WriteString(dimStyle.Render(fmt.Sprintf(
			"Processed %d sitemap documents in %s",
			report.Sitemaps.Documents,
			report.Duration.Round(time.Millisecond),
		)))
		builder.WriteString("\n")
		return builder.String()
	}

	builder.WriteString(titleStyle.Render("HTTP status code distribution"))
	builder.WriteString("\n")
	builder.WriteString(distributionTable(report.Tally).Render())
	builder.WriteString("\n\n")

	if !report.HasFailures() {
		builder.WriteString(successStyle.Render("No errors found in the URLs."))
		builder.WriteString("\n")
		writeDocumentFailures(&builder, report)
		builder.WriteString(dimStyle.Render(fmt.Sprintf(
			"Checked %d URLs from %d sitemap documents in %s",
			report.Total,
			report.Sitemaps.Documents,
			report.Duration.Round(time.Millisecond),
		)))
		builder.WriteString("\n")
		return builder.String()
	}

	grouped := make(map[result.ErrorCategory][]failingRow)
	for _, rec := range report.Errors {
		cat := result.StatusCategory(rec.StatusCode)
		grouped[cat] = append(grouped[cat], failingRow{url: rec.URL, status: strconv.Itoa(rec.StatusCode)})
	}
	for _, f := range report.Unreachable {
		cat := f.ErrorCategory
		if cat == "" {
			cat = result.CategoryUnknown
		}
		grouped[cat] = append(grouped[cat], failingRow{url: f.URL, status: f.Error})
	}

	for _, cat := range categoryOrder {
		rows, exists := grouped[cat]
		if !exists || len(rows) == 0 {
			continue
		}

		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", result.FormatCategory(cat), len(rows))))
		builder.WriteString("\n")

		cells := make([][]string, 0, len(rows))
		for _, row := range rows {
			cells = append(cells, []string{row.url, row.status})
		}

		catTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("URL", "Status").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 {
					return statusErrorStyle
				}
				return urlStyle
			}).
			Rows(cells...)

		builder.WriteString(catTable.Render())
		builder.WriteString("\n\n")
	}

	writeDocumentFailures(&builder, report)

	failing := len(report.Errors) + len(report.Unreachable)
	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Found %d failing URLs out of %d checked (%s)",
		failing,
		report.Total,
		report.Duration.Round(time.Millisecond),
	)))
	builder.WriteString("\n")

	return builder.String()
}

func distributionTable(tally *result.Tally) *table.Table {
	var rows [][]string
	if tally != nil {
		for _, b := range tally.Buckets() {
			rows = append(rows, []string{strconv.Itoa(b.StatusCode), strconv.Itoa(b.Count)})
		}
		if n := tally.Unreachable(); n > 0 {
			rows = append(rows, []string{"unreachable", strconv.Itoa(n)})
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Status", "URLs").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 && row >= 0 && row < len(rows) && rows[row][0] == "200" {
				return statusOKStyle
			}
			if col == 0 {
				return statusErrorStyle
			}
			return urlStyle
		}).
		Rows(rows...)
}

func writeDocumentFailures(builder *strings.Builder, report *result.Report) {
	if len(report.Sitemaps.Failed) == 0 {
		return
	}

	builder.WriteString(categoryStyle.Render(fmt.Sprintf("## Unusable Sitemaps (%d)", len(report.Sitemaps.Failed))))
	builder.WriteString("\n")

	rows := make([][]string, 0, len(report.Sitemaps.Failed))
	for _, doc := range report.Sitemaps.Failed {
		rows = append(rows, []string{doc.URL, doc.Error})
	}
	docTable := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Sitemap", "Error").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return statusErrorStyle
			}
			return urlStyle
		}).
		Rows(rows...)

	builder.WriteString(docTable.Render())
	builder.WriteString("\n\n")
}
