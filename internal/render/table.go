// Package render prints datasets and run history as width-aware console tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"AlertTrack/internal/domain"
)

// DefaultTitleWidth caps the title column so rows fit a terminal.
const DefaultTitleWidth = 60

// Alerts writes one row per alert: position, date, title, document flag and status.
func Alerts(w io.Writer, dataset domain.EnrichedDataset, titleWidth int) error {
	if titleWidth <= 0 {
		titleWidth = DefaultTitleWidth
	}
	rows := [][]string{{"#", "DATE", "TITLE", "PDF", "STATUS"}}
	for i, a := range dataset {
		date := a.FormattedDate()
		if date == "" {
			date = "-"
		}
		pdf := "-"
		if a.DocumentURL != "" {
			pdf = "yes"
		}
		status := "ok"
		if a.Errors() != "" {
			status = "error"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			date,
			runewidth.Truncate(oneLine(a.Title), titleWidth, "…"),
			pdf,
			status,
		})
	}
	return writeTable(w, rows)
}

// Runs writes the snapshot history.
func Runs(w io.Writer, runs []domain.RunInfo) error {
	rows := [][]string{{"RUN", "STARTED", "DURATION", "RECORDS", "FAILURES"}}
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Failures),
		})
	}
	return writeTable(w, rows)
}

func writeTable(w io.Writer, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		sb.WriteString("\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
