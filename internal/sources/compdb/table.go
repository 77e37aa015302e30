package compdb

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/comp-collector/internal/types"
)

// ParseTable reads header and body cells from a rendered data grid.
func ParseTable(html string) ([]string, [][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse data grid: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil, errors.New("no table in data grid")
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, cellText(th))
	})

	var rows [][]string
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, cellText(td))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return headers, rows, nil
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// ErrNoTable is returned when exporting a payload without table data.
var ErrNoTable = errors.New("no table data found to save")

// WriteCSV writes the table headers and rows as CSV.
func WriteCSV(w io.Writer, t types.CompTable) error {
	if len(t.Headers) == 0 || len(t.Rows) == 0 {
		return ErrNoTable
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// CSVFilename is the default export name for a table.
func CSVFilename(t types.CompTable, unix int64) string {
	slug := func(s, def string) string {
		if s == "" {
			s = def
		}
		return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
	}
	return fmt.Sprintf("salary_data_%s_%s_%d.csv", slug(t.JobTitle, "job"), slug(t.City, "city"), unix)
}
