// Package csvload reads player-season exports into a preprocess.Table.
package csvload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/albapepper/scoracle-rankings/internal/preprocess"
)

// Read parses CSV from r. The first record is the header.
func Read(r io.Reader) (preprocess.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return preprocess.Table{}, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return preprocess.Table{}, fmt.Errorf("csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	table := preprocess.Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return preprocess.Table{}, fmt.Errorf("csv row %d: %w", len(table.Rows)+1, err)
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, nil
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) (preprocess.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return preprocess.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return preprocess.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Concat stacks tables that may order their columns differently, as happens
// when a legacy export is combined with a current one. Columns are matched
// after normalization; cells a table lacks are left empty.
func Concat(tables ...preprocess.Table) preprocess.Table {
	var out preprocess.Table
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			n := preprocess.NormalizeColumn(c)
			if _, ok := pos[n]; !ok {
				pos[n] = len(out.Columns)
				out.Columns = append(out.Columns, n)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			merged := make([]string, len(out.Columns))
			for j, c := range t.Columns {
				if j < len(row) {
					merged[pos[preprocess.NormalizeColumn(c)]] = row[j]
				}
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
