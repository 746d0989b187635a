package sheetssql

import (
	"context"
	"fmt"
	"strings"
)

// ValuesClient reads the cells of one tab. Both the Google Sheets client and
// the CSV client satisfy it.
type ValuesClient interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// DB reads header-mapped tables out of one spreadsheet
type DB struct {
	client        ValuesClient
	spreadsheetID string
}

// NewDB wraps a values client for the given spreadsheet
func NewDB(client ValuesClient, spreadsheetID string) *DB {
	return &DB{
		client:        client,
		spreadsheetID: spreadsheetID,
	}
}

// Client returns the underlying values client
func (db *DB) Client() ValuesClient {
	return db.client
}

// SpreadsheetID returns the spreadsheet tables are read from
func (db *DB) SpreadsheetID() string {
	return db.spreadsheetID
}

// Table is one tab split into a header row and data rows.
// Headers are trimmed and lowercased; cells are trimmed strings.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// ReadTable fetches a tab. Rows whose cells are all blank are dropped.
// The second result holds the 1-based sheet row of each kept data row.
func (db *DB) ReadTable(ctx context.Context, name string) (*Table, []int, error) {
	values, err := db.client.GetValues(ctx, db.spreadsheetID, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get table %s: %w", name, err)
	}
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("table %s has no header row", name)
	}

	table := &Table{Name: name}
	for _, cell := range values[0] {
		table.Headers = append(table.Headers, normalizeHeader(cellString(cell)))
	}

	var rowNumbers []int
	for i, raw := range values[1:] {
		row := make([]string, len(table.Headers))
		blank := true
		for j := range row {
			if j < len(raw) {
				row[j] = strings.TrimSpace(cellString(raw[j]))
			}
			if row[j] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, row)
		rowNumbers = append(rowNumbers, i+2)
	}

	return table, rowNumbers, nil
}

// ColumnIndex returns the position of a header, or -1
func (t *Table) ColumnIndex(header string) int {
	header = normalizeHeader(header)
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
