package csvclient

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Client serves tabs exported as <dir>/<tab>.csv through the same GetValues
// contract as the sheets client
type Client struct {
	dir string
}

// NewClient reads tabs from dir
func NewClient(dir string) *Client {
	return &Client{dir: dir}
}

// GetValues reads <dir>/<sheetRange>.csv. The spreadsheet ID is ignored.
func (c *Client) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(c.dir, sheetRange+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	values := make([][]interface{}, len(records))
	for i, record := range records {
		row := make([]interface{}, len(record))
		for j, cell := range record {
			row[j] = cell
		}
		values[i] = row
	}

	return values, nil
}
