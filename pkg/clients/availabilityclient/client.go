package availabilityclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Day statuses found in availability documents
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
	StatusBlank       = "blank"
)

const dateLayout = "2006-01-02"

// Day is one calendar day of a document
type Day struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// Document is one provider's availability, usually for one month
type Document struct {
	Name  string `json:"name"`
	Month int    `json:"month,omitempty"`
	Year  int    `json:"year,omitempty"`
	Days  []Day  `json:"days"`
}

// Availability is the unavailable dates of one name, merged across documents
type Availability struct {
	Name        string
	Unavailable []time.Time
}

// Result is everything read from the directory.
// Skipped lists files that could not be parsed or carried no name.
type Result struct {
	Providers []Availability
	Skipped   []string
}

// Client reads *.json availability documents from a directory
type Client struct {
	dir string
}

// NewClient reads documents from dir
func NewClient(dir string) *Client {
	return &Client{dir: dir}
}

// Load reads every document. Documents sharing a name are merged; only
// unavailable days are kept. A missing directory returns an error wrapping
// fs.ErrNotExist so callers can treat it as "no availability on record".
func (c *Client) Load(ctx context.Context) (*Result, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read availability directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	byName := make(map[string]map[string]time.Time)
	var order []string
	result := &Result{}

	for _, fileName := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := readDocument(filepath.Join(c.dir, fileName))
		if err != nil {
			result.Skipped = append(result.Skipped, fileName)
			continue
		}
		name := strings.TrimSpace(doc.Name)
		if name == "" {
			result.Skipped = append(result.Skipped, fileName)
			continue
		}

		dates, ok := byName[name]
		if !ok {
			dates = make(map[string]time.Time)
			byName[name] = dates
			order = append(order, name)
		}
		for _, day := range doc.Days {
			if day.Status != StatusUnavailable {
				continue
			}
			date, err := time.Parse(dateLayout, day.Date)
			if err != nil {
				continue
			}
			dates[day.Date] = date
		}
	}

	sort.Strings(order)
	for _, name := range order {
		keys := make([]string, 0, len(byName[name]))
		for key := range byName[name] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		availability := Availability{Name: name, Unavailable: make([]time.Time, 0, len(keys))}
		for _, key := range keys {
			availability.Unavailable = append(availability.Unavailable, byName[name][key])
		}
		result.Providers = append(result.Providers, availability)
	}

	return result, nil
}

func readDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
