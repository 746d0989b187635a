package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/jakechorley/block-scheduler/pkg/sheetssql"
)

// Tabs names the tabs holding each input table
type Tabs struct {
	Providers string
	Tags      string
	Sites     string
}

// DB reads input tables through SheetsSQL, from Google Sheets or CSV exports
type DB struct {
	ssql *sheetssql.DB
	tabs Tabs
}

// NewDB creates a sheet-backed input source
func NewDB(ssql *sheetssql.DB, tabs Tabs) *DB {
	return &DB{
		ssql: ssql,
		tabs: tabs,
	}
}

// GetProviders reads the provider table, skipping rows with a blank name
func (db *DB) GetProviders(ctx context.Context) ([]ProviderRow, error) {
	rows, err := sheetssql.GetTableAs[ProviderRow](ctx, db.ssql, db.tabs.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to get providers: %w", err)
	}

	providers := make([]ProviderRow, 0, len(rows))
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		providers = append(providers, row)
	}
	return providers, nil
}

// GetProviderTags reads the tag table. Rows keep sheet order per provider
// unless an explicit position column is filled in.
func (db *DB) GetProviderTags(ctx context.Context) ([]TagRow, error) {
	rows, err := sheetssql.GetTableAs[TagRow](ctx, db.ssql, db.tabs.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider tags: %w", err)
	}

	tagRows := make([]TagRow, 0, len(rows))
	for _, row := range rows {
		if row.Provider == "" || row.Tag == "" {
			continue
		}
		tagRows = append(tagRows, row)
	}
	sortTags(tagRows)

	return tagRows, nil
}

// GetSiteDemand reads the site demand table, skipping rows with a blank site
func (db *DB) GetSiteDemand(ctx context.Context) ([]SiteDemandRow, error) {
	rows, err := sheetssql.GetTableAs[SiteDemandRow](ctx, db.ssql, db.tabs.Sites)
	if err != nil {
		return nil, fmt.Errorf("failed to get site demand: %w", err)
	}

	demand := make([]SiteDemandRow, 0, len(rows))
	for _, row := range rows {
		if row.Site == "" {
			continue
		}
		demand = append(demand, row)
	}
	return demand, nil
}

// sortTags orders tags by position within a provider, falling back to row order.
// Providers keep the order they first appear in.
func sortTags(rows []TagRow) {
	first := make(map[string]int)
	for i, row := range rows {
		if _, ok := first[row.Provider]; !ok {
			first[row.Provider] = i
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Provider != b.Provider {
			return first[a.Provider] < first[b.Provider]
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.Row < b.Row
	})
}
