package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jakechorley/block-scheduler/pkg/db"
)

// GetProviders reads the provider table with its allocation fractions.
// Fractions are surfaced as pct_<group> extras, the same shape the sheet source produces.
func (d *DB) GetProviders(ctx context.Context) ([]db.ProviderRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT name, shift_type, fte, annual_weeks, annual_weekends,
		       prior_weeks, prior_weekends, weeks_remaining, weekends_remaining
		FROM provider
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer rows.Close()

	var providers []db.ProviderRow
	index := make(map[string]int)
	for rows.Next() {
		var p db.ProviderRow
		if err := rows.Scan(
			&p.Name, &p.ShiftType, &p.FTE, &p.AnnualWeeks, &p.AnnualWeekends,
			&p.PriorWeeks, &p.PriorWeekends, &p.WeeksRemaining, &p.WeekendsRemaining,
		); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		p.Row = len(providers) + 1
		p.Extra = make(map[string]string)
		index[p.Name] = len(providers)
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating providers: %w", err)
	}

	allocations, err := d.pool.Query(ctx, `
		SELECT provider_name, grp, fraction
		FROM provider_allocation
		ORDER BY provider_name, grp
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider allocations: %w", err)
	}
	defer allocations.Close()

	for allocations.Next() {
		var name, group string
		var fraction float64
		if err := allocations.Scan(&name, &group, &fraction); err != nil {
			return nil, fmt.Errorf("failed to scan provider allocation: %w", err)
		}
		i, ok := index[name]
		if !ok {
			continue
		}
		providers[i].Extra["pct_"+group] = strconv.FormatFloat(fraction, 'f', -1, 64)
	}
	if err := allocations.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider allocations: %w", err)
	}

	return providers, nil
}

// GetProviderTags reads tags ordered by provider, then position
func (d *DB) GetProviderTags(ctx context.Context) ([]db.TagRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT provider_name, position, tag, rule
		FROM provider_tag
		ORDER BY provider_name, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider tags: %w", err)
	}
	defer rows.Close()

	var tags []db.TagRow
	for rows.Next() {
		var t db.TagRow
		if err := rows.Scan(&t.Provider, &t.Position, &t.Tag, &t.Rule); err != nil {
			return nil, fmt.Errorf("failed to scan provider tag: %w", err)
		}
		t.Row = len(tags) + 1
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider tags: %w", err)
	}

	return tags, nil
}

// GetSiteDemand reads per-site, per-day-type demand
func (d *DB) GetSiteDemand(ctx context.Context) ([]db.SiteDemandRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT site, day_type, providers_needed
		FROM site_demand
		ORDER BY site, day_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query site demand: %w", err)
	}
	defer rows.Close()

	var demand []db.SiteDemandRow
	for rows.Next() {
		var s db.SiteDemandRow
		if err := rows.Scan(&s.Site, &s.DayType, &s.ProvidersNeeded); err != nil {
			return nil, fmt.Errorf("failed to scan site demand: %w", err)
		}
		s.Row = len(demand) + 1
		demand = append(demand, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site demand: %w", err)
	}

	return demand, nil
}

// GetUnavailableDates reads every recorded unavailable date
func (d *DB) GetUnavailableDates(ctx context.Context) ([]db.UnavailableDate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT provider_name, date
		FROM unavailable_date
		ORDER BY provider_name, date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unavailable dates: %w", err)
	}
	defer rows.Close()

	var dates []db.UnavailableDate
	for rows.Next() {
		var u db.UnavailableDate
		var date time.Time
		if err := rows.Scan(&u.Provider, &date); err != nil {
			return nil, fmt.Errorf("failed to scan unavailable date: %w", err)
		}
		u.Date = date.UTC()
		dates = append(dates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unavailable dates: %w", err)
	}

	return dates, nil
}
