package db

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jakechorley/block-scheduler/pkg/core/tags"
)

// ProviderRow is one row of the provider table.
// Columns not bound to a field are kept in Extra; allocation fractions live there.
type ProviderRow struct {
	Row               int               `ssql_header:"#"`
	Name              string            `ssql_header:"provider_name" ssql_required:"true"`
	ShiftType         string            `ssql_header:"shift_type" ssql_required:"true"`
	FTE               float64           `ssql_header:"fte" ssql_required:"true"`
	AnnualWeeks       float64           `ssql_header:"annual_weeks" ssql_required:"true"`
	AnnualWeekends    float64           `ssql_header:"annual_weekends" ssql_required:"true"`
	PriorWeeks        *float64          `ssql_header:"prior_weeks"`
	PriorWeekends     *float64          `ssql_header:"prior_weekends"`
	WeeksRemaining    *float64          `ssql_header:"weeks_remaining"`
	WeekendsRemaining *float64          `ssql_header:"weekends_remaining"`
	Extra             map[string]string `ssql_header:"*"`
}

// TagRow is one row of the provider tag table
type TagRow struct {
	Row      int    `ssql_header:"#"`
	Provider string `ssql_header:"provider_name" ssql_required:"true"`
	Position int    `ssql_header:"position"`
	Tag      string `ssql_header:"tag" ssql_required:"true"`
	Rule     string `ssql_header:"rule"`
}

// SiteDemandRow is one row of the site demand table
type SiteDemandRow struct {
	Row             int    `ssql_header:"#"`
	Site            string `ssql_header:"site" ssql_required:"true"`
	DayType         string `ssql_header:"day_type" ssql_required:"true"`
	ProvidersNeeded int    `ssql_header:"providers_needed" ssql_required:"true"`
}

// UnavailableDate is one date a provider cannot work
type UnavailableDate struct {
	Provider string
	Date     time.Time
}

// Prior returns the weeks and weekends already worked this year.
// Explicit prior columns win; otherwise annual minus remaining is used when
// the remaining columns are present.
func (r ProviderRow) Prior() (weeks, weekends float64) {
	weeks = priorFrom(r.PriorWeeks, r.AnnualWeeks, r.WeeksRemaining)
	weekends = priorFrom(r.PriorWeekends, r.AnnualWeekends, r.WeekendsRemaining)
	return weeks, weekends
}

func priorFrom(prior *float64, annual float64, remaining *float64) float64 {
	if prior != nil {
		return *prior
	}
	if remaining != nil {
		return max(annual-*remaining, 0)
	}
	return 0
}

// Allocation reads the fraction columns for the given groups. A column named
// either pct_<group> or <group> counts. Unparseable values are returned as
// problems and left out.
func (r ProviderRow) Allocation(groups []string) (map[string]float64, []string) {
	allocation := make(map[string]float64)
	var problems []string

	sorted := append([]string(nil), groups...)
	sort.Strings(sorted)

	for _, group := range sorted {
		key := strings.ToLower(group)
		raw, ok := r.Extra["pct_"+key]
		if !ok {
			raw, ok = r.Extra[key]
		}
		if !ok {
			continue
		}

		value, ok := tags.ParsePctValue(raw)
		if !ok {
			problems = append(problems, fmt.Sprintf("row %d: unparseable fraction %q for group %s", r.Row, raw, group))
			continue
		}
		if value > 0 {
			allocation[group] = value
		}
	}

	return allocation, problems
}
