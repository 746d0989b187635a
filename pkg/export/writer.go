package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jakechorley/block-scheduler/pkg/core/allocator"
	"github.com/jakechorley/block-scheduler/pkg/core/services"
)

// ComparisonFileName is the cross-seed summary written by WriteComparison
const ComparisonFileName = "seed_comparison.csv"

// runRecord is the run_seed<N>.json document
type runRecord struct {
	RunID            string                      `json:"runId"`
	Seed             uint64                      `json:"seed"`
	Success          bool                        `json:"success"`
	Stats            allocator.Stats             `json:"stats"`
	Warnings         []allocator.Warning         `json:"warnings"`
	Excluded         map[string][]string         `json:"excluded"`
	ValidationErrors []allocator.ValidationError `json:"validationErrors"`
}

// WriteVariation writes the reports of one seeded run into dir and returns
// the paths written, in a fixed order.
// The schedule file holds the draft schedule only, so two runs with the
// same inputs and seed produce identical bytes.
func WriteVariation(dir string, result services.VariationResult) ([]string, error) {
	if result.Outcome == nil {
		return nil, fmt.Errorf("variation for seed %d has no outcome", result.Seed)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	outcome := result.Outcome
	exporter := NewCSVExporter()
	suffix := fmt.Sprintf("_seed%d", result.Seed)

	record := runRecord{
		RunID:            result.RunID,
		Seed:             result.Seed,
		Success:          outcome.Success,
		Stats:            outcome.Stats,
		Warnings:         nonNil(result.Warnings),
		Excluded:         outcome.Excluded,
		ValidationErrors: nonNil(outcome.ValidationErrors),
	}
	if record.Excluded == nil {
		record.Excluded = map[string][]string{}
	}

	files := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{"schedule" + suffix + ".json", func() ([]byte, error) { return marshalJSON(nonNil(outcome.Schedule)) }},
		{"gap_report" + suffix + ".json", func() ([]byte, error) { return marshalJSON(nonNil(outcome.Gaps)) }},
		{"provider_summary" + suffix + ".csv", func() ([]byte, error) { return exporter.Render(ProviderSummaryDataset(outcome.Providers)) }},
		{"site_coverage" + suffix + ".csv", func() ([]byte, error) { return exporter.Render(SiteCoverageDataset(outcome.SiteCoverage)) }},
		{"run" + suffix + ".json", func() ([]byte, error) { return marshalJSON(record) }},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		data, err := f.render()
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", f.name, err)
		}
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// WriteComparison writes one row per variation to seed_comparison.csv
func WriteComparison(dir string, results []services.VariationResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := NewCSVExporter().Render(ComparisonDataset(results))
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", ComparisonFileName, err)
	}

	path := filepath.Join(dir, ComparisonFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", ComparisonFileName, err)
	}
	return path, nil
}

// ProviderSummaryDataset flattens provider summaries, one row per provider
func ProviderSummaryDataset(providers []allocator.ProviderSummary) Dataset {
	data := Dataset{Headers: []string{
		"provider_name", "shift_type", "fte",
		"annual_weeks", "annual_weekends",
		"prior_weeks", "prior_weekends",
		"remaining_weeks", "remaining_weekends",
		"fair_share_weeks", "fair_share_weekends",
		"weeks_assigned", "weekends_assigned",
		"weeks_gap", "weekends_gap",
		"site_distribution", "eligible_sites",
		"max_consecutive_days", "markers",
	}}

	for _, p := range providers {
		data.Rows = append(data.Rows, map[string]string{
			"provider_name":        p.Name,
			"shift_type":           p.ShiftCategory,
			"fte":                  formatFloat(p.FTE),
			"annual_weeks":         formatFloat(p.AnnualWeeks),
			"annual_weekends":      formatFloat(p.AnnualWeekends),
			"prior_weeks":          formatFloat(p.PriorWeeks),
			"prior_weekends":       formatFloat(p.PriorWeekends),
			"remaining_weeks":      formatFloat(p.RemainingWeeks),
			"remaining_weekends":   formatFloat(p.RemainingWeekends),
			"fair_share_weeks":     strconv.Itoa(p.FairShareWeeks),
			"fair_share_weekends":  strconv.Itoa(p.FairShareWeekends),
			"weeks_assigned":       strconv.Itoa(p.WeeksAssigned),
			"weekends_assigned":    strconv.Itoa(p.WeekendsAssigned),
			"weeks_gap":            strconv.Itoa(p.WeeksGap),
			"weekends_gap":         strconv.Itoa(p.WeekendsGap),
			"site_distribution":    formatDistribution(p.SiteDistribution),
			"eligible_sites":       strings.Join(p.EligibleSites, ";"),
			"max_consecutive_days": strconv.Itoa(p.MaxConsecutiveDays),
			"markers":              strings.Join(p.Markers, ";"),
		})
	}
	return data
}

// SiteCoverageDataset flattens site coverage, one row per site
func SiteCoverageDataset(sites []allocator.SiteCoverage) Dataset {
	data := Dataset{Headers: []string{
		"site", "tier",
		"weekday_demand", "weekday_filled", "weekday_coverage_pct",
		"weekend_demand", "weekend_filled", "weekend_coverage_pct",
	}}

	for _, s := range sites {
		data.Rows = append(data.Rows, map[string]string{
			"site":                 s.Site,
			"tier":                 s.Tier,
			"weekday_demand":       strconv.Itoa(s.WeekdayDemand),
			"weekday_filled":       strconv.Itoa(s.WeekdayFilled),
			"weekday_coverage_pct": formatPct(s.WeekdayCoveragePct),
			"weekend_demand":       strconv.Itoa(s.WeekendDemand),
			"weekend_filled":       strconv.Itoa(s.WeekendFilled),
			"weekend_coverage_pct": formatPct(s.WeekendCoveragePct),
		})
	}
	return data
}

// ComparisonDataset puts the headline numbers of each variation side by side
func ComparisonDataset(results []services.VariationResult) Dataset {
	data := Dataset{Headers: []string{
		"seed", "run_id", "success",
		"assignments", "total_gaps", "zero_gap_gaps",
		"gaps_with_candidates", "gaps_without_candidates",
		"coverage_pct", "swaps", "validation_errors",
	}}

	for _, r := range results {
		if r.Outcome == nil {
			continue
		}
		stats := r.Outcome.Stats
		data.Rows = append(data.Rows, map[string]string{
			"seed":                    strconv.FormatUint(r.Seed, 10),
			"run_id":                  r.RunID,
			"success":                 strconv.FormatBool(r.Outcome.Success),
			"assignments":             strconv.Itoa(stats.Assignments),
			"total_gaps":              strconv.Itoa(stats.TotalGaps),
			"zero_gap_gaps":           strconv.Itoa(stats.ZeroGapGaps),
			"gaps_with_candidates":    strconv.Itoa(stats.GapsWithCandidates),
			"gaps_without_candidates": strconv.Itoa(stats.GapsWithoutCandidates),
			"coverage_pct":            formatPct(stats.CoveragePct),
			"swaps":                   strconv.Itoa(stats.Swaps),
			"validation_errors":       strconv.Itoa(len(r.Outcome.ValidationErrors)),
		})
	}
	return data
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// nonNil keeps empty lists as [] rather than null in JSON output
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatDistribution renders site counts as "Cooper:2;Vineland:1", sites sorted
func formatDistribution(dist map[string]int) string {
	sites := make([]string, 0, len(dist))
	for site := range dist {
		sites = append(sites, site)
	}
	slices.Sort(sites)

	parts := make([]string, 0, len(sites))
	for _, site := range sites {
		parts = append(parts, fmt.Sprintf("%s:%d", site, dist[site]))
	}
	return strings.Join(parts, ";")
}
