package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/block-scheduler/internal/config"
	"github.com/jakechorley/block-scheduler/pkg/clients/availabilityclient"
	"github.com/jakechorley/block-scheduler/pkg/core/allocator"
	"github.com/jakechorley/block-scheduler/pkg/db"
)

// Warning kinds raised while loading, before the registry is built
const (
	WarningMissingAvailability allocator.WarningKind = "missing_availability"
	WarningSkippedDocument     allocator.WarningKind = "skipped_availability_document"
	WarningBadAllocation       allocator.WarningKind = "unparseable_allocation"
)

// Inputs is everything read for one block: the registry input plus the
// warnings raised while reading it
type Inputs struct {
	Registry allocator.RegistryInput
	Warnings []allocator.Warning
}

// LoadInputs reads every input table once and assembles the registry input.
// availability may be nil, in which case every provider is fully available
// apart from configured overrides.
func LoadInputs(
	ctx context.Context,
	source db.InputSource,
	availability db.AvailabilitySource,
	cfg *config.Config,
	logger *zap.Logger,
) (*Inputs, error) {
	start, end, err := cfg.BlockRange()
	if err != nil {
		return nil, err
	}
	logger.Debug("Loading inputs",
		zap.String("block_start", cfg.Block.Start),
		zap.String("block_end", cfg.Block.End))

	inputs := &Inputs{
		Registry: allocator.RegistryInput{
			BlockStart:  start,
			BlockEnd:    end,
			NameAliases: cfg.NameAliases,
			Settings:    settingsFromConfig(cfg),
		},
	}
	reg := &inputs.Registry

	holidays, err := expandHolidays(cfg.Holidays, start, end)
	if err != nil {
		return nil, err
	}
	reg.Holidays = holidays

	for _, site := range cfg.Sites {
		tier, ok := allocator.ParseGapTolerance(site.Tier)
		if !ok {
			return nil, fmt.Errorf("site %s has unknown tier %q", site.Name, site.Tier)
		}
		reg.Sites = append(reg.Sites, allocator.SiteConfig{Name: site.Name, Group: site.Group, Tier: tier})
	}
	for _, pair := range cfg.ConflictPairs {
		if len(pair) == 2 {
			reg.ConflictPairs = append(reg.ConflictPairs, [2]string{pair[0], pair[1]})
		}
	}

	providers, err := source.GetProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}
	groups := siteGroups(cfg.Sites)
	for _, row := range providers {
		allocation, problems := row.Allocation(groups)
		for _, problem := range problems {
			inputs.warn(WarningBadAllocation, row.Name, problem)
		}
		priorWeeks, priorWeekends := row.Prior()
		reg.Providers = append(reg.Providers, allocator.ProviderInput{
			Name:           row.Name,
			ShiftCategory:  row.ShiftType,
			FTE:            row.FTE,
			AnnualWeeks:    row.AnnualWeeks,
			AnnualWeekends: row.AnnualWeekends,
			PriorWeeks:     priorWeeks,
			PriorWeekends:  priorWeekends,
			Allocation:     allocation,
		})
	}
	logger.Debug("Loaded providers", zap.Int("count", len(reg.Providers)))

	tagRows, err := source.GetProviderTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider tags: %w", err)
	}
	for _, row := range tagRows {
		reg.Tags = append(reg.Tags, allocator.TagInput{Provider: row.Provider, Tag: row.Tag, Rule: row.Rule})
	}
	logger.Debug("Loaded provider tags", zap.Int("count", len(reg.Tags)))

	demandRows, err := source.GetSiteDemand(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load site demand: %w", err)
	}
	for _, row := range demandRows {
		kind, ok := allocator.ParsePeriodKind(row.DayType)
		if !ok {
			logger.Debug("Ignoring demand row",
				zap.String("site", row.Site),
				zap.String("day_type", row.DayType))
			continue
		}
		reg.Demand = append(reg.Demand, allocator.DemandInput{Site: row.Site, Kind: kind, Needed: row.ProvidersNeeded})
	}
	logger.Debug("Loaded site demand", zap.Int("rows", len(reg.Demand)))

	if availability != nil {
		unavailable, err := availability.GetUnavailableDates(ctx)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			inputs.warn(WarningMissingAvailability, cfg.AvailabilityDir, "availability directory not found; providers treated as fully available")
		case err != nil:
			return nil, fmt.Errorf("failed to load availability: %w", err)
		default:
			reg.Unavailable = groupUnavailable(unavailable)
		}
		if skipper, ok := availability.(interface{ SkippedDocuments() []string }); ok {
			for _, name := range skipper.SkippedDocuments() {
				inputs.warn(WarningSkippedDocument, name, "document could not be parsed or has no name")
			}
		}
	}

	overrides, err := expandAvailabilityOverrides(cfg.AvailabilityOverrides, start, end)
	if err != nil {
		return nil, err
	}
	reg.Unavailable = append(reg.Unavailable, overrides...)
	logger.Debug("Loaded availability",
		zap.Int("names", len(reg.Unavailable)),
		zap.Int("overrides", len(cfg.AvailabilityOverrides)))

	if cfg.PriorOverridesFile != "" {
		priors, err := LoadPriorOverrides(cfg.PriorOverridesFile)
		if err != nil {
			return nil, err
		}
		reg.PriorOverrides = priors
		logger.Debug("Loaded prior overrides", zap.Int("count", len(priors)))
	}

	return inputs, nil
}

func (in *Inputs) warn(kind allocator.WarningKind, subject, detail string) {
	in.Warnings = append(in.Warnings, allocator.Warning{Kind: kind, Subject: subject, Detail: detail})
}

func settingsFromConfig(cfg *config.Config) allocator.Settings {
	return allocator.Settings{
		BlocksPerYear:              cfg.BlocksPerYear,
		MaxConsecutiveDays:         cfg.MaxConsecutiveDays,
		StretchSoftLimit:           cfg.StretchSoftLimit,
		MaxSwapRounds:              cfg.MaxSwapRounds,
		WeightDifficultyByCapacity: cfg.WeightDifficultyByCapacity,
	}
}

func siteGroups(sites []config.Site) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, site := range sites {
		if !seen[site.Group] {
			seen[site.Group] = true
			groups = append(groups, site.Group)
		}
	}
	return groups
}

// groupUnavailable folds date rows into one entry per recorded name
func groupUnavailable(rows []db.UnavailableDate) []allocator.UnavailableInput {
	byName := make(map[string][]time.Time)
	var names []string
	for _, row := range rows {
		if _, ok := byName[row.Provider]; !ok {
			names = append(names, row.Provider)
			byName[row.Provider] = nil
		}
		if !row.Date.IsZero() {
			byName[row.Provider] = append(byName[row.Provider], row.Date)
		}
	}
	sort.Strings(names)

	result := make([]allocator.UnavailableInput, 0, len(names))
	for _, name := range names {
		result = append(result, allocator.UnavailableInput{Name: name, Dates: byName[name]})
	}
	return result
}

// expandRule lists the dates an rrule matches inside [start, end].
// The rule is anchored at start, as config rules carry no DTSTART.
func expandRule(text string, start, end time.Time) ([]time.Time, error) {
	rule, err := rrule.StrToRRule(text)
	if err != nil {
		return nil, err
	}
	rule.DTStart(start)
	return rule.Between(start, end, true), nil
}

func expandHolidays(holidays []config.Holiday, start, end time.Time) ([]allocator.Holiday, error) {
	var result []allocator.Holiday
	for i, h := range holidays {
		dates, err := expandRule(h.RRule, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for holiday %d: %w", i, err)
		}
		for _, date := range dates {
			result = append(result, allocator.Holiday{Name: h.Name, Date: date})
		}
	}
	return result, nil
}

func expandAvailabilityOverrides(overrides []config.AvailabilityOverride, start, end time.Time) ([]allocator.UnavailableInput, error) {
	var result []allocator.UnavailableInput
	for i, o := range overrides {
		dates, err := expandRule(o.RRule, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for availability override %d: %w", i, err)
		}
		if len(dates) == 0 {
			continue
		}
		result = append(result, allocator.UnavailableInput{Name: o.Provider, Dates: dates})
	}
	return result, nil
}

type priorOverrideFile struct {
	Computed map[string]priorOverrideEntry `yaml:"computed"`
}

// priorOverrideEntry accepts both the prior_* keys and the bare weeks/weekends
// keys; prior_* wins when both are present.
type priorOverrideEntry struct {
	PriorWeeks    *float64 `yaml:"prior_weeks"`
	PriorWeekends *float64 `yaml:"prior_weekends"`
	Weeks         *float64 `yaml:"weeks"`
	Weekends      *float64 `yaml:"weekends"`
}

func (e priorOverrideEntry) values() (weeks, weekends float64) {
	return firstSet(e.PriorWeeks, e.Weeks), firstSet(e.PriorWeekends, e.Weekends)
}

func firstSet(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

// LoadPriorOverrides reads a YAML or JSON file of prior-worked figures.
// Entries with both values zero are skipped.
func LoadPriorOverrides(path string) (map[string]allocator.PriorOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prior overrides file: %w", err)
	}

	var file priorOverrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prior overrides file: %w", err)
	}

	result := make(map[string]allocator.PriorOverride, len(file.Computed))
	for name, entry := range file.Computed {
		weeks, weekends := entry.values()
		if weeks == 0 && weekends == 0 {
			continue
		}
		result[name] = allocator.PriorOverride{Weeks: weeks, Weekends: weekends}
	}
	return result, nil
}

// DocumentAvailability adapts a directory of availability documents to db.AvailabilitySource
type DocumentAvailability struct {
	client  *availabilityclient.Client
	skipped []string
}

// NewDocumentAvailability reads documents through client
func NewDocumentAvailability(client *availabilityclient.Client) *DocumentAvailability {
	return &DocumentAvailability{client: client}
}

// GetUnavailableDates flattens every document into date rows
func (d *DocumentAvailability) GetUnavailableDates(ctx context.Context) ([]db.UnavailableDate, error) {
	result, err := d.client.Load(ctx)
	if err != nil {
		return nil, err
	}
	d.skipped = result.Skipped

	var rows []db.UnavailableDate
	for _, provider := range result.Providers {
		if len(provider.Unavailable) == 0 {
			// Keep the name on record so it still resolves against the provider table
			rows = append(rows, db.UnavailableDate{Provider: provider.Name})
			continue
		}
		for _, date := range provider.Unavailable {
			rows = append(rows, db.UnavailableDate{Provider: provider.Name, Date: date})
		}
	}
	return rows, nil
}

// SkippedDocuments lists the files the last read could not use
func (d *DocumentAvailability) SkippedDocuments() []string {
	return d.skipped
}
