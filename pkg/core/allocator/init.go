package allocator

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/jakechorley/block-scheduler/pkg/core/namematch"
	"github.com/jakechorley/block-scheduler/pkg/core/tags"
)

var (
	// ErrNoProviders is returned when the provider table is empty
	ErrNoProviders = errors.New("provider table is empty")

	// ErrNoSites is returned when no sites are configured
	ErrNoSites = errors.New("no sites configured")
)

// ShiftCategoryNights marks nocturnists in the provider table
const ShiftCategoryNights = "Nights"

// Exclusion reasons recorded in Registry.Excluded
const (
	ExcludedDoNotSchedule  = "do_not_schedule"
	ExcludedPureNocturnist = "pure_nocturnist"
	ExcludedZeroRemaining  = "zero_remaining"
)

// WarningKind classifies a data-quality anomaly
type WarningKind string

const (
	WarningUnresolvedAvailability  WarningKind = "unresolved_availability"
	WarningUnresolvedConflictPair  WarningKind = "unresolved_conflict_pair"
	WarningUnresolvedTagProvider   WarningKind = "unresolved_tag_provider"
	WarningUnresolvedPriorOverride WarningKind = "unresolved_prior_override"
	WarningUnknownTag              WarningKind = "unknown_tag"
	WarningUnparseableRule         WarningKind = "unparseable_rule"
	WarningUnknownSiteDemand       WarningKind = "unknown_site_demand"
	WarningNoEligibleSites         WarningKind = "no_eligible_sites"
	WarningExcludedProvider        WarningKind = "excluded_provider"
)

// Warning is a non-fatal input problem. The run continues with a safe default.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Subject string      `json:"subject"`
	Detail  string      `json:"detail"`
}

// ProviderInput is one row of the provider table
type ProviderInput struct {
	Name           string
	ShiftCategory  string
	FTE            float64
	AnnualWeeks    float64
	AnnualWeekends float64
	PriorWeeks     float64
	PriorWeekends  float64

	// Allocation maps allocation group to fraction
	Allocation map[string]float64
}

// TagInput is one row of the tag table
type TagInput struct {
	Provider string
	Tag      string
	Rule     string
}

// SiteConfig is one entry of the canonical (site, group) list
type SiteConfig struct {
	Name  string
	Group string
	Tier  GapTolerance
}

// DemandInput is one row of the site demand table
type DemandInput struct {
	Site   string
	Kind   PeriodKind
	Needed int
}

// UnavailableInput lists the unavailable dates of one availability document.
// Name is as written in the document and is resolved against the provider table.
type UnavailableInput struct {
	Name  string
	Dates []time.Time
}

// PriorOverride replaces the provider table's prior-worked figures
type PriorOverride struct {
	Weeks    float64
	Weekends float64
}

// RegistryInput is everything needed to normalize the raw tables
type RegistryInput struct {
	BlockStart time.Time
	BlockEnd   time.Time
	Holidays   []Holiday

	Providers   []ProviderInput
	Tags        []TagInput
	Sites       []SiteConfig
	Demand      []DemandInput
	Unavailable []UnavailableInput

	// PriorOverrides is keyed by provider name as written in the override source
	PriorOverrides map[string]PriorOverride

	// ConflictPairs hold two name references each (full names or unique fragments)
	ConflictPairs [][2]string

	// NameAliases maps variant spelling to canonical provider-table name
	NameAliases map[string]string

	Settings Settings
}

// Registry is the normalized, read-only view of the inputs for one run
type Registry struct {
	Periods       []*Period
	Sites         []*Site
	Providers     []*Provider
	ConflictPairs []ConflictPair
	Settings      Settings
	Warnings      []Warning

	// Excluded maps exclusion reason to sorted provider names
	Excluded map[string][]string
}

// withDefaults fills unset limits from DefaultSettings
func (s Settings) withDefaults() Settings {
	defaults := DefaultSettings()
	if s.BlocksPerYear <= 0 {
		s.BlocksPerYear = defaults.BlocksPerYear
	}
	if s.MaxConsecutiveDays <= 0 {
		s.MaxConsecutiveDays = defaults.MaxConsecutiveDays
	}
	if s.StretchSoftLimit <= 0 {
		s.StretchSoftLimit = defaults.StretchSoftLimit
	}
	if s.MaxSwapRounds <= 0 {
		s.MaxSwapRounds = defaults.MaxSwapRounds
	}
	return s
}

// BuildRegistry normalizes the raw input tables.
//
// Fatal (error returned):
//   - no sites, no providers, or an empty period list
//   - duplicate site or provider names
//   - negative demand
//
// Recorded as warnings (run continues):
//   - unresolvable names in availability, tags, prior overrides and conflict pairs
//   - unknown tags and unparseable tag rules
//   - demand rows for unconfigured sites
func BuildRegistry(input RegistryInput) (*Registry, error) {
	if len(input.Sites) == 0 {
		return nil, ErrNoSites
	}
	if len(input.Providers) == 0 {
		return nil, ErrNoProviders
	}

	periods, err := BuildPeriods(input.BlockStart, input.BlockEnd, input.Holidays)
	if err != nil {
		return nil, fmt.Errorf("failed to build periods: %w", err)
	}

	reg := &Registry{
		Periods:  periods,
		Settings: input.Settings.withDefaults(),
		Excluded: make(map[string][]string),
	}

	// Step 1: Sites and demand
	if err := reg.buildSites(input.Sites, input.Demand); err != nil {
		return nil, err
	}

	// Step 2: Name matching over the full provider table
	inputs := make([]ProviderInput, len(input.Providers))
	copy(inputs, input.Providers)
	sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].Name < inputs[j].Name })

	names := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, p := range inputs {
		norm := namematch.Normalize(p.Name)
		if norm == "" {
			return nil, fmt.Errorf("provider table has a row without a name")
		}
		if seen[norm] {
			return nil, fmt.Errorf("duplicate provider %q in provider table", p.Name)
		}
		seen[norm] = true
		names = append(names, p.Name)
	}
	matcher := namematch.NewMatcher(names, input.NameAliases)

	// Step 3: Tags, grouped per provider in table order
	tagsByProvider := make(map[string][]tags.Tag)
	for _, t := range input.Tags {
		name, ok := matcher.Match(t.Provider)
		if !ok {
			reg.warn(WarningUnresolvedTagProvider, t.Provider, fmt.Sprintf("tag %q names no provider", t.Tag))
			continue
		}
		tagsByProvider[name] = append(tagsByProvider[name], tags.Tag{Name: t.Tag, Rule: t.Rule})
	}

	// Step 4: Prior-worked overrides
	priorByProvider := make(map[string]PriorOverride, len(input.PriorOverrides))
	for _, ref := range sortedKeys(input.PriorOverrides) {
		name, ok := matcher.Match(ref)
		if !ok {
			reg.warn(WarningUnresolvedPriorOverride, ref, "prior override names no provider")
			continue
		}
		priorByProvider[name] = input.PriorOverrides[ref]
	}

	// Step 5: Provider records
	siteGroups := make([]tags.SiteGroup, len(reg.Sites))
	for i, site := range reg.Sites {
		siteGroups[i] = tags.SiteGroup{Site: site.Name, Group: site.Group}
	}

	byName := make(map[string]*Provider, len(inputs))
	for _, in := range inputs {
		provider, reason := reg.buildProvider(in, tagsByProvider[in.Name], priorByProvider, siteGroups)
		if provider == nil {
			reg.Excluded[reason] = append(reg.Excluded[reason], in.Name)
			reg.warn(WarningExcludedProvider, in.Name, reason)
			continue
		}
		reg.Providers = append(reg.Providers, provider)
		byName[provider.Name] = provider
	}

	// Step 6: Availability
	unavailable := make([]UnavailableInput, len(input.Unavailable))
	copy(unavailable, input.Unavailable)
	sort.SliceStable(unavailable, func(i, j int) bool { return unavailable[i].Name < unavailable[j].Name })

	for _, doc := range unavailable {
		name, ok := matcher.Match(doc.Name)
		if !ok {
			reg.warn(WarningUnresolvedAvailability, doc.Name, "no matching provider; treated as fully available")
			continue
		}
		provider := byName[name]
		if provider == nil {
			continue
		}
		for _, d := range doc.Dates {
			provider.unavailable[dayNumber(d)] = true
		}
	}

	// Step 7: Conflict pairs
	for _, pair := range input.ConflictPairs {
		nameA, okA := matcher.MatchFragment(pair[0])
		nameB, okB := matcher.MatchFragment(pair[1])
		if !okA || !okB {
			reg.warn(WarningUnresolvedConflictPair, pair[0]+" / "+pair[1], "pair member names no unique provider")
			continue
		}
		a, b := byName[nameA], byName[nameB]
		if a == nil || b == nil {
			// An excluded member cannot be scheduled, so the pair is moot
			continue
		}
		if a == b {
			reg.warn(WarningUnresolvedConflictPair, pair[0]+" / "+pair[1], "both members resolve to the same provider")
			continue
		}
		reg.ConflictPairs = append(reg.ConflictPairs, ConflictPair{A: a, B: b})
	}

	for i, provider := range reg.Providers {
		provider.Index = i
	}
	for reason := range reg.Excluded {
		sort.Strings(reg.Excluded[reason])
	}

	return reg, nil
}

// buildSites creates the site list sorted by (tier, name) and applies demand rows
func (reg *Registry) buildSites(configs []SiteConfig, demand []DemandInput) error {
	byName := make(map[string]*Site, len(configs))
	for _, cfg := range configs {
		name := strings.TrimSpace(cfg.Name)
		if name == "" {
			return fmt.Errorf("site configured without a name")
		}
		if _, dup := byName[name]; dup {
			return fmt.Errorf("duplicate site %q in site configuration", name)
		}
		site := &Site{Name: name, Group: cfg.Group, Tier: cfg.Tier}
		byName[name] = site
		reg.Sites = append(reg.Sites, site)
	}

	sort.SliceStable(reg.Sites, func(i, j int) bool {
		if reg.Sites[i].Tier != reg.Sites[j].Tier {
			return reg.Sites[i].Tier < reg.Sites[j].Tier
		}
		return reg.Sites[i].Name < reg.Sites[j].Name
	})

	for _, row := range demand {
		site, ok := byName[strings.TrimSpace(row.Site)]
		if !ok {
			reg.warn(WarningUnknownSiteDemand, row.Site, fmt.Sprintf("%s demand for an unconfigured site ignored", row.Kind))
			continue
		}
		if row.Needed < 0 {
			return fmt.Errorf("negative %s demand %d for site %q", row.Kind, row.Needed, row.Site)
		}
		site.Demand[row.Kind] = row.Needed
	}

	return nil
}

// buildProvider normalizes one provider row. Returns nil and the exclusion
// reason when the provider takes no part in the run.
func (reg *Registry) buildProvider(in ProviderInput, providerTags []tags.Tag, priors map[string]PriorOverride, siteGroups []tags.SiteGroup) (*Provider, string) {
	eval := tags.Evaluate(providerTags, siteGroups)
	for _, issue := range eval.Issues {
		kind := WarningUnknownTag
		if issue.Kind == tags.IssueUnparseableRule {
			kind = WarningUnparseableRule
		}
		reg.warn(kind, in.Name, fmt.Sprintf("%s: %s", issue.Tag, issue.Detail))
	}

	annual := [2]float64{in.AnnualWeeks, in.AnnualWeekends}
	prior := [2]float64{in.PriorWeeks, in.PriorWeekends}
	// An override with no computed data keeps the table figures
	if override, ok := priors[in.Name]; ok && (override.Weeks != 0 || override.Weekends != 0) {
		prior = [2]float64{override.Weeks, override.Weekends}
	}

	var remaining [2]float64
	for k := range remaining {
		remaining[k] = math.Max(0, annual[k]-prior[k])
	}

	if eval.Exclude {
		return nil, ExcludedDoNotSchedule
	}
	if remaining[Weekday] <= 0 && remaining[Weekend] <= 0 {
		if in.ShiftCategory == ShiftCategoryNights {
			return nil, ExcludedPureNocturnist
		}
		return nil, ExcludedZeroRemaining
	}

	allocation := make(map[string]float64, len(in.Allocation)+len(eval.PctOverrides))
	for group, fraction := range in.Allocation {
		allocation[group] = fraction
	}
	for group, fraction := range eval.PctOverrides {
		allocation[group] = fraction
	}

	restricted := make(map[string]bool, len(eval.RestrictedSites))
	for _, site := range eval.RestrictedSites {
		restricted[site] = true
	}

	provider := &Provider{
		Name:          in.Name,
		ShiftCategory: in.ShiftCategory,
		FTE:           in.FTE,
		Annual:        annual,
		Prior:         prior,
		Remaining:     remaining,
		Allocation:    allocation,
		Tags:          providerTags,
		Markers:       eval.Markers,
		eligible:      make(map[string]bool),
		unavailable:   make(map[int]bool),
	}

	for _, site := range reg.Sites {
		if allocation[site.Group] > 0 && !restricted[site.Name] {
			provider.EligibleSites = append(provider.EligibleSites, site.Name)
			provider.eligible[site.Name] = true
		}
	}
	if len(provider.EligibleSites) == 0 {
		reg.warn(WarningNoEligibleSites, in.Name, "no allocation fraction above zero for any configured site")
	}

	for k := range provider.Capacity {
		provider.Capacity[k] = int(math.Floor(remaining[k]))
		provider.FairShare[k] = fairShare(annual[k], provider.Capacity[k], reg.Settings.BlocksPerYear)
	}

	return provider, ""
}

// fairShare is min(ceil(annual/blocksPerYear), capacity), or 0 without an annual target
func fairShare(annual float64, capacity int, blocksPerYear int) int {
	if annual <= 0 {
		return 0
	}
	return min(int(math.Ceil(annual/float64(blocksPerYear))), capacity)
}

func (reg *Registry) warn(kind WarningKind, subject, detail string) {
	reg.Warnings = append(reg.Warnings, Warning{Kind: kind, Subject: subject, Detail: detail})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewState builds a fresh, empty assignment state for one seeded run.
// The registry is only read, so many states may share it.
func NewState(reg *Registry, seed uint64) *BlockState {
	rng := rand.New(rand.NewPCG(seed, seed))
	return newBlockState(reg.Periods, reg.Providers, reg.Sites, reg.ConflictPairs, reg.Settings, rng)
}
