// Package tags evaluates the free-text provider tag table.
//
// Only a fixed vocabulary changes engine behaviour:
//   - do_not_schedule removes the provider from the run
//   - no_<site> removes one site from the provider's eligible set
//   - pct_override replaces per-group allocation fractions
//
// Marker tags (swing_shift, pa_rotation, days_per_week, ...) are parsed and
// carried for reporting. Anything else is reported as unknown and ignored.
package tags

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Recognized tag names
const (
	DoNotSchedule       = "do_not_schedule"
	SwingShift          = "swing_shift"
	NoUM                = "no_um"
	DaysPerWeek         = "days_per_week"
	PARotation          = "pa_rotation"
	PctOverride         = "pct_override"
	FMLA                = "fmla"
	SplitDepartment     = "split_department"
	ProtectedTime       = "protected_time"
	Note                = "note"
	LocationRestriction = "location_restriction"
	SchedulingPriority  = "scheduling_priority"
	NightConstraint     = "night_constraint"
	ServiceRestriction  = "service_restriction"

	siteRestrictionPrefix = "no_"
)

// Issue kinds
const (
	IssueUnknownTag      = "unknown_tag"
	IssueUnparseableRule = "unparseable_rule"
)

// freeTextTags record their rule text only
var freeTextTags = map[string]bool{
	Note:                true,
	LocationRestriction: true,
	SchedulingPriority:  true,
	NightConstraint:     true,
	ServiceRestriction:  true,
}

var (
	firstInteger = regexp.MustCompile(`(\d+)`)
	weeksInRule  = regexp.MustCompile(`(?i)(\d+)\s*weeks?\b`)
	department   = regexp.MustCompile(`(?i)(peds|pediatrics|cardiology)`)
	leaveDate    = regexp.MustCompile(`(LeaveBegDate|LeaveEndDate|Return to work):\s*(\d{4}-\d{2}-\d{2})`)
)

// Tag is one row of the tag table for a provider
type Tag struct {
	Name string `json:"tag"`
	Rule string `json:"rule,omitempty"`
}

// SiteGroup is one entry of the canonical (site, allocation group) list
type SiteGroup struct {
	Site  string
	Group string
}

// Leave holds the dates parsed from an fmla rule
type Leave struct {
	Begin        string `json:"begin,omitempty"`
	End          string `json:"end,omitempty"`
	ReturnToWork string `json:"returnToWork,omitempty"`
}

// Markers are informational flags carried on the provider record
type Markers struct {
	SwingShift      bool   `json:"swingShift,omitempty"`
	NoUM            bool   `json:"noUM,omitempty"`
	DaysPerWeek     int    `json:"daysPerWeek,omitempty"`
	PARotationWeeks int    `json:"paRotationWeeks,omitempty"`
	FMLA            *Leave `json:"fmla,omitempty"`
	SplitDepartment string `json:"splitDepartment,omitempty"`
	ProtectedTime   bool   `json:"protectedTime,omitempty"`
}

// Labels renders the set markers as short labels, in a fixed order
func (m Markers) Labels() []string {
	var labels []string
	if m.SwingShift {
		labels = append(labels, SwingShift)
	}
	if m.NoUM {
		labels = append(labels, NoUM)
	}
	if m.DaysPerWeek > 0 {
		labels = append(labels, fmt.Sprintf("%s:%d", DaysPerWeek, m.DaysPerWeek))
	}
	if m.PARotationWeeks > 0 {
		labels = append(labels, fmt.Sprintf("%s:%dw", PARotation, m.PARotationWeeks))
	}
	if m.FMLA != nil {
		labels = append(labels, FMLA)
	}
	if m.SplitDepartment != "" {
		labels = append(labels, SplitDepartment+":"+m.SplitDepartment)
	}
	if m.ProtectedTime {
		labels = append(labels, ProtectedTime)
	}
	return labels
}

// Issue is a data-quality problem found while evaluating a tag
type Issue struct {
	Tag    string
	Kind   string
	Detail string
}

// Evaluation is the combined effect of one provider's tags
type Evaluation struct {
	// Exclude is set by do_not_schedule
	Exclude bool

	// RestrictedSites are site names removed from the eligible set
	RestrictedSites []string

	// PctOverrides maps allocation group to replacement fraction
	PctOverrides map[string]float64

	Markers Markers
	Issues  []Issue
}

// SiteSlug converts a site name to its tag form ("Mullica Hill" -> "mullica_hill")
func SiteSlug(site string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(site)), " ", "_")
}

// Evaluate applies the tag vocabulary to one provider's tags, in order.
// sites is used to resolve no_<site> restrictions and pct_override keys.
func Evaluate(providerTags []Tag, sites []SiteGroup) Evaluation {
	eval := Evaluation{PctOverrides: map[string]float64{}}

	slugs := make(map[string]string, len(sites))
	for _, sg := range sites {
		slugs[SiteSlug(sg.Site)] = sg.Site
	}

	for _, tag := range providerTags {
		name := strings.ToLower(strings.TrimSpace(tag.Name))

		switch {
		case name == DoNotSchedule:
			eval.Exclude = true

		case name == SwingShift:
			eval.Markers.SwingShift = true

		case name == NoUM:
			eval.Markers.NoUM = true

		case strings.HasPrefix(name, DaysPerWeek):
			m := firstInteger.FindStringSubmatch(name)
			if m == nil {
				eval.Issues = append(eval.Issues, Issue{Tag: tag.Name, Kind: IssueUnparseableRule, Detail: "no integer found in tag name"})
				continue
			}
			n, _ := strconv.Atoi(m[1])
			eval.Markers.DaysPerWeek = n
			if n < 1 || n > 7 {
				eval.Issues = append(eval.Issues, Issue{Tag: tag.Name, Kind: IssueUnparseableRule, Detail: fmt.Sprintf("value %d outside 1-7", n)})
			}

		case name == PARotation:
			m := weeksInRule.FindStringSubmatch(tag.Rule)
			if m == nil {
				eval.Issues = append(eval.Issues, Issue{Tag: tag.Name, Kind: IssueUnparseableRule, Detail: "could not extract week count from rule"})
				continue
			}
			eval.Markers.PARotationWeeks, _ = strconv.Atoi(m[1])

		case name == PctOverride:
			overrides, problems := ParsePctOverride(tag.Rule, sites)
			for group, value := range overrides {
				eval.PctOverrides[group] = value
			}
			for _, p := range problems {
				eval.Issues = append(eval.Issues, Issue{Tag: tag.Name, Kind: IssueUnparseableRule, Detail: p})
			}
			if len(overrides) == 0 && len(problems) == 0 {
				eval.Issues = append(eval.Issues, Issue{Tag: tag.Name, Kind: IssueUnparseableRule, Detail: "empty override"})
			}

		case name == FMLA:
			eval.Markers.FMLA = parseLeave(tag.Rule)

		case name == SplitDepartment:
			eval.Markers.SplitDepartment = "unspecified"
			if m := department.FindStringSubmatch(tag.Rule); m != nil {
				eval.Markers.SplitDepartment = strings.ToLower(m[1])
			}

		case name == ProtectedTime:
			eval.Markers.ProtectedTime = true

		case freeTextTags[name]:
			// rule text only

		case strings.HasPrefix(name, siteRestrictionPrefix):
			site, ok := slugs[strings.TrimPrefix(name, siteRestrictionPrefix)]
			if !ok {
				eval.Issues = append(eval.Issues, Issue{Tag: tag.Name, Kind: IssueUnknownTag, Detail: "site restriction names no configured site"})
				continue
			}
			eval.RestrictedSites = append(eval.RestrictedSites, site)

		default:
			eval.Issues = append(eval.Issues, Issue{Tag: tag.Name, Kind: IssueUnknownTag, Detail: "not in the tag vocabulary"})
		}
	}

	return eval
}

func parseLeave(rule string) *Leave {
	leave := &Leave{}
	for _, m := range leaveDate.FindAllStringSubmatch(rule, -1) {
		switch m[1] {
		case "LeaveBegDate":
			leave.Begin = m[2]
		case "LeaveEndDate":
			leave.End = m[2]
		case "Return to work":
			leave.ReturnToWork = m[2]
		}
	}
	return leave
}

// ParsePctOverride parses a rule such as "Cooper: 50%, Virtua: 0.5" into
// group -> fraction. Pieces are split on "," or ";" and each uses ":" or "=".
// Problems are returned as human-readable strings; good pieces still apply.
func ParsePctOverride(rule string, sites []SiteGroup) (map[string]float64, []string) {
	overrides := map[string]float64{}
	var problems []string

	pieces := strings.FieldsFunc(rule, func(r rune) bool { return r == ',' || r == ';' })
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}

		key, val, found := strings.Cut(piece, ":")
		if !found {
			key, val, found = strings.Cut(piece, "=")
		}
		if !found {
			problems = append(problems, fmt.Sprintf("cannot parse %q", piece))
			continue
		}

		group, ok := ResolveGroup(key, sites)
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown site %q", strings.TrimSpace(key)))
			continue
		}

		value, ok := ParsePctValue(val)
		if !ok {
			problems = append(problems, fmt.Sprintf("bad value %q", strings.TrimSpace(val)))
			continue
		}

		overrides[group] = value
	}

	return overrides, problems
}

// ParsePctValue parses "50%", "50" or "0.5" as a fraction.
// A bare value above 1 is read as a percentage.
func ParsePctValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return 0, false
		}
		return v / 100, true
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if v > 1 {
		return v / 100, true
	}
	return v, true
}

// ResolveGroup maps a user-written site or group name to an allocation group.
// Tries an exact group name, then an exact site name, then substring matches
// against site names and group names. Candidates are scanned in sorted order.
func ResolveGroup(text string, sites []SiteGroup) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return "", false
	}

	sorted := make([]SiteGroup, len(sites))
	copy(sorted, sites)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Site < sorted[j].Site })

	for _, sg := range sorted {
		if strings.ToLower(sg.Group) == key {
			return sg.Group, true
		}
	}
	for _, sg := range sorted {
		if strings.ToLower(sg.Site) == key || SiteSlug(sg.Site) == key {
			return sg.Group, true
		}
	}
	for _, sg := range sorted {
		if strings.Contains(strings.ToLower(sg.Site), key) || strings.Contains(key, strings.ToLower(sg.Site)) {
			return sg.Group, true
		}
	}
	for _, sg := range sorted {
		if strings.Contains(strings.ToLower(sg.Group), key) {
			return sg.Group, true
		}
	}

	return "", false
}
