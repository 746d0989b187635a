// Package namematch resolves provider names that arrive from different data
// sources (provider table, availability documents, configured conflict pairs)
// to the canonical provider-table name.
package namematch

import (
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Credential suffixes stripped from the end of a name, longest first so
// "PA-C" is not reduced to "PA-" by the shorter suffix.
var credentialSuffixes = []string{" PA-C", " MBBS", " MD", " DO", " PA", " NP"}

var (
	trailingStars   = regexp.MustCompile(`\*+$`)
	trailingHyphens = regexp.MustCompile(`-+$`)
	commaSpacing    = regexp.MustCompile(`\s*,\s*`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Normalize converts a name to its comparison form.
//
// Examples:
//   - "Shaikh, Samana MD"   -> "SHAIKH, SAMANA"
//   - "Sapasetty , Aditya"  -> "SAPASETTY, ADITYA"
//   - "Dunn, E. Charles MD" -> "DUNN, E CHARLES"
func Normalize(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return ""
	}

	for _, suffix := range credentialSuffixes {
		if strings.HasSuffix(n, suffix) {
			n = strings.TrimSpace(strings.TrimSuffix(n, suffix))
		}
	}

	n = strings.TrimSpace(trailingStars.ReplaceAllString(n, ""))
	n = strings.TrimSpace(trailingHyphens.ReplaceAllString(n, ""))
	n = strings.ReplaceAll(n, ".", "")
	n = commaSpacing.ReplaceAllString(n, ", ")
	n = whitespace.ReplaceAllString(n, " ")

	return strings.TrimSpace(n)
}

// Abbreviate reduces a normalized "LAST, FIRST" name to "LAST, F".
// Returns false for names without a first-name part.
func Abbreviate(normalized string) (string, bool) {
	last, first, found := strings.Cut(normalized, ",")
	if !found {
		return "", false
	}
	last = strings.TrimSpace(last)
	first = strings.TrimSpace(first)
	if last == "" || first == "" {
		return "", false
	}
	initial, _ := utf8.DecodeRuneInString(first)
	return last + ", " + string(initial), true
}

// Matcher resolves names against a fixed set of candidate names
type Matcher struct {
	// normalized candidate -> original candidate
	index map[string]string

	// sorted normalized candidates, for deterministic scans
	keys []string

	// normalized variant -> normalized canonical, and canonical -> its
	// variants in sorted order
	toCanonical map[string]string
	toVariants  map[string][]string
}

// NewMatcher builds a matcher over candidates. aliases maps a variant spelling
// (as seen in availability documents) to the canonical provider-table name;
// both sides are normalized and the map is used in both directions.
func NewMatcher(candidates []string, aliases map[string]string) *Matcher {
	m := &Matcher{
		index:       make(map[string]string, len(candidates)),
		toCanonical: make(map[string]string, len(aliases)),
		toVariants:  make(map[string][]string, len(aliases)),
	}

	for _, c := range candidates {
		nc := Normalize(c)
		if nc == "" {
			continue
		}
		if _, exists := m.index[nc]; !exists {
			m.keys = append(m.keys, nc)
		}
		m.index[nc] = c
	}
	sort.Strings(m.keys)

	variants := make([]string, 0, len(aliases))
	for variant := range aliases {
		variants = append(variants, variant)
	}
	sort.Strings(variants)

	for _, variant := range variants {
		v := Normalize(variant)
		c := Normalize(aliases[variant])
		if v == "" || c == "" {
			continue
		}
		m.toCanonical[v] = c
		if !slices.Contains(m.toVariants[c], v) {
			m.toVariants[c] = append(m.toVariants[c], v)
		}
	}
	for _, vs := range m.toVariants {
		sort.Strings(vs)
	}

	return m
}

// Match finds the candidate for name.
//
// Strategy (in order):
//  1. Exact match after normalization
//  2. Alias resolution (canonical and variant forms)
//  3. Abbreviated "LAST, F" match, only when exactly one candidate abbreviates the same way
func (m *Matcher) Match(name string) (string, bool) {
	norm := Normalize(name)
	if norm == "" {
		return "", false
	}

	if orig, ok := m.index[norm]; ok {
		return orig, true
	}

	if canonical, ok := m.toCanonical[norm]; ok {
		if orig, ok := m.index[canonical]; ok {
			return orig, true
		}
	}
	for _, variant := range m.toVariants[norm] {
		if orig, ok := m.index[variant]; ok {
			return orig, true
		}
	}

	abbrev, ok := Abbreviate(norm)
	if !ok {
		return "", false
	}

	var found string
	matches := 0
	for _, key := range m.keys {
		if candidateAbbrev, ok := Abbreviate(key); ok && candidateAbbrev == abbrev {
			found = m.index[key]
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}

	return "", false
}

// MatchFragment resolves a loosely written reference such as a bare surname.
// Falls back from Match to a substring search that must hit exactly one candidate.
func (m *Matcher) MatchFragment(fragment string) (string, bool) {
	if orig, ok := m.Match(fragment); ok {
		return orig, true
	}

	norm := Normalize(fragment)
	if norm == "" {
		return "", false
	}

	var found string
	matches := 0
	for _, key := range m.keys {
		if strings.Contains(key, norm) {
			found = m.index[key]
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}

	return "", false
}
