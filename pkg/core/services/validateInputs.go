package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/block-scheduler/pkg/core/allocator"
)

// InputReport summarizes the inputs without allocating anything
type InputReport struct {
	Providers     int
	Sites         int
	Periods       int
	ConflictPairs int

	// Warnings are grouped by kind; Kinds lists the keys in sorted order
	Warnings map[allocator.WarningKind][]allocator.Warning
	Kinds    []allocator.WarningKind

	Excluded map[string][]string
}

// WarningCount returns the total number of warnings across kinds
func (r *InputReport) WarningCount() int {
	total := 0
	for _, ws := range r.Warnings {
		total += len(ws)
	}
	return total
}

// ValidateInputs builds the registry and reports tag, name-match and
// exclusion findings. A fatal input problem is returned as an error.
func ValidateInputs(ctx context.Context, inputs *Inputs, logger *zap.Logger) (*InputReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	registry, err := allocator.BuildRegistry(inputs.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	report := &InputReport{
		Providers:     len(registry.Providers),
		Sites:         len(registry.Sites),
		Periods:       len(registry.Periods),
		ConflictPairs: len(registry.ConflictPairs),
		Warnings:      make(map[allocator.WarningKind][]allocator.Warning),
		Excluded:      registry.Excluded,
	}

	all := append(append([]allocator.Warning(nil), inputs.Warnings...), registry.Warnings...)
	for _, w := range all {
		if _, ok := report.Warnings[w.Kind]; !ok {
			report.Kinds = append(report.Kinds, w.Kind)
		}
		report.Warnings[w.Kind] = append(report.Warnings[w.Kind], w)
	}
	sort.Slice(report.Kinds, func(i, j int) bool { return report.Kinds[i] < report.Kinds[j] })

	logWarnings(logger, all)
	logger.Info("Inputs validated",
		zap.Int("providers", report.Providers),
		zap.Int("sites", report.Sites),
		zap.Int("periods", report.Periods),
		zap.Int("warnings", len(all)))

	return report, nil
}
