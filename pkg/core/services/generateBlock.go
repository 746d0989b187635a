package services

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/block-scheduler/pkg/core/allocator"
	"github.com/jakechorley/block-scheduler/pkg/core/allocator/criteria"
)

// VariationResult is one seeded run of the engine
type VariationResult struct {
	RunID   string
	Seed    uint64
	Outcome *allocator.AllocationOutcome

	// Warnings are the load warnings followed by the registry's own
	Warnings []allocator.Warning
}

// GenerateBlock builds the registry once and runs one engine per seed in
// parallel. Results come back in the order of seeds.
func GenerateBlock(
	ctx context.Context,
	inputs *Inputs,
	seeds []uint64,
	logger *zap.Logger,
) ([]VariationResult, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("at least one seed is required")
	}

	registry, err := allocator.BuildRegistry(inputs.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	logger.Info("Registry built",
		zap.Int("providers", len(registry.Providers)),
		zap.Int("sites", len(registry.Sites)),
		zap.Int("periods", len(registry.Periods)),
		zap.Int("conflict_pairs", len(registry.ConflictPairs)))

	warnings := append(append([]allocator.Warning(nil), inputs.Warnings...), registry.Warnings...)
	logWarnings(logger, warnings)
	for _, reason := range slices.Sorted(maps.Keys(registry.Excluded)) {
		logger.Info("Providers excluded",
			zap.String("reason", reason),
			zap.Strings("providers", registry.Excluded[reason]))
	}

	results := make([]VariationResult, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, seed := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outcome, err := allocator.Allocate(allocator.AllocationConfig{
				Registry: registry,
				Criteria: criteria.DefaultCriteria(),
				Seed:     seed,
			})
			if err != nil {
				return fmt.Errorf("allocation failed for seed %d: %w", seed, err)
			}

			results[i] = VariationResult{
				RunID:    uuid.NewString(),
				Seed:     seed,
				Outcome:  outcome,
				Warnings: warnings,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, result := range results {
		stats := result.Outcome.Stats
		logger.Info("Variation complete",
			zap.Uint64("seed", result.Seed),
			zap.String("run_id", result.RunID),
			zap.Int("assignments", stats.Assignments),
			zap.Int("gaps", stats.TotalGaps),
			zap.Int("zero_gap_gaps", stats.ZeroGapGaps),
			zap.Float64("coverage_pct", stats.CoveragePct),
			zap.Int("swaps", stats.Swaps))

		for _, verr := range result.Outcome.ValidationErrors {
			logger.Error("Validation error",
				zap.Uint64("seed", result.Seed),
				zap.String("invariant", verr.Invariant),
				zap.String("provider", verr.Provider),
				zap.Int("period_index", verr.PeriodIndex),
				zap.String("site", verr.Site),
				zap.String("description", verr.Description))
		}
	}

	return results, nil
}

func logWarnings(logger *zap.Logger, warnings []allocator.Warning) {
	for _, w := range warnings {
		logger.Warn("Input warning",
			zap.String("kind", string(w.Kind)),
			zap.String("subject", w.Subject),
			zap.String("detail", w.Detail))
	}
}
