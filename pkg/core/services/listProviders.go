package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/block-scheduler/pkg/core/allocator"
)

// ProviderView is one provider as the registry sees it
type ProviderView struct {
	Name          string
	ShiftCategory string
	FTE           float64

	CapacityWeeks     int
	CapacityWeekends  int
	FairShareWeeks    int
	FairShareWeekends int

	EligibleSites   []string
	Allocation      map[string]float64
	Markers         []string
	UnavailableDays int
}

// ListProviders builds the registry and returns its providers in registry order,
// together with the exclusion summary
func ListProviders(inputs *Inputs, logger *zap.Logger) ([]ProviderView, map[string][]string, error) {
	registry, err := allocator.BuildRegistry(inputs.Registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build registry: %w", err)
	}

	views := make([]ProviderView, 0, len(registry.Providers))
	for _, p := range registry.Providers {
		views = append(views, ProviderView{
			Name:              p.Name,
			ShiftCategory:     p.ShiftCategory,
			FTE:               p.FTE,
			CapacityWeeks:     p.Capacity[allocator.Weekday],
			CapacityWeekends:  p.Capacity[allocator.Weekend],
			FairShareWeeks:    p.FairShare[allocator.Weekday],
			FairShareWeekends: p.FairShare[allocator.Weekend],
			EligibleSites:     p.EligibleSites,
			Allocation:        p.Allocation,
			Markers:           p.Markers.Labels(),
			UnavailableDays:   p.UnavailableDayCount(),
		})
	}

	logger.Debug("Listed providers",
		zap.Int("count", len(views)),
		zap.Int("excluded_reasons", len(registry.Excluded)))

	return views, registry.Excluded, nil
}
