package commands

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/block-scheduler/pkg/core/services"
)

// ListProvidersCmd creates the listProviders command
func ListProvidersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listProviders",
		Short: "List schedulable providers with their capacity and eligible sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := app.LoadInputs()
			if err != nil {
				return err
			}

			views, excluded, err := services.ListProviders(inputs, app.Logger)
			if err != nil {
				return err
			}
			app.Logger.Info("Providers listed", zap.Int("count", len(views)))

			fmt.Printf("\nFound %d schedulable providers:\n\n", len(views))
			fmt.Println(renderTable(providerHeaders, providerRows(views), func(row, col int) (lipgloss.Style, bool) {
				if row >= 0 && row < len(views) && col == 5 && len(views[row].EligibleSites) == 0 {
					return errorStyle, true
				}
				return lipgloss.Style{}, false
			}))

			for _, reason := range slices.Sorted(maps.Keys(excluded)) {
				fmt.Println(dimStyle.Render(fmt.Sprintf("Excluded (%s): %s", reason, strings.Join(excluded[reason], "; "))))
			}
			return nil
		},
	}
}

var providerHeaders = []string{"Provider", "Shift", "FTE", "Weeks (fair/cap)", "Weekends (fair/cap)", "Eligible sites", "Markers", "Days off"}

func providerRows(views []services.ProviderView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.Name,
			orDash(v.ShiftCategory),
			formatFloat(v.FTE),
			fmt.Sprintf("%d/%d", v.FairShareWeeks, v.CapacityWeeks),
			fmt.Sprintf("%d/%d", v.FairShareWeekends, v.CapacityWeekends),
			orDash(strings.Join(v.EligibleSites, ", ")),
			orDash(strings.Join(v.Markers, ", ")),
			strconv.Itoa(v.UnavailableDays),
		})
	}
	return rows
}
