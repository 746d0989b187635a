package commands

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/block-scheduler/pkg/core/services"
	"github.com/jakechorley/block-scheduler/pkg/export"
)

// GenerateBlockCmd creates the generateBlock command
func GenerateBlockCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateBlock",
		Short: "Generate draft schedules for the configured block, one per seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seedValues, _ := cmd.Flags().GetStringSlice("seeds")
			outputDir, _ := cmd.Flags().GetString("output")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			seeds, err := parseSeeds(seedValues)
			if err != nil {
				return err
			}
			if len(seeds) == 0 {
				seeds = app.Cfg.Seeds
			}
			if outputDir == "" {
				outputDir = app.Cfg.OutputDir
			}

			app.Logger.Debug("generateBlock command",
				zap.Uint64s("seeds", seeds),
				zap.String("output", outputDir),
				zap.Bool("dry_run", dryRun))

			inputs, err := app.LoadInputs()
			if err != nil {
				return err
			}

			results, err := services.GenerateBlock(app.Ctx, inputs, seeds, app.Logger)
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(titleStyle.Render(fmt.Sprintf("Block %s to %s", app.Cfg.Block.Start, app.Cfg.Block.End)))
			fmt.Println(renderComparison(results))

			if len(results[0].Warnings) > 0 {
				fmt.Println(warnStyle.Render(fmt.Sprintf("%d input warnings (run validateInputs for details)", len(results[0].Warnings))))
			}

			if dryRun {
				fmt.Println(dimStyle.Render("Dry run: no files written"))
			} else {
				for _, result := range results {
					paths, err := export.WriteVariation(outputDir, result)
					if err != nil {
						return err
					}
					app.Logger.Debug("Variation written", zap.Uint64("seed", result.Seed), zap.Strings("files", paths))
				}
				path, err := export.WriteComparison(outputDir, results)
				if err != nil {
					return err
				}
				fmt.Printf("Reports written to %s (%s)\n", outputDir, path)
			}

			failed := 0
			for _, result := range results {
				failed += len(result.Outcome.ValidationErrors)
			}
			if failed > 0 {
				fmt.Println(errorStyle.Render(fmt.Sprintf("✗ %d validation errors; see the log for details", failed)))
				return fmt.Errorf("%d validation errors across %d variations", failed, len(results))
			}

			fmt.Println(successStyle.Render("✓ All variations passed validation"))
			return nil
		},
	}

	cmd.Flags().StringSlice("seeds", nil, "Seeds to run, e.g. 42,7,99 (defaults to the config seeds)")
	cmd.Flags().String("output", "", "Directory for report files (defaults to the config outputDir)")
	cmd.Flags().Bool("dry-run", false, "Run without writing report files")

	return cmd
}

var comparisonHeaders = []string{"Seed", "Assignments", "Gaps", "Zero-gap gaps", "Coverage %", "Swaps", "Valid"}

func comparisonRows(results []services.VariationResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		stats := r.Outcome.Stats
		valid := "yes"
		if len(r.Outcome.ValidationErrors) > 0 {
			valid = fmt.Sprintf("%d errors", len(r.Outcome.ValidationErrors))
		}
		rows = append(rows, []string{
			strconv.FormatUint(r.Seed, 10),
			strconv.Itoa(stats.Assignments),
			strconv.Itoa(stats.TotalGaps),
			strconv.Itoa(stats.ZeroGapGaps),
			strconv.FormatFloat(stats.CoveragePct, 'f', 1, 64),
			strconv.Itoa(stats.Swaps),
			valid,
		})
	}
	return rows
}

func renderComparison(results []services.VariationResult) string {
	return renderTable(comparisonHeaders, comparisonRows(results), func(row, col int) (lipgloss.Style, bool) {
		if row < 0 || row >= len(results) {
			return lipgloss.Style{}, false
		}
		outcome := results[row].Outcome
		switch {
		case col == 3 && outcome.Stats.ZeroGapGaps > 0:
			return errorStyle, true
		case col == 6 && len(outcome.ValidationErrors) > 0:
			return errorStyle, true
		}
		return lipgloss.Style{}, false
	})
}
