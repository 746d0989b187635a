package commands

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/block-scheduler/pkg/core/services"
)

// ValidateInputsCmd creates the validateInputs command
func ValidateInputsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validateInputs",
		Short: "Check the input tables without allocating anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("validateInputs command")

			inputs, err := app.LoadInputs()
			if err != nil {
				return err
			}

			report, err := services.ValidateInputs(app.Ctx, inputs, app.Logger)
			if err != nil {
				return err
			}

			fmt.Print(formatReport(report))
			return nil
		},
	}
}

func formatReport(report *services.InputReport) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Inputs"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Providers:      %d\n", report.Providers)
	fmt.Fprintf(&b, "  Sites:          %d\n", report.Sites)
	fmt.Fprintf(&b, "  Periods:        %d\n", report.Periods)
	fmt.Fprintf(&b, "  Conflict pairs: %d\n\n", report.ConflictPairs)

	if report.WarningCount() == 0 {
		b.WriteString(successStyle.Render("✓ No warnings"))
		b.WriteString("\n")
	} else {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Warnings (%d)", report.WarningCount())))
		b.WriteString("\n")
		for _, kind := range report.Kinds {
			warnings := report.Warnings[kind]
			fmt.Fprintf(&b, "  %s (%d)\n", kind, len(warnings))
			for _, w := range warnings {
				fmt.Fprintf(&b, "    - %s: %s\n", w.Subject, w.Detail)
			}
		}
	}

	if len(report.Excluded) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Excluded providers"))
		b.WriteString("\n")
		for _, reason := range slices.Sorted(maps.Keys(report.Excluded)) {
			fmt.Fprintf(&b, "  %s: %s\n", reason, strings.Join(report.Excluded[reason], "; "))
		}
	}

	return b.String()
}
