package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepsake/internal/summary"
)

func (a *app) summaryCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show this month's figures, or a year's totals with --year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}

			if year != 0 {
				stats, err := summary.Annual(cmd.Context(), st, year)
				if err != nil {
					return a.fail(err)
				}
				if a.flags.jsonMode {
					return a.fail(writeJSON(a.stdout, stats))
				}
				renderAnnual(a.stdout, stats)
				return nil
			}

			stats, err := summary.Home(cmd.Context(), st, time.Now())
			if err != nil {
				return a.fail(err)
			}
			if a.flags.jsonMode {
				return a.fail(writeJSON(a.stdout, stats))
			}
			renderHome(a.stdout, stats)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "report totals for this year")
	return cmd
}
