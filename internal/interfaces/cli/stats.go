package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.  With a carrier argument it rolls
// up that carrier's history; without one it ranks the whole portfolio.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [carrier]",
		Short: "Show carrier or portfolio underpayment statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				stats, err := cliCtx.Service.CarrierStatistics(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if strings.EqualFold(cliCtx.OutputFormat, "json") {
					return PrintResult(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n", stats.CarrierName)
				fmt.Fprintf(out, "  patterns:         %d\n", stats.PatternCount)
				fmt.Fprintf(out, "  avg underpayment: %.2f%%\n", stats.AvgUnderpaymentRate)
				fmt.Fprintf(out, "  avg frequency:    %.2f\n", stats.AvgFrequency)
				fmt.Fprintf(out, "  avg confidence:   %.1f\n", stats.AvgConfidence)
				fmt.Fprintf(out, "  risk score:       %d\n", stats.RiskScore)
				fmt.Fprintf(out, "  trend:            %s\n", stats.Trend)
				if stats.PrimaryStrategy != "" {
					fmt.Fprintf(out, "  primary strategy: %s\n", stats.PrimaryStrategy)
				}
				return nil
			}

			portfolio, err := cliCtx.Service.PortfolioStatistics(cmd.Context())
			if err != nil {
				return err
			}
			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, portfolio)
			}

			rows := make([][]string, 0, len(portfolio.Carriers))
			for _, s := range portfolio.Carriers {
				rows = append(rows, []string{
					s.CarrierName,
					fmt.Sprintf("%d", s.PatternCount),
					fmt.Sprintf("%.2f%%", s.AvgUnderpaymentRate),
					fmt.Sprintf("%d", s.RiskScore),
					string(s.Trend),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, FormatTable(
				[]string{"CARRIER", "PATTERNS", "AVG UNDERPAYMENT", "RISK", "TREND"},
				rows,
			))
			fmt.Fprintf(out, "\n%d patterns across %d carriers\n", portfolio.TotalPatterns, len(portfolio.Carriers))
			return nil
		},
	}
	return cmd
}
