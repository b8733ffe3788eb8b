package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
)

// NewAnalyzeCmd creates the analyze command.  One line item runs a single
// analysis; several run as a batch, output aligned with the input order.
func NewAnalyzeCmd() *cobra.Command {
	var carrierName string

	cmd := &cobra.Command{
		Use:   "analyze <line item> [line item...]",
		Short: "Score line items against a carrier's underpayment patterns",
		Long:  "Analyze one or more claim line items against the named carrier's known\nunderpayment patterns. Items with no matching pattern report NONE.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				insight, err := cliCtx.Service.AnalyzeItem(cmd.Context(), carrierName, args[0])
				if err != nil {
					return err
				}
				if insight == nil {
					return PrintResult(cmd, fmt.Sprintf("%s: no known underpayment pattern", args[0]))
				}
				return printInsight(cmd, cliCtx, insight)
			}

			insights, err := cliCtx.Service.AnalyzeItems(cmd.Context(), carrierName, args)
			if err != nil {
				return err
			}
			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, insights)
			}
			rows := make([][]string, 0, len(insights))
			for i, insight := range insights {
				rows = append(rows, insightRow(args[i], insight))
			}
			fmt.Fprint(cmd.OutOrStdout(), FormatTable(
				[]string{"ITEM", "SEVERITY", "VARIANCE", "CONFIDENCE", "SAMPLE"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&carrierName, "carrier", "", "insurance carrier name [REQUIRED]")
	cmd.MarkFlagRequired("carrier")

	return cmd
}

func printInsight(cmd *cobra.Command, cliCtx *CLIContext, insight *underpay.CarrierInsight) error {
	if strings.EqualFold(cliCtx.OutputFormat, "json") {
		return PrintResult(cmd, insight)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", insight.Message)
	fmt.Fprintf(out, "  severity:    %s\n", insight.Severity)
	fmt.Fprintf(out, "  variance:    %.1f%%\n", insight.Variance)
	fmt.Fprintf(out, "  confidence:  %.1f (%s, n=%d)\n", insight.Confidence.AdjustedConfidence, insight.Confidence.Level, insight.SampleSize)
	fmt.Fprintf(out, "  match score: %.2f\n", insight.MatchScore)
	fmt.Fprintf(out, "  action:      %s\n", insight.Recommendation)
	return nil
}

func insightRow(item string, insight *underpay.CarrierInsight) []string {
	if insight == nil {
		return []string{item, string(underpay.SeverityNone), "-", "-", "-"}
	}
	return []string{
		item,
		string(insight.Severity),
		fmt.Sprintf("%.1f%%", insight.Variance),
		fmt.Sprintf("%.1f", insight.Confidence.AdjustedConfidence),
		fmt.Sprintf("%d", insight.SampleSize),
	}
}
