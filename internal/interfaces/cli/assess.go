package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewAssessCmd creates the assess command, folding all line items of one
// claim into a claim-level risk verdict.
func NewAssessCmd() *cobra.Command {
	var carrierName string

	cmd := &cobra.Command{
		Use:   "assess <line item> [line item...]",
		Short: "Assess claim-level underpayment risk",
		Long:  "Assess an entire claim: every line item is matched against the carrier's\nunderpayment patterns and the results fold into an overall risk verdict\nwith a prioritized list of items to audit.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			assessment, err := cliCtx.Service.AssessClaim(cmd.Context(), carrierName, args)
			if err != nil {
				return err
			}
			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, assessment)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", assessment.ActionSummary)
			fmt.Fprintf(out, "  overall risk:   %s\n", assessment.OverallRisk)
			fmt.Fprintf(out, "  items matched:  %d of %d\n", assessment.MatchedCount, assessment.ItemCount)
			fmt.Fprintf(out, "  total variance: %.1f\n", assessment.TotalVariance)
			if len(assessment.PriorityItems) > 0 {
				fmt.Fprintln(out, "  priority items:")
				for _, insight := range assessment.PriorityItems {
					fmt.Fprintf(out, "    [%s] %s (%.1f%%)\n", insight.Severity, insight.LineItemDescription, insight.Variance)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&carrierName, "carrier", "", "insurance carrier name [REQUIRED]")
	cmd.MarkFlagRequired("carrier")

	return cmd
}
