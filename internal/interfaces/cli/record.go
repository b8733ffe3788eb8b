package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
)

// NewRecordCmd creates the record command, folding one completed audit
// outcome into the pattern store.
func NewRecordCmd() *cobra.Command {
	var (
		carrierName string
		item        string
		claimPrice  float64
		marketPrice float64
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a completed audit outcome",
		Long:  "Record the carrier-paid and market price for one audited line item.\nThe observation reweights the carrier's pattern, or creates a new one\nfor a previously unseen item.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			update, err := cliCtx.Service.RecordAuditOutcome(cmd.Context(), &underpay.AuditOutcome{
				Carrier:     carrierName,
				ItemName:    item,
				ClaimPrice:  claimPrice,
				MarketPrice: marketPrice,
			})
			if err != nil {
				return err
			}
			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, update)
			}

			out := cmd.OutOrStdout()
			verb := "reweighted"
			if update.Created {
				verb = "created"
			}
			fmt.Fprintf(out, "pattern %s: %s / %s\n", verb, update.Pattern.CarrierName, update.Pattern.LineItemDescription)
			fmt.Fprintf(out, "  observed variance: %.1f%%\n", update.Variance)
			fmt.Fprintf(out, "  underpayment rate: %.2f%% over %d observations\n", update.Pattern.UnderpaymentRate, update.Pattern.HistoricalCount)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&carrierName, "carrier", "", "insurance carrier name [REQUIRED]")
	f.StringVar(&item, "item", "", "line item description [REQUIRED]")
	f.Float64Var(&claimPrice, "claim-price", 0, "amount the carrier paid [REQUIRED]")
	f.Float64Var(&marketPrice, "market-price", 0, "fair market price [REQUIRED]")
	cmd.MarkFlagRequired("carrier")
	cmd.MarkFlagRequired("item")
	cmd.MarkFlagRequired("claim-price")
	cmd.MarkFlagRequired("market-price")

	return cmd
}
