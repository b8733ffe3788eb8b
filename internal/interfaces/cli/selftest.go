package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

// NewSelfTestCmd creates the selftest command, running the built-in
// verification battery against the configured pattern store.
func NewSelfTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the built-in engine verification battery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			report, err := cliCtx.Service.SelfTest(cmd.Context())
			if err != nil {
				return err
			}
			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				if err := PrintResult(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, c := range report.Cases {
					status := "PASS"
					if !c.Passed {
						status = "FAIL"
					}
					fmt.Fprintf(out, "%s  %s", status, c.Name)
					if c.Detail != "" {
						fmt.Fprintf(out, " (%s)", c.Detail)
					}
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%d passed, %d failed\n", report.Passed, report.Failed)
			}

			if !report.OK() {
				return errors.Newf(errors.ErrCodeInternal, "self test failed: %d of %d cases", report.Failed, report.Passed+report.Failed)
			}
			return nil
		},
	}
	return cmd
}
