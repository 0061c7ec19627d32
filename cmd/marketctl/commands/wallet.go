package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// walletCmd groups wallet maintenance
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet maintenance",
}

var walletVerifyCmd = &cobra.Command{
	Use:   "verify <seller-id>",
	Short: "Check a wallet against its transaction log",
	Long: `Recompute a seller's balance from completed wallet transactions and compare it
with the stored balance, earnings and withdrawn totals. Exits non-zero on mismatch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sellerID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid seller id %q: %w", args[0], err)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Services.Wallets.VerifyLedger(ctx, sellerID)
		if err != nil {
			return err
		}
		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Balance:         %s\n", report.Balance.StringFixed(2))
			fmt.Fprintf(out, "Total earnings:  %s\n", report.TotalEarnings.StringFixed(2))
			fmt.Fprintf(out, "Total withdrawn: %s\n", report.TotalWithdrawn.StringFixed(2))
			fmt.Fprintf(out, "Credits:         %s\n", report.Credits.StringFixed(2))
			fmt.Fprintf(out, "Debits:          %s\n", report.Debits.StringFixed(2))
		}
		if !report.Consistent {
			return fmt.Errorf("wallet for seller %s does not match its transactions", sellerID)
		}
		if !jsonOutput {
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletVerifyCmd)
}
