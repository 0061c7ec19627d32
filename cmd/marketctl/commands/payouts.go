package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
)

var (
	payoutStatus string
	payoutLimit  int
)

// payoutsCmd groups payout operations
var payoutsCmd = &cobra.Command{
	Use:   "payouts",
	Short: "List and process seller payouts",
	Long: `List and process seller payouts.

Subcommands:
  list     - List payouts, newest first
  process  - Send a pending payout to the gateway`,
}

var payoutsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payouts",
	Long: `List payouts, newest first.

Examples:
  marketctl payouts list                    # Latest payouts
  marketctl payouts list --status pending   # Payouts waiting to be processed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		filter := repository.PayoutFilter{Page: repository.Page{Page: 1, Limit: payoutLimit}.Normalize()}
		if payoutStatus != "" {
			status := domain.PayoutStatus(payoutStatus)
			filter.Status = &status
		}
		page, err := a.Services.Wallets.ListPayouts(ctx, filter)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), page)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSELLER\tAMOUNT\tSTATUS\tREQUESTED")
		for _, p := range page.Items {
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n",
				p.ID, p.SellerID, p.Amount.StringFixed(2), p.Currency, p.Status, p.CreatedAt.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d payouts\n", len(page.Items), page.Total)
		return nil
	},
}

var payoutsProcessCmd = &cobra.Command{
	Use:   "process <payout-id>",
	Short: "Send a pending payout to the gateway",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payoutID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid payout id %q: %w", args[0], err)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Services.Wallets.ProcessPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Payout %s is %s\n", p.ID, p.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(payoutsCmd)
	payoutsCmd.AddCommand(payoutsListCmd, payoutsProcessCmd)

	payoutsListCmd.Flags().StringVar(&payoutStatus, "status", "", "Filter by status (pending, processing, completed, failed)")
	payoutsListCmd.Flags().IntVar(&payoutLimit, "limit", repository.DefaultPageLimit, "Maximum rows to show")
}
