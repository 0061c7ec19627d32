package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminName     string
	adminPassword string
)

// createAdminCmd creates an admin account; admins cannot sign up through the API
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Create an admin account. Admins cannot register through the API.

Examples:
  marketctl create-admin --email ops@example.com --name "Ops" --password 's3cret-pass'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Services.Identity.CreateAdmin(ctx, adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"id": user.ID.String(), "email": user.Email})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (%s)\n", user.Email, user.ID)
		return nil
	},
}

// approveSellerCmd approves a pending seller
var approveSellerCmd = &cobra.Command{
	Use:   "approve-seller <seller-id>",
	Short: "Approve a pending seller",
	Args:  cobra.ExactArgs(1),
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

		user, err := a.Services.Sellers.Approve(ctx, sellerID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"id": user.ID.String(), "status": string(user.Status)})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seller %s is %s\n", user.Email, user.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd, approveSellerCmd)

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "Admin display name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("password")
}
