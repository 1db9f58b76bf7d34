package admin

import (
	"fmt"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/pagination"
	"github.com/spf13/cobra"
)

// TokenCmd manages the bearer tokens that identify intranet users.
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage user tokens",
		Long:  "Issue, list, and revoke the bearer tokens that map requests to intranet users",
	}

	cmd.AddCommand(tokenIssueCmd())
	cmd.AddCommand(tokenListCmd())
	cmd.AddCommand(tokenRevokeCmd())

	return cmd
}

func tokenIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, _ := cmd.Flags().GetString("user")
			name, _ := cmd.Flags().GetString("name")

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			issued, err := rt.authService().IssueToken(ctx, userID, name)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			if outputJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"id":      issued.Key.ID,
					"user_id": issued.Key.UserID,
					"name":    issued.Key.Name,
					"token":   issued.Token,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token issued for user %s\n", issued.Key.UserID)
			fmt.Fprintf(out, "Token ID: %s\n", issued.Key.ID)
			fmt.Fprintf(out, "Token Name: %s\n", issued.Key.Name)
			fmt.Fprintf(out, "Token: %s\n", issued.Token)
			fmt.Fprintln(out, "\nSave this token now. It cannot be shown again.")
			return nil
		},
	}

	cmd.Flags().StringP("user", "u", "", "User ID (required)")
	cmd.Flags().StringP("name", "n", "", "Token name (required)")
	cmd.Flags().String("output", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func tokenListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, _ := cmd.Flags().GetString("user")

			after, err := pagination.Decode(cursor)
			if err != nil {
				return err
			}

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			page, err := rt.authService().ListTokens(ctx, userID, after, limit)
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}
			return printTokenPage(cmd, userID, page)
		},
	}

	cmd.Flags().StringP("user", "u", "", "User ID (required)")
	cmd.Flags().String("output", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", pagination.DefaultLimit, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func printTokenPage(cmd *cobra.Command, userID string, page *pagination.Page[*domain.UserToken]) error {
	if outputJSON(cmd) {
		items := make([]map[string]any, len(page.Items))
		for i, key := range page.Items {
			items[i] = map[string]any{
				"id":         key.ID,
				"name":       key.Name,
				"user_id":    key.UserID,
				"created_at": key.CreatedAt,
				"revoked_at": key.RevokedAt,
				"revoked":    key.IsRevoked(),
			}
		}
		return printJSON(cmd, map[string]any{
			"items":    items,
			"cursor":   page.NextCursor,
			"has_more": page.HasMore,
		})
	}

	out := cmd.OutOrStdout()
	if len(page.Items) == 0 {
		fmt.Fprintf(out, "No tokens found for user %s\n", userID)
		return nil
	}
	fmt.Fprintf(out, "Tokens for user %s:\n", userID)
	for _, key := range page.Items {
		status := "active"
		if key.IsRevoked() {
			status = "revoked"
		}
		fmt.Fprintf(out, "  %s: %s (%s, created: %s)\n", key.ID, key.Name, status, key.CreatedAt.Format(time.DateTime))
	}
	if page.HasMore {
		fmt.Fprintf(out, "\nMore results available. Use --cursor %s\n", page.NextCursor)
	}
	return nil
}

func tokenRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.authService().RevokeToken(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to revoke token: %w", err)
			}

			if outputJSON(cmd) {
				return printJSON(cmd, map[string]any{"id": args[0], "revoked": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token %s revoked\n", args[0])
			return nil
		},
	}

	cmd.Flags().String("output", "text", "Output format (text or json)")

	return cmd
}
