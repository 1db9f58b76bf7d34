package admin

import (
	"fmt"

	"github.com/cloo-solutions/intranet-search/internal/config"
	"github.com/cloo-solutions/intranet-search/internal/database"
	"github.com/spf13/cobra"
)

// MigrateCmd applies pending schema migrations.
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			source, _ := cmd.Flags().GetString("migrations")
			result, err := database.Migrate(cfg.DatabaseURL, source)
			if err != nil {
				return err
			}

			if result.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "migrations: applied successfully (version %d)\n", result.Version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "migrations: database is up to date (version %d)\n", result.Version)
			}
			return nil
		},
	}

	cmd.Flags().String("migrations", database.DefaultMigrationsURL, "Migration source URL")

	return cmd
}
