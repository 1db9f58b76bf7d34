package client

import (
	"github.com/cloo-solutions/intranet-search/internal/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the intranet client command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "intranet",
		Short: "Intranet search CLI",
		Long: `Intranet CLI queries and administers the intranet search service.

Environment variables:
  INTRANET_TOKEN     User token (optional for search, required for admin commands)
  INTRANET_API_URL   API base URL (default: http://localhost:8080)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("token", "", "User token (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(SearchCmd())
	rootCmd.AddCommand(IndexCmd())
	rootCmd.AddCommand(GapsCmd())
	rootCmd.AddCommand(AuthCmd())

	return rootCmd
}
