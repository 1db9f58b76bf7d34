package admin

import (
	"fmt"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"github.com/spf13/cobra"
)

// ReindexCmd rebuilds the search index once, without the HTTP server.
func ReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index",
		Long:  "Replace the search index with a fresh projection of every visible content row",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			var embedding service.EmbeddingClient
			if client := rt.openAIClient(); client != nil {
				embedding = client
			}

			result, err := rt.indexService(embedding).Rebuild(ctx, domain.IndexRunTriggerCLI)
			if err != nil {
				return fmt.Errorf("rebuild failed: %w", err)
			}

			if outputJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"run_id":      result.RunID,
					"total":       result.Total,
					"indexed":     result.Indexed,
					"failed":      result.Failed,
					"duration_ms": result.Duration.Milliseconds(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d of %d items (%d failed) in %s\n",
				result.Indexed, result.Total, result.Failed, result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().String("output", "text", "Output format (text or json)")

	return cmd
}
