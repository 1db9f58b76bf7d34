package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rebuildResponse struct {
	Success bool   `json:"success"`
	Indexed int    `json:"indexed"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
	RunID   string `json:"run_id,omitempty"`
}

type indexRunResponse struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Trigger    string  `json:"trigger"`
	Total      int     `json:"total"`
	Indexed    int     `json:"indexed"`
	Failed     int     `json:"failed"`
	Error      string  `json:"error,omitempty"`
	StartedAt  string  `json:"started_at"`
	FinishedAt *string `json:"finished_at,omitempty"`
}

// IndexCmd groups the search index commands. Both require a token.
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the search index",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the search index from the content tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			var resp rebuildResponse
			if err := api.Post(cmd.Context(), "/search/index", nil, &resp); err != nil {
				return fmt.Errorf("rebuild failed: %w", err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d of %d items (%d failed)\n", resp.Indexed, resp.Total, resp.Failed)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the latest index rebuild",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			var run indexRunResponse
			if err := api.Get(cmd.Context(), "/search/index/status", &run); err != nil {
				return fmt.Errorf("failed to get index status: %w", err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd, run)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (%s, trigger %s)\n", run.ID, run.Status, run.Trigger)
			fmt.Fprintf(out, "Started: %s\n", run.StartedAt)
			if run.FinishedAt != nil {
				fmt.Fprintf(out, "Finished: %s\n", *run.FinishedAt)
			}
			fmt.Fprintf(out, "Indexed %d of %d items (%d failed)\n", run.Indexed, run.Total, run.Failed)
			if run.Error != "" {
				fmt.Fprintf(out, "Error: %s\n", run.Error)
			}
			return nil
		},
	})

	return cmd
}
