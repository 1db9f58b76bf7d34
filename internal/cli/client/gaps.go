package client

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

type contentGap struct {
	ID             string `json:"id"`
	Term           string `json:"term"`
	SearchCount    int    `json:"search_count"`
	PriorityScore  int    `json:"priority_score"`
	Status         string `json:"status"`
	LastSearchedAt string `json:"last_searched_at"`
	CreatedAt      string `json:"created_at"`
}

type gapExport struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// GapsCmd groups the content-gap review commands.
func GapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gaps",
		Aliases: []string{"content-gaps"},
		Short:   "Review search terms that returned no results",
	}

	cmd.AddCommand(gapsListCmd())
	cmd.AddCommand(gapsUpdateCmd())
	cmd.AddCommand(gapsExportCmd())

	return cmd
}

func gapsListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List content gaps by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			query := url.Values{}
			if status != "" {
				query.Set("status", status)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			path := "/content-gaps"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var gaps []contentGap
			if err := api.Get(cmd.Context(), path, &gaps); err != nil {
				return fmt.Errorf("failed to list content gaps: %w", err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd, gaps)
			}

			out := cmd.OutOrStdout()
			if len(gaps) == 0 {
				fmt.Fprintln(out, "No content gaps found.")
				return nil
			}
			for _, g := range gaps {
				fmt.Fprintf(out, "%s  %-10s  priority %-4d searches %-4d  %s\n", g.ID, g.Status, g.PriorityScore, g.SearchCount, g.Term)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (pending, planned, resolved, dismissed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results")

	return cmd
}

func gapsUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <status>",
		Short: "Move a content gap to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			var gap contentGap
			body := map[string]string{"status": args[1]}
			if err := api.Patch(cmd.Context(), "/content-gaps/"+url.PathEscape(args[0]), body, &gap); err != nil {
				return fmt.Errorf("failed to update content gap: %w", err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd, gap)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Content gap %q is now %s\n", gap.Term, gap.Status)
			return nil
		},
	}
}

func gapsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export open content gaps as CSV to object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			var export gapExport
			if err := api.Post(cmd.Context(), "/content-gaps/export", nil, &export); err != nil {
				return fmt.Errorf("failed to export content gaps: %w", err)
			}
			if wantJSON(cmd) {
				return printJSON(cmd, export)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d content gaps to %s\n", export.Count, export.Key)
			fmt.Fprintf(out, "Download: %s\n", export.URL)
			return nil
		},
	}
}
