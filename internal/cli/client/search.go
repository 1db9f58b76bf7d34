package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/spf13/cobra"
)

type searchFilters struct {
	ContentTypes []string `json:"contentTypes,omitempty"`
}

// SearchRequest mirrors the POST /search body.
type SearchRequest struct {
	Query   string         `json:"query"`
	Filters *searchFilters `json:"filters,omitempty"`
	Limit   int            `json:"limit,omitempty"`
}

// SearchResult is one ranked result.
type SearchResult struct {
	ContentType    string          `json:"content_type"`
	ContentID      string          `json:"content_id"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	Source         string          `json:"source"`
	RelevanceScore float64         `json:"relevance_score"`
}

// SearchResponse mirrors the POST /search response.
type SearchResponse struct {
	Results        []SearchResult `json:"results"`
	Suggestions    []string       `json:"suggestions"`
	Count          int            `json:"count"`
	LatencyMs      int64          `json:"latency_ms"`
	Degraded       bool           `json:"degraded"`
	DegradedReason string         `json:"degraded_reason,omitempty"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		contentTypes []string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search intranet content",
		Long:  "Runs a hybrid semantic and keyword search across announcements, trainings, manuals, checklists, ideas, campaigns and pinned posts.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			req := SearchRequest{Query: strings.Join(args, " "), Limit: limit}
			if len(contentTypes) > 0 {
				req.Filters = &searchFilters{ContentTypes: contentTypes}
			}

			var resp SearchResponse
			if err := api.Post(cmd.Context(), "/search", req, &resp); err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return printSearch(cmd, &resp)
		},
	}

	cmd.Flags().StringSliceVarP(&contentTypes, "type", "t", nil, "Filter by content type (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")

	return cmd
}

func printSearch(cmd *cobra.Command, resp *SearchResponse) error {
	if wantJSON(cmd) {
		return printJSON(cmd, resp)
	}

	out := cmd.OutOrStdout()
	if resp.Degraded {
		fmt.Fprintf(out, "Warning: results are partial (%s)\n\n", resp.DegradedReason)
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No results found.")
		if len(resp.Suggestions) > 0 {
			fmt.Fprintln(out, "\nTry searching for:")
			for _, s := range resp.Suggestions {
				fmt.Fprintf(out, "  - %s\n", s)
			}
		}
		return nil
	}

	fmt.Fprintf(out, "Found %d results in %dms:\n\n", resp.Count, resp.LatencyMs)
	for i, r := range resp.Results {
		fmt.Fprintf(out, "%d. [%s] %s (%.2f, %s)\n", i+1, r.ContentType, r.Title, r.RelevanceScore, r.Source)
		if r.Content != "" {
			fmt.Fprintf(out, "   %s\n", truncate(r.Content, 100))
		}
		if details := metadataSummary(r.ContentType, r.Metadata); details != "" {
			fmt.Fprintf(out, "   %s\n", details)
		}
		fmt.Fprintf(out, "   ID: %s\n", r.ContentID)
		if i < len(resp.Results)-1 {
			fmt.Fprintln(out, strings.Repeat("-", 40))
		}
	}

	if len(resp.Suggestions) > 0 {
		fmt.Fprintf(out, "\nRelated: %s\n", strings.Join(resp.Suggestions, ", "))
	}
	return nil
}

// metadataSummary renders the few metadata fields worth showing in a
// terminal. Unknown types or malformed metadata yield an empty string.
func metadataSummary(contentType string, raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	md, err := domain.DecodeMetadata(domain.ContentType(contentType), raw)
	if err != nil {
		return ""
	}

	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	switch m := md.(type) {
	case *domain.AnnouncementMetadata:
		add("Priority", m.Priority)
		add("Units", strings.Join(m.TargetUnits, ", "))
	case *domain.TrainingMetadata:
		add("Category", m.Category)
		if m.DurationMinutes > 0 {
			add("Duration", fmt.Sprintf("%d min", m.DurationMinutes))
		}
	case *domain.ManualMetadata:
		add("Category", m.Category)
		add("Version", m.Version)
	case *domain.ChecklistMetadata:
		add("Category", m.Category)
	case *domain.IdeaMetadata:
		add("Category", m.Category)
		add("Status", m.Status)
	case *domain.CampaignMetadata:
		if m.EndsAt != nil {
			add("Ends", m.EndsAt.Format("2006-01-02"))
		}
	case *domain.FeedPostMetadata:
		add("Tags", strings.Join(m.Tags, ", "))
	}
	return strings.Join(parts, " | ")
}
