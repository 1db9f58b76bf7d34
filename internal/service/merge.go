package service

import (
	"sort"

	"github.com/cloo-solutions/intranet-search/internal/domain"
)

// mergeHits takes every vector hit, then lexical hits not already present
// until the list reaches limit. The result is ordered by descending score
// with vector results first on ties, and holds at most limit items.
func mergeHits(vector, text []*SearchHit, limit int) []*SearchResult {
	seen := make(map[string]struct{}, len(vector)+len(text))
	results := make([]*SearchResult, 0, limit)

	for _, h := range vector {
		if h == nil {
			continue
		}
		key := domain.ResultKey(h.ContentType, h.ContentID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		score := DefaultVectorScore
		if h.Similarity != nil {
			score = *h.Similarity
		}
		results = append(results, newSearchResult(h, SourceVector, score))
	}

	for _, h := range text {
		if len(results) >= limit {
			break
		}
		if h == nil {
			continue
		}
		key := domain.ResultKey(h.ContentType, h.ContentID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, newSearchResult(h, SourceText, TextScore))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].Source == SourceVector && results[j].Source == SourceText
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func newSearchResult(h *SearchHit, source ResultSource, score float64) *SearchResult {
	metadata := h.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}
	return &SearchResult{
		ContentType:    h.ContentType,
		ContentID:      h.ContentID,
		Title:          h.Title,
		Content:        h.Content,
		Metadata:       metadata,
		Source:         source,
		RelevanceScore: score,
	}
}
