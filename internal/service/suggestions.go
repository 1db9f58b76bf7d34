package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"go.uber.org/zap"
)

const (
	alternativeCount      = 3
	maxRelatedSuggestions = 5
	minKeywordLength      = 4
)

const alternativesSystemPrompt = "Você é um assistente de busca da intranet corporativa. " +
	"Sugira reformulações curtas para buscas que não encontraram resultados."

const alternativesUserPrompt = "A busca \"%s\" não retornou resultados. " +
	"Sugira exatamente 3 buscas alternativas, corrigindo possíveis erros de digitação ou usando sinônimos. " +
	"Responda apenas com as 3 sugestões, uma por linha, sem numeração."

var stopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {}, "um": {}, "uma": {}, "uns": {}, "umas": {}, "de": {}, "da": {},
	"do": {}, "das": {}, "dos": {}, "em": {}, "na": {}, "no": {}, "nas": {}, "nos": {}, "por": {}, "para": {},
	"pra": {}, "com": {}, "sem": {}, "sobre": {}, "entre": {}, "como": {}, "qual": {}, "quais": {}, "quando": {},
	"onde": {}, "quem": {}, "porque": {}, "que": {}, "e": {}, "ou": {}, "mas": {}, "meu": {}, "minha": {},
	"seu": {}, "sua": {}, "isso": {}, "esse": {}, "essa": {}, "este": {}, "esta": {}, "ser": {}, "estar": {},
	"tem": {}, "fazer": {}, "posso": {}, "preciso": {},
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)])\s*`)

var typeTemplates = map[domain.ContentType]string{
	domain.ContentTypeAnnouncement: "comunicado sobre %s",
	domain.ContentTypeTraining:     "treinamento sobre %s",
	domain.ContentTypeManual:       "manual de %s",
	domain.ContentTypeChecklist:    "checklist de %s",
	domain.ContentTypeIdea:         "ideias sobre %s",
	domain.ContentTypeCampaign:     "campanha de %s",
	domain.ContentTypeFeedPost:     "publicações sobre %s",
}

func (s *SearchService) suggest(ctx context.Context, logger *zap.Logger, query string, results []*SearchResult) []string {
	if len(results) > 0 {
		return relatedSuggestions(query, results)
	}
	return s.alternativeQueries(ctx, logger, query)
}

// alternativeQueries always returns exactly three suggestions, falling back
// to templates when the chat API is absent or fails.
func (s *SearchService) alternativeQueries(ctx context.Context, logger *zap.Logger, query string) []string {
	if s.completion == nil {
		return fallbackSuggestions(query)
	}

	content, err := s.completion.Complete(ctx, alternativesSystemPrompt, fmt.Sprintf(alternativesUserPrompt, query))
	if err != nil {
		logger.Warn("failed to generate alternative queries", zap.Error(err))
		return fallbackSuggestions(query)
	}

	return padSuggestions(query, parseSuggestionLines(content))
}

func fallbackSuggestions(query string) []string {
	return []string{
		query + " manual",
		query + " treinamento",
		"como " + query,
	}
}

// parseSuggestionLines splits a completion into suggestions, stripping list
// markers and quotes.
func parseSuggestionLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = listMarker.ReplaceAllString(line, "")
		line = strings.Trim(line, "\"'“”")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func padSuggestions(query string, candidates []string) []string {
	seen := map[string]struct{}{strings.ToLower(query): {}}
	out := make([]string, 0, alternativeCount)

	add := func(candidate string) {
		if len(out) >= alternativeCount {
			return
		}
		key := strings.ToLower(candidate)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, candidate)
	}

	for _, c := range candidates {
		add(c)
	}
	for _, c := range fallbackSuggestions(query) {
		add(c)
	}
	return out
}

// relatedSuggestions pairs the query keyword with each distinct content type
// present in results, in result order.
func relatedSuggestions(query string, results []*SearchResult) []string {
	keyword := firstKeyword(query)
	if keyword == "" {
		return []string{}
	}

	seen := make(map[domain.ContentType]struct{})
	out := make([]string, 0, maxRelatedSuggestions)
	for _, r := range results {
		if len(out) >= maxRelatedSuggestions {
			break
		}
		if _, ok := seen[r.ContentType]; ok {
			continue
		}
		seen[r.ContentType] = struct{}{}
		template, ok := typeTemplates[r.ContentType]
		if !ok {
			continue
		}
		out = append(out, fmt.Sprintf(template, keyword))
	}
	return out
}

// firstKeyword returns the first word longer than three characters that is
// not a stopword.
func firstKeyword(query string) string {
	for _, token := range strings.FieldsFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) {
		clean := strings.ToLower(token)
		if utf8.RuneCountInString(clean) < minKeywordLength {
			continue
		}
		if _, ok := stopwords[clean]; ok {
			continue
		}
		return clean
	}
	return ""
}
