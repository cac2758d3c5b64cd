package vocab

import "strings"

// NormalizeSearch turns raw request parameters into a runnable SearchQuery:
// the query is whitespace-trimmed, the strategy flags collapse into one
// Strategy, and a non-positive limit falls back to DefaultSearchLimit.
// A query that trims to empty stays empty; callers short-circuit on it
// instead of treating it as an error.
func NormalizeSearch(req SearchRequest) SearchQuery {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return SearchQuery{
		Query:        strings.TrimSpace(req.Query),
		Strategy:     ResolveStrategy(req.Fuzzy, req.Semantic),
		StandardOnly: req.StandardOnly,
		VocabularyID: strings.TrimSpace(req.VocabularyID),
		DomainID:     strings.TrimSpace(req.DomainID),
		Limit:        limit,
	}
}
