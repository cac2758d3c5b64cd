package vocab

// Strategy selects which predicate and ranking key a search runs with.
// Exactly one strategy runs per request.
type Strategy uint8

const (
	// StrategyExact matches name or code by case-insensitive substring and
	// ranks exact and prefix matches first.
	StrategyExact Strategy = iota
	// StrategyFuzzy matches names by trigram similarity (codes stay
	// substring-matched) and ranks by similarity score.
	StrategyFuzzy
	// StrategySemantic ranks stored concept embeddings by cosine similarity
	// to the embedded query.
	StrategySemantic
)

func (s Strategy) String() string {
	switch s {
	case StrategyFuzzy:
		return "fuzzy"
	case StrategySemantic:
		return "semantic"
	default:
		return "exact"
	}
}

// ResolveStrategy collapses the request flags into a single strategy.
// Semantic takes precedence over fuzzy; fuzzy over exact.
func ResolveStrategy(fuzzy, semantic bool) Strategy {
	switch {
	case semantic:
		return StrategySemantic
	case fuzzy:
		return StrategyFuzzy
	default:
		return StrategyExact
	}
}

// DefaultSearchLimit caps result sets when the caller does not pass a limit.
const DefaultSearchLimit = 50

// SearchRequest carries the raw, caller-supplied search parameters before
// normalization.
type SearchRequest struct {
	Query        string
	Fuzzy        bool
	Semantic     bool
	StandardOnly bool
	VocabularyID string
	DomainID     string
	Limit        int
}

// SearchQuery is a normalized search: trimmed query, resolved strategy, and
// positive limit. Build one with NormalizeSearch.
type SearchQuery struct {
	Query        string
	Strategy     Strategy
	StandardOnly bool
	VocabularyID string
	DomainID     string
	Limit        int
}

// SearchHit is one ranked search result. Score carries the trigram or cosine
// similarity for fuzzy/semantic strategies and is omitted for exact mode.
type SearchHit struct {
	Concept
	Score *float64 `gorm:"column:score" json:"score,omitempty"`
}

// SearchResult is the ranked page returned to callers, echoing the
// normalized query and the strategy that produced it.
type SearchResult struct {
	Query    string      `json:"query"`
	Strategy string      `json:"strategy"`
	Total    int         `json:"total"`
	Results  []SearchHit `json:"results"`
}

// AncestryHit is a hierarchy neighbor together with its closure distance.
type AncestryHit struct {
	Concept
	MinLevelsOfSeparation int `gorm:"column:min_levels_of_separation" json:"min_levels_of_separation"`
	MaxLevelsOfSeparation int `gorm:"column:max_levels_of_separation" json:"max_levels_of_separation"`
}

// RelatedHit is a mapping neighbor together with the relationship kind that
// produced it.
type RelatedHit struct {
	Concept
	RelationshipID string `gorm:"column:relationship_id" json:"relationship_id"`
}

// ConceptDetail bundles a concept with its graph neighborhood for display.
type ConceptDetail struct {
	Concept     Concept       `json:"concept"`
	Ancestors   []AncestryHit `json:"ancestors"`
	Descendants []AncestryHit `json:"descendants"`
	Related     []RelatedHit  `json:"related"`
}
