package vocab

import (
	"sort"
	"strings"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
)

// The repo SQL orders candidates before LIMIT so the right page comes back;
// the comparators here re-apply the identical ordering in Go so the ranking
// callers observe never depends on database collation.

type lexicalKey struct {
	codeEq     bool
	nameEq     bool
	codePrefix bool
	namePrefix bool
	standard   bool
}

func lexicalKeyFor(c types.Concept, loweredQuery string) lexicalKey {
	code := strings.ToLower(c.ConceptCode)
	name := strings.ToLower(c.ConceptName)
	return lexicalKey{
		codeEq:     code == loweredQuery,
		nameEq:     name == loweredQuery,
		codePrefix: strings.HasPrefix(code, loweredQuery),
		namePrefix: strings.HasPrefix(name, loweredQuery),
		standard:   c.IsStandard(),
	}
}

// compareBool orders true before false.
func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return -1
	}
	return 1
}

// compareNameID is the final tie-break everywhere: name ascending bytewise,
// then concept id ascending.
func compareNameID(a, b types.Concept) int {
	if c := strings.Compare(a.ConceptName, b.ConceptName); c != 0 {
		return c
	}
	switch {
	case a.ConceptID < b.ConceptID:
		return -1
	case a.ConceptID > b.ConceptID:
		return 1
	}
	return 0
}

func scoreOf(h types.SearchHit) float64 {
	if h.Score == nil {
		return 0
	}
	return *h.Score
}

// sortLexicalHits applies the exact-strategy ranking: code equality, name
// equality, code prefix, name prefix, standard concepts first, then name and
// id ascending. Matching is case-insensitive except the final name tie-break.
func sortLexicalHits(hits []types.SearchHit, query string) {
	lq := strings.ToLower(strings.TrimSpace(query))
	keys := make(map[int64]lexicalKey, len(hits))
	for _, h := range hits {
		keys[h.ConceptID] = lexicalKeyFor(h.Concept, lq)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		ka, kb := keys[hits[i].ConceptID], keys[hits[j].ConceptID]
		if c := compareBool(ka.codeEq, kb.codeEq); c != 0 {
			return c < 0
		}
		if c := compareBool(ka.nameEq, kb.nameEq); c != 0 {
			return c < 0
		}
		if c := compareBool(ka.codePrefix, kb.codePrefix); c != 0 {
			return c < 0
		}
		if c := compareBool(ka.namePrefix, kb.namePrefix); c != 0 {
			return c < 0
		}
		if c := compareBool(ka.standard, kb.standard); c != 0 {
			return c < 0
		}
		return compareNameID(hits[i].Concept, hits[j].Concept) < 0
	})
}

// sortTrigramHits applies the fuzzy-strategy ranking: exact code matches
// first, then trigram similarity descending, then name and id ascending.
func sortTrigramHits(hits []types.SearchHit, query string) {
	lq := strings.ToLower(strings.TrimSpace(query))
	sort.SliceStable(hits, func(i, j int) bool {
		codeEqI := strings.ToLower(hits[i].ConceptCode) == lq
		codeEqJ := strings.ToLower(hits[j].ConceptCode) == lq
		if c := compareBool(codeEqI, codeEqJ); c != 0 {
			return c < 0
		}
		si, sj := scoreOf(hits[i]), scoreOf(hits[j])
		if si != sj {
			return si > sj
		}
		return compareNameID(hits[i].Concept, hits[j].Concept) < 0
	})
}

// sortSemanticHits applies the semantic-strategy ranking: cosine similarity
// descending with concept id ascending as the stable tie-break.
func sortSemanticHits(hits []types.SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		si, sj := scoreOf(hits[i]), scoreOf(hits[j])
		if si != sj {
			return si > sj
		}
		return hits[i].ConceptID < hits[j].ConceptID
	})
}

// sortByNameID orders plain concept lists, name ascending then id ascending.
func sortByNameID(rows []types.Concept) {
	sort.SliceStable(rows, func(i, j int) bool {
		return compareNameID(rows[i], rows[j]) < 0
	})
}
