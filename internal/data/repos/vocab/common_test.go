package vocab

import (
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kestrelhealth/vocab-backend/internal/data/repos/testutil"
	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// The integration tests below run against the database named by
// TEST_POSTGRES_DSN and are skipped without it. The database is assumed to be
// dedicated to tests: testutil migrates it and every test runs inside a
// transaction that rolls back on cleanup.

func repoTx(tb testing.TB) *gorm.DB {
	tb.Helper()
	return testutil.Tx(tb, testutil.DB(tb))
}

func repoDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	return testutil.DB(tb)
}

func repoLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return testutil.Logger(tb)
}

func vocabDate(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func stdConcept(id int64, name, code string) types.Concept {
	s := types.StandardConceptFlag
	return types.Concept{
		ConceptID:       id,
		ConceptName:     name,
		DomainID:        "Condition",
		VocabularyID:    "SNOMED",
		ConceptClassID:  "Clinical Finding",
		StandardConcept: &s,
		ConceptCode:     code,
		ValidStartDate:  vocabDate(1970, time.January, 1),
		ValidEndDate:    vocabDate(2099, time.December, 31),
	}
}

func nonStdConcept(id int64, name, code string) types.Concept {
	c := stdConcept(id, name, code)
	c.StandardConcept = nil
	return c
}

func seedConcepts(tb testing.TB, tx *gorm.DB, rows []types.Concept) {
	tb.Helper()
	if err := tx.Create(&rows).Error; err != nil {
		tb.Fatalf("seed concepts: %v", err)
	}
}

func seedClosure(tb testing.TB, tx *gorm.DB, rows []types.ConceptAncestor) {
	tb.Helper()
	if err := tx.Create(&rows).Error; err != nil {
		tb.Fatalf("seed closure: %v", err)
	}
}

func mappingEdge(from, to int64, kind string, invalid *string) types.ConceptRelationship {
	return types.ConceptRelationship{
		ConceptID1:     from,
		ConceptID2:     to,
		RelationshipID: kind,
		ValidStartDate: vocabDate(1970, time.January, 1),
		ValidEndDate:   vocabDate(2099, time.December, 31),
		InvalidReason:  invalid,
	}
}

func seedEdges(tb testing.TB, tx *gorm.DB, rows []types.ConceptRelationship) {
	tb.Helper()
	if err := tx.Create(&rows).Error; err != nil {
		tb.Fatalf("seed relationship edges: %v", err)
	}
}

func embeddingRow(conceptID int64, vec []float32) *types.ConceptEmbedding {
	return &types.ConceptEmbedding{
		ConceptID:    conceptID,
		Embedding:    pgvector.NewVector(vec),
		ModelName:    types.DefaultEmbeddingModelName,
		ModelVersion: types.DefaultEmbeddingModelVersion,
		GeneratedAt:  time.Now().UTC(),
	}
}

func seedEmbeddings(tb testing.TB, tx *gorm.DB, rows []*types.ConceptEmbedding) {
	tb.Helper()
	if err := tx.Create(&rows).Error; err != nil {
		tb.Fatalf("seed embeddings: %v", err)
	}
}

// unitVec is a basis vector of the embedding width with a 1 at axis.
func unitVec(axis int) []float32 {
	v := make([]float32, types.EmbeddingDim)
	v[axis] = 1
	return v
}

// diagVec is the unit vector halfway between two axes.
func diagVec(a, b int) []float32 {
	v := make([]float32, types.EmbeddingDim)
	v[a] = 0.7071068
	v[b] = 0.7071068
	return v
}

func hitIDs(rows []types.SearchHit) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, h := range rows {
		ids = append(ids, h.ConceptID)
	}
	return ids
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
