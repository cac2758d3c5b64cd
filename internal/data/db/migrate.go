package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
)

var embeddingTable = vocab.ConceptEmbedding{}

// AutoMigrateAll creates the full vocabulary schema. Production deployments
// load the CDM tables from an Athena export instead; this exists for test
// databases and scratch environments.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Reference dimensions
		&vocab.Vocabulary{},
		&vocab.Domain{},
		&vocab.ConceptClass{},
		&vocab.Relationship{},

		// Concepts + graph edges
		&vocab.Concept{},
		&vocab.ConceptRelationship{},
		&vocab.ConceptAncestor{},

		// Semantic search sidecar
		&vocab.ConceptEmbedding{},
	)
}

func EnsureExtensions(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm;`).Error; err != nil {
		return fmt.Errorf("enable pg_trgm extension: %w", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		return fmt.Errorf("enable vector extension: %w", err)
	}
	return nil
}

// EnsureSearchIndexes creates the indexes the three search strategies and the
// graph traversals lean on. The CDM tables arrive via bulk import without
// them, so index creation is repeated here idempotently.
func EnsureSearchIndexes(db *gorm.DB) error {
	// Trigram matching over concept names (fuzzy strategy).
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_concept_name_trgm
		ON concept
		USING GIN (concept_name gin_trgm_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_concept_name_trgm: %w", err)
	}

	// Case-insensitive equality/prefix probes over codes and names.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_concept_code_lower
		ON concept (lower(concept_code));
	`).Error; err != nil {
		return fmt.Errorf("create idx_concept_code_lower: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_concept_name_lower
		ON concept (lower(concept_name));
	`).Error; err != nil {
		return fmt.Errorf("create idx_concept_name_lower: %w", err)
	}

	// Closure-table traversals.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_concept_ancestor_descendant_sep
		ON concept_ancestor (descendant_concept_id, min_levels_of_separation);
	`).Error; err != nil {
		return fmt.Errorf("create idx_concept_ancestor_descendant_sep: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_concept_ancestor_ancestor_sep
		ON concept_ancestor (ancestor_concept_id, min_levels_of_separation);
	`).Error; err != nil {
		return fmt.Errorf("create idx_concept_ancestor_ancestor_sep: %w", err)
	}

	// Mapping-edge lookups in both directions.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_concept_relationship_source_kind
		ON concept_relationship (concept_id_1, relationship_id)
		WHERE invalid_reason IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_concept_relationship_source_kind: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_concept_relationship_target_kind
		ON concept_relationship (concept_id_2, relationship_id)
		WHERE invalid_reason IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_concept_relationship_target_kind: %w", err)
	}

	// Approximate nearest neighbor over concept embeddings (semantic
	// strategy). Cosine opclass matches the <=> queries.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_concept_embedding_cosine
		ON concept_embedding
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100);
	`).Error; err != nil {
		return fmt.Errorf("create idx_concept_embedding_cosine: %w", err)
	}

	return nil
}
