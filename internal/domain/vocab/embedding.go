package vocab

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingDim is the fixed dimension of concept-name embeddings. The column
// type and every provider response are validated against it.
const EmbeddingDim = 384

// Default identity of the embedding model. Rows written by the pipeline
// carry these values unless overridden through configuration.
const (
	DefaultEmbeddingModelName    = "all-MiniLM-L6-v2"
	DefaultEmbeddingModelVersion = "v1"
)

// ConceptEmbedding stores the precomputed name embedding for one concept.
// Coverage is sparse: concepts without a row are excluded from semantic
// search rather than scored as zero. Vectors are L2-normalized at write time.
type ConceptEmbedding struct {
	ConceptID    int64           `gorm:"column:concept_id;primaryKey;autoIncrement:false" json:"concept_id"`
	Embedding    pgvector.Vector `gorm:"column:embedding;type:vector(384);not null" json:"-"`
	ModelName    string          `gorm:"column:model_name;size:100;not null" json:"model_name"`
	ModelVersion string          `gorm:"column:model_version;size:20;not null" json:"model_version"`
	GeneratedAt  time.Time       `gorm:"column:generated_at;not null;default:now()" json:"generated_at"`
}

func (ConceptEmbedding) TableName() string { return "concept_embedding" }
