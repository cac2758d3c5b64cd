package vocab

import (
	"gorm.io/datatypes"
)

// Relationship kinds used by the mapping resolver. The relationship table
// holds many more kinds; only this inverse pair participates in
// related-concept resolution.
const (
	RelMapsTo     = "Maps to"
	RelMappedFrom = "Mapped from"
)

// MappingRelationshipIDs returns the relationship kinds eligible for
// related-concept traversal, in a fresh slice callers may reorder.
func MappingRelationshipIDs() []string {
	return []string{RelMapsTo, RelMappedFrom}
}

// Relationship is the reference dimension describing a relationship kind and
// its inverse.
type Relationship struct {
	RelationshipID        string `gorm:"column:relationship_id;size:20;primaryKey" json:"relationship_id"`
	RelationshipName      string `gorm:"column:relationship_name;not null" json:"relationship_name"`
	IsHierarchical        string `gorm:"column:is_hierarchical;size:1" json:"is_hierarchical"`
	DefinesAncestry       string `gorm:"column:defines_ancestry;size:1" json:"defines_ancestry"`
	ReverseRelationshipID string `gorm:"column:reverse_relationship_id;size:20" json:"reverse_relationship_id"`
	RelationshipConceptID int64  `gorm:"column:relationship_concept_id;not null" json:"relationship_concept_id"`
}

func (Relationship) TableName() string { return "relationship" }

// ConceptRelationship is a directed typed edge between two concepts. An edge
// with a non-null invalid_reason must never be traversed.
type ConceptRelationship struct {
	ConceptID1     int64          `gorm:"column:concept_id_1;primaryKey;autoIncrement:false;index:idx_concept_relationship_source" json:"concept_id_1"`
	ConceptID2     int64          `gorm:"column:concept_id_2;primaryKey;autoIncrement:false;index:idx_concept_relationship_target" json:"concept_id_2"`
	RelationshipID string         `gorm:"column:relationship_id;size:20;primaryKey" json:"relationship_id"`
	ValidStartDate datatypes.Date `gorm:"column:valid_start_date;not null" json:"valid_start_date"`
	ValidEndDate   datatypes.Date `gorm:"column:valid_end_date;not null" json:"valid_end_date"`
	InvalidReason  *string        `gorm:"column:invalid_reason;size:1" json:"invalid_reason,omitempty"`
}

func (ConceptRelationship) TableName() string { return "concept_relationship" }
