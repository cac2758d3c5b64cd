package vocab

// ConceptAncestor is one row of the precomputed transitive closure over the
// "is a" hierarchy. Every concept is its own ancestor at separation 0; result
// sets exclude those rows explicitly.
type ConceptAncestor struct {
	AncestorConceptID     int64 `gorm:"column:ancestor_concept_id;primaryKey;autoIncrement:false;index:idx_concept_ancestor_ancestor" json:"ancestor_concept_id"`
	DescendantConceptID   int64 `gorm:"column:descendant_concept_id;primaryKey;autoIncrement:false;index:idx_concept_ancestor_descendant" json:"descendant_concept_id"`
	MinLevelsOfSeparation int   `gorm:"column:min_levels_of_separation;not null" json:"min_levels_of_separation"`
	MaxLevelsOfSeparation int   `gorm:"column:max_levels_of_separation;not null" json:"max_levels_of_separation"`
}

func (ConceptAncestor) TableName() string { return "concept_ancestor" }
