package vocab

import (
	"gorm.io/datatypes"
)

// Concept is one coded entry in the OMOP standardized vocabularies. Rows are
// loaded by the external vocabulary import and are read-only here.
type Concept struct {
	ConceptID       int64          `gorm:"column:concept_id;primaryKey;autoIncrement:false" json:"concept_id"`
	ConceptName     string         `gorm:"column:concept_name;not null;index:idx_concept_name" json:"concept_name"`
	DomainID        string         `gorm:"column:domain_id;size:20;not null;index:idx_concept_domain" json:"domain_id"`
	VocabularyID    string         `gorm:"column:vocabulary_id;size:20;not null;index:idx_concept_vocabulary" json:"vocabulary_id"`
	ConceptClassID  string         `gorm:"column:concept_class_id;size:20;not null" json:"concept_class_id"`
	StandardConcept *string        `gorm:"column:standard_concept;size:1" json:"standard_concept,omitempty"`
	ConceptCode     string         `gorm:"column:concept_code;size:50;not null;index:idx_concept_code" json:"concept_code"`
	ValidStartDate  datatypes.Date `gorm:"column:valid_start_date;not null" json:"valid_start_date"`
	ValidEndDate    datatypes.Date `gorm:"column:valid_end_date;not null" json:"valid_end_date"`
	InvalidReason   *string        `gorm:"column:invalid_reason;size:1" json:"invalid_reason,omitempty"`
}

func (Concept) TableName() string { return "concept" }

// StandardConceptFlag marks a concept as canonical for analytic use.
const StandardConceptFlag = "S"

func (c *Concept) IsStandard() bool {
	return c.StandardConcept != nil && *c.StandardConcept == StandardConceptFlag
}

// Vocabulary is a reference dimension: the coding system a concept belongs to.
type Vocabulary struct {
	VocabularyID        string `gorm:"column:vocabulary_id;size:20;primaryKey" json:"vocabulary_id"`
	VocabularyName      string `gorm:"column:vocabulary_name;not null" json:"vocabulary_name"`
	VocabularyReference string `gorm:"column:vocabulary_reference" json:"vocabulary_reference,omitempty"`
	VocabularyVersion   string `gorm:"column:vocabulary_version" json:"vocabulary_version,omitempty"`
	VocabularyConceptID int64  `gorm:"column:vocabulary_concept_id;not null" json:"vocabulary_concept_id"`
}

func (Vocabulary) TableName() string { return "vocabulary" }

// Domain is a reference dimension: the clinical area a concept belongs to.
type Domain struct {
	DomainID        string `gorm:"column:domain_id;size:20;primaryKey" json:"domain_id"`
	DomainName      string `gorm:"column:domain_name;not null" json:"domain_name"`
	DomainConceptID int64  `gorm:"column:domain_concept_id;not null" json:"domain_concept_id"`
}

func (Domain) TableName() string { return "domain" }

// ConceptClass is a reference dimension: the structural class of a concept
// within its vocabulary.
type ConceptClass struct {
	ConceptClassID        string `gorm:"column:concept_class_id;size:20;primaryKey" json:"concept_class_id"`
	ConceptClassName      string `gorm:"column:concept_class_name;not null" json:"concept_class_name"`
	ConceptClassConceptID int64  `gorm:"column:concept_class_concept_id;not null" json:"concept_class_concept_id"`
}

func (ConceptClass) TableName() string { return "concept_class" }
