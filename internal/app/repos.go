package app

import (
	"gorm.io/gorm"

	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type Repos struct {
	Concept      vocabrepo.ConceptRepo
	Ancestor     vocabrepo.AncestorRepo
	Relationship vocabrepo.RelationshipRepo
	Embedding    vocabrepo.EmbeddingRepo
	Reference    vocabrepo.ReferenceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Concept:      vocabrepo.NewConceptRepo(db, log),
		Ancestor:     vocabrepo.NewAncestorRepo(db, log),
		Relationship: vocabrepo.NewRelationshipRepo(db, log),
		Embedding:    vocabrepo.NewEmbeddingRepo(db, log),
		Reference:    vocabrepo.NewReferenceRepo(db, log),
	}
}
