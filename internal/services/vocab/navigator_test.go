package vocab

import (
	"context"
	"testing"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	pkgerrors "github.com/kestrelhealth/vocab-backend/internal/pkg/errors"
)

func relHit(id int64, name, kind string) types.RelatedHit {
	return types.RelatedHit{
		Concept:        types.Concept{ConceptID: id, ConceptName: name},
		RelationshipID: kind,
	}
}

func newNavigator(t *testing.T, concepts *fakeConceptRepo, ancestors *fakeAncestorRepo, rels *fakeRelationshipRepo) NavigatorService {
	t.Helper()
	if concepts == nil {
		concepts = &fakeConceptRepo{}
	}
	if ancestors == nil {
		ancestors = &fakeAncestorRepo{}
	}
	if rels == nil {
		rels = &fakeRelationshipRepo{}
	}
	return NewNavigatorService(testLogger(t), concepts, ancestors, rels)
}

func TestGetConceptNotFound(t *testing.T) {
	svc := newNavigator(t, &fakeConceptRepo{byID: map[int64]*types.Concept{}}, nil, nil)

	_, err := svc.GetConcept(context.Background(), 99)
	if !pkgerrors.IsNotFound(err) {
		t.Fatalf("want not-found, got: %v", err)
	}
}

func TestGetConceptFound(t *testing.T) {
	concepts := &fakeConceptRepo{byID: map[int64]*types.Concept{
		7: {ConceptID: 7, ConceptName: "Atrial fibrillation"},
	}}
	svc := newNavigator(t, concepts, nil, nil)

	c, err := svc.GetConcept(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetConcept: %v", err)
	}
	if c.ConceptID != 7 || c.ConceptName != "Atrial fibrillation" {
		t.Fatalf("unexpected concept: %+v", c)
	}
}

func TestGetConceptDetailAggregates(t *testing.T) {
	concepts := &fakeConceptRepo{byID: map[int64]*types.Concept{
		7: {ConceptID: 7, ConceptName: "Atrial fibrillation"},
	}}
	ancestors := &fakeAncestorRepo{
		ancestors:   []types.AncestryHit{{Concept: types.Concept{ConceptID: 1}}},
		descendants: []types.AncestryHit{{Concept: types.Concept{ConceptID: 2}}, {Concept: types.Concept{ConceptID: 3}}},
	}
	rels := &fakeRelationshipRepo{
		outgoing: []types.RelatedHit{relHit(4, "mapped", types.RelMapsTo)},
	}
	svc := newNavigator(t, concepts, ancestors, rels)

	detail, err := svc.GetConceptDetail(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("GetConceptDetail: %v", err)
	}
	if detail.Concept.ConceptID != 7 {
		t.Fatalf("concept: %+v", detail.Concept)
	}
	if len(detail.Ancestors) != 1 || len(detail.Descendants) != 2 || len(detail.Related) != 1 {
		t.Fatalf("neighborhood sizes: ancestors=%d descendants=%d related=%d",
			len(detail.Ancestors), len(detail.Descendants), len(detail.Related))
	}
}

func TestGetConceptDetailUnknownIDStopsBeforeTraversal(t *testing.T) {
	concepts := &fakeConceptRepo{byID: map[int64]*types.Concept{}}
	ancestors := &fakeAncestorRepo{}
	svc := newNavigator(t, concepts, ancestors, nil)

	_, err := svc.GetConceptDetail(context.Background(), 404, 10)
	if !pkgerrors.IsNotFound(err) {
		t.Fatalf("want not-found, got: %v", err)
	}
	if ancestors.ancestorCalls != 0 || ancestors.idsCalls != 0 {
		t.Fatalf("traversal must not run for a missing concept")
	}
}

func TestAncestorsUnknownIDReturnsEmpty(t *testing.T) {
	// Traversals never validate existence; an unknown id is just an empty
	// closure.
	ancestors := &fakeAncestorRepo{ancestors: []types.AncestryHit{}}
	svc := newNavigator(t, nil, ancestors, nil)

	rows, err := svc.Ancestors(context.Background(), 123456, 10)
	if err != nil {
		t.Fatalf("Ancestors: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("want empty, got %d rows", len(rows))
	}
}

func TestRelatedMergeOrderDedupAndSelfSkip(t *testing.T) {
	rels := &fakeRelationshipRepo{
		outgoing: []types.RelatedHit{
			relHit(20, "b", types.RelMapsTo),
			relHit(10, "self", types.RelMapsTo),
			relHit(30, "c", types.RelMapsTo),
		},
		incoming: []types.RelatedHit{
			relHit(20, "b", types.RelMappedFrom),
			relHit(40, "d", types.RelMappedFrom),
		},
	}
	svc := newNavigator(t, nil, nil, rels)

	rows, err := svc.Related(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 merged rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].ConceptID != 20 || rows[1].ConceptID != 30 || rows[2].ConceptID != 40 {
		t.Fatalf("merge order: got=%d,%d,%d", rows[0].ConceptID, rows[1].ConceptID, rows[2].ConceptID)
	}
	// The first occurrence wins, so 20 keeps its outgoing kind.
	if rows[0].RelationshipID != types.RelMapsTo {
		t.Fatalf("dedup kept wrong edge: %q", rows[0].RelationshipID)
	}
	if len(rels.lastKinds) != 2 {
		t.Fatalf("mapping kinds: %v", rels.lastKinds)
	}
}

func TestRelatedTruncatesToLimit(t *testing.T) {
	rels := &fakeRelationshipRepo{
		outgoing: []types.RelatedHit{
			relHit(21, "a", types.RelMapsTo),
			relHit(22, "b", types.RelMapsTo),
			relHit(23, "c", types.RelMapsTo),
		},
	}
	svc := newNavigator(t, nil, nil, rels)

	rows, err := svc.Related(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if len(rows) != 2 || rows[0].ConceptID != 21 || rows[1].ConceptID != 22 {
		t.Fatalf("truncation: %+v", rows)
	}
}

func TestSearchDescendantsEmptyQueryShortCircuits(t *testing.T) {
	ancestors := &fakeAncestorRepo{descendantIDs: []int64{1, 2}}
	concepts := &fakeConceptRepo{}
	svc := newNavigator(t, concepts, ancestors, nil)

	rows, err := svc.SearchDescendants(context.Background(), 10, "   ", 5)
	if err != nil {
		t.Fatalf("SearchDescendants: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("want empty, got %d", len(rows))
	}
	if ancestors.idsCalls != 0 || concepts.nameSearchCalls != 0 {
		t.Fatalf("empty query must not reach repos")
	}
}

func TestSearchDescendantsNoChildren(t *testing.T) {
	ancestors := &fakeAncestorRepo{descendantIDs: []int64{}}
	concepts := &fakeConceptRepo{}
	svc := newNavigator(t, concepts, ancestors, nil)

	rows, err := svc.SearchDescendants(context.Background(), 10, "pain", 5)
	if err != nil {
		t.Fatalf("SearchDescendants: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("want empty, got %d", len(rows))
	}
	if concepts.nameSearchCalls != 0 {
		t.Fatalf("no candidate fetch without descendants")
	}
}

func TestSearchDescendantsFiltersAndSorts(t *testing.T) {
	ancestors := &fakeAncestorRepo{descendantIDs: []int64{31, 32, 33}}
	concepts := &fakeConceptRepo{
		nameSearchRows: []types.Concept{
			{ConceptID: 33, ConceptName: "zoster pain"},
			{ConceptID: 31, ConceptName: "acute pain"},
		},
	}
	svc := newNavigator(t, concepts, ancestors, nil)

	rows, err := svc.SearchDescendants(context.Background(), 30, " pain ", 5)
	if err != nil {
		t.Fatalf("SearchDescendants: %v", err)
	}
	if concepts.lastNameQuery != "pain" {
		t.Fatalf("query not trimmed: %q", concepts.lastNameQuery)
	}
	if len(concepts.lastNameIDs) != 3 {
		t.Fatalf("candidate ids: %v", concepts.lastNameIDs)
	}
	if len(rows) != 2 || rows[0].ConceptID != 31 || rows[1].ConceptID != 33 {
		t.Fatalf("sorted rows: %+v", rows)
	}
}
