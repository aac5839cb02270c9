// Package compiler transforms a validated query envelope into an ordered,
// index-safe predicate list over the relational schema. Predicates are
// accumulated per block and blocks are folded with the envelope operators;
// the paginator assembles the final CTE-wrapped statement.
package compiler

import (
	"context"

	"github.com/daleel/api/search/models"
)

// Entity classes the compiler knows about.
const (
	ClassBulletin = "bulletin"
	ClassActor    = "actor"
	ClassIncident = "incident"
	ClassLocation = "location"
	ClassActivity = "activity"
)

// TaxonomyStore resolves hierarchical taxonomy descent. Expansion runs in
// the application because the taxonomies are small and cached; a recursive
// CTE would dominate latency for the common case.
type TaxonomyStore interface {
	// ExpandLabels returns the ids plus all descendant label ids.
	ExpandLabels(ctx context.Context, ids []int64) ([]int64, error)
	// ExpandSources returns the ids plus all descendant source ids.
	ExpandSources(ctx context.Context, ids []int64) ([]int64, error)
}

// RelationStore loads the related-entity id set for rel_to_* facets,
// handling the symmetric self-relation tables.
type RelationStore interface {
	RelatedIDs(ctx context.Context, sourceClass string, sourceID int64, targetClass string) ([]int64, error)
}

// FieldDef is the subset of a dynamic-field definition the compiler needs.
// Only searchable, active fields reach the compiler.
type FieldDef struct {
	Name      string
	FieldType string
}

// FieldSource loads the searchable dynamic-field registry for an entity
// type. Implemented by the dynamic-field repository.
type FieldSource interface {
	SearchableFields(ctx context.Context, entityType string) (map[string]FieldDef, error)
}

// Deps carries the collaborators a compilation consults.
type Deps struct {
	Taxonomy  TaxonomyStore
	Relations RelationStore
	// Fields is the registry of searchable dynamic fields for the target
	// entity type, keyed by generated column name.
	Fields map[string]FieldDef
}

// CompileBulletins compiles a nested envelope of bulletin query blocks,
// folding the per-block predicate lists with the block operators
// left-to-right (default or).
func CompileBulletins(ctx context.Context, queries []*models.SearchQuery, deps Deps) (*Compiled, error) {
	return compileEnvelope(ctx, queries, deps, compileBulletinBlock, "bulletins")
}

// CompileActors compiles a nested envelope of actor query blocks.
func CompileActors(ctx context.Context, queries []*models.SearchQuery, deps Deps) (*Compiled, error) {
	return compileEnvelope(ctx, queries, deps, compileActorBlock, "actors")
}

// CompileIncidents compiles a single incident query object.
func CompileIncidents(ctx context.Context, q *models.SearchQuery, deps Deps) (*Compiled, error) {
	return compileSingle(ctx, q, deps, compileIncidentBlock, "incidents")
}

// CompileLocations compiles a single location query object.
func CompileLocations(ctx context.Context, q *models.SearchQuery, deps Deps) (*Compiled, error) {
	return compileSingle(ctx, q, deps, compileLocationBlock, "locations")
}

// CompileActivities compiles a single activity query object.
func CompileActivities(ctx context.Context, q *models.SearchQuery, deps Deps) (*Compiled, error) {
	return compileSingle(ctx, q, deps, compileActivityBlock, "activities")
}

type blockCompiler func(ctx context.Context, q *models.SearchQuery, deps Deps, c *Compiled) error

func compileEnvelope(ctx context.Context, queries []*models.SearchQuery, deps Deps, compile blockCompiler, table string) (*Compiled, error) {
	acc := &Compiled{Table: table}
	for i, q := range queries {
		block := &Compiled{Table: table}
		if err := compile(ctx, q, deps, block); err != nil {
			return nil, err
		}
		if i == 0 {
			acc.Conds = block.Conds
			acc.Args = block.Args
			continue
		}
		op := q.Op
		if op == "" {
			op = models.OpOr
		}
		acc.Fold(op, block)
	}
	return acc, nil
}

func compileSingle(ctx context.Context, q *models.SearchQuery, deps Deps, compile blockCompiler, table string) (*Compiled, error) {
	if q == nil {
		q = &models.SearchQuery{}
	}
	c := &Compiled{Table: table}
	if err := compile(ctx, q, deps, c); err != nil {
		return nil, err
	}
	return c, nil
}
