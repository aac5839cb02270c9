package compiler

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daleel/api/search/models"
)

// fakeTaxonomy expands each id to a fixed child set.
type fakeTaxonomy struct {
	children map[int64][]int64
}

func (f *fakeTaxonomy) expand(ids []int64) []int64 {
	out := append([]int64{}, ids...)
	for _, id := range ids {
		out = append(out, f.children[id]...)
	}
	return out
}

func (f *fakeTaxonomy) ExpandLabels(_ context.Context, ids []int64) ([]int64, error) {
	return f.expand(ids), nil
}

func (f *fakeTaxonomy) ExpandSources(_ context.Context, ids []int64) ([]int64, error) {
	return f.expand(ids), nil
}

type fakeRelations struct {
	ids []int64
}

func (f *fakeRelations) RelatedIDs(_ context.Context, _ string, _ int64, _ string) ([]int64, error) {
	return f.ids, nil
}

func compileOne(t *testing.T, q *models.SearchQuery, deps Deps) *Compiled {
	t.Helper()
	c, err := CompileBulletins(context.Background(), []*models.SearchQuery{q}, deps)
	require.NoError(t, err)
	return c
}

func TestCompileEmptyQuery(t *testing.T) {
	c := compileOne(t, &models.SearchQuery{}, Deps{})
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "TRUE", c.WhereClause())
	assert.Equal(t, "bulletins", c.Table)
}

func TestCompileExplicitEmptyIDSet(t *testing.T) {
	// ids: [] must compile to a predicate that matches nothing, not to an
	// unconstrained query.
	c := compileOne(t, &models.SearchQuery{IDs: []int64{}}, Deps{})
	require.Len(t, c.Conds, 1)
	assert.Equal(t, "id = ANY(?)", c.Conds[0])
}

func TestCompileFreeTextPerWord(t *testing.T) {
	c := compileOne(t, &models.SearchQuery{Tsv: "arbitrary detention"}, Deps{})
	require.Len(t, c.Conds, 2)
	assert.Equal(t, "search ILIKE ?", c.Conds[0])
	assert.Equal(t, "search ILIKE ?", c.Conds[1])
	assert.Equal(t, []interface{}{"%arbitrary%", "%detention%"}, c.Args)
}

func TestCompileFreeTextEscapesWildcards(t *testing.T) {
	c := compileOne(t, &models.SearchQuery{Tsv: "100%"}, Deps{})
	require.Len(t, c.Args, 1)
	assert.Equal(t, `%100\%%`, c.Args[0])
}

func TestCompileExclusionText(t *testing.T) {
	t.Run("per word", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{ExTsv: "rumor unverified"}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "search NOT ILIKE ALL(?)", c.Conds[0])
		assert.Equal(t, pq.Array([]string{"%rumor%", "%unverified%"}), c.Args[0])
	})

	t.Run("quoted phrase", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{ExTsv: `"under investigation"`}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, pq.Array([]string{"%under investigation%"}), c.Args[0])
	})
}

func TestCompileTermChips(t *testing.T) {
	t.Run("exact uses word boundary regex", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{Terms: []string{"open system"}, TermsExact: true}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "search ~* ?", c.Conds[0])
		assert.Equal(t, `\yopen system\y`, c.Args[0])
	})

	t.Run("loose uses substring", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{Terms: []string{"open"}}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "search ILIKE ?", c.Conds[0])
		assert.Equal(t, "%open%", c.Args[0])
	})

	t.Run("or joins into one disjunction", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{Terms: []string{"a", "b"}, OpTerms: true}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "(search ILIKE ? OR search ILIKE ?)", c.Conds[0])
	})

	t.Run("exact escapes regex metacharacters", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{Terms: []string{"a.b"}, TermsExact: true}, Deps{})
		assert.Equal(t, `\ya\.b\y`, c.Args[0])
	})

	t.Run("exclusion chips", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{ExTerms: []string{"x"}, TermsExact: true}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "search !~* ?", c.Conds[0])
	})
}

func TestCompileTags(t *testing.T) {
	t.Run("exact is array containment", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{Tags: []string{"urgent"}, InExact: true}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "tags @> ?", c.Conds[0])
		assert.Equal(t, pq.Array([]string{"urgent"}), c.Args[0])
	})

	t.Run("loose flattens", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{Tags: []string{"urg"}}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "array_to_string(tags, ' ') ILIKE ?", c.Conds[0])
	})

	t.Run("exclusion negates containment", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{ExTags: []string{"dup"}, ExExact: true}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "NOT (tags @> ?)", c.Conds[0])
	})
}

func TestCompileTaxonomyDescent(t *testing.T) {
	tax := &fakeTaxonomy{children: map[int64][]int64{1: {10, 11}, 2: {20}}}

	t.Run("or with children is one ANY over the expanded set", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{
			Labels: []int64{1, 2}, OpLabels: true, ChildLabels: true,
		}, Deps{Taxonomy: tax})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "id IN (SELECT bulletin_id FROM bulletin_labels WHERE label_id = ANY(?))", c.Conds[0])
		assert.Equal(t, pq.Array([]int64{1, 2, 10, 11, 20}), c.Args[0])
	})

	t.Run("and expands each taxon in place", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{
			Labels: []int64{1, 2}, ChildLabels: true,
		}, Deps{Taxonomy: tax})
		require.Len(t, c.Conds, 2)
		assert.Equal(t, pq.Array([]int64{1, 10, 11}), c.Args[0])
		assert.Equal(t, pq.Array([]int64{2, 20}), c.Args[1])
	})

	t.Run("without children no expansion happens", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{
			Labels: []int64{1}, OpLabels: true,
		}, Deps{Taxonomy: tax})
		assert.Equal(t, pq.Array([]int64{1}), c.Args[0])
	})

	t.Run("exclusion is NOT IN over the expanded set", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{
			ExLabels: []int64{1}, ChildLabels: true,
		}, Deps{Taxonomy: tax})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "id NOT IN (SELECT bulletin_id FROM bulletin_labels WHERE label_id = ANY(?))", c.Conds[0])
		assert.Equal(t, pq.Array([]int64{1, 10, 11}), c.Args[0])
	})
}

func TestCompileLocationsUseIDTree(t *testing.T) {
	c := compileOne(t, &models.SearchQuery{Locations: []int64{5}}, Deps{})
	require.Len(t, c.Conds, 1)
	assert.Contains(t, c.Conds[0], "l.id_tree LIKE ?")
	assert.Equal(t, "%[5]%", c.Args[0])
}

func TestCompileDateWindow(t *testing.T) {
	c := compileOne(t, &models.SearchQuery{Created: []string{"2024-01-15"}}, Deps{})
	require.Len(t, c.Conds, 1)
	// The column stays bare so its index is usable; the window is a closed
	// day range instead.
	assert.Equal(t, "created_at BETWEEN ? AND ?", c.Conds[0])
	require.Len(t, c.Args, 2)
	assert.Equal(t, "2024-01-15 00:00:00 +0000 UTC", c.Args[0].(interface{ String() string }).String())
	assert.Equal(t, "2024-01-15 23:59:59.999999 +0000 UTC", c.Args[1].(interface{ String() string }).String())
}

func TestCompileEvents(t *testing.T) {
	etype := int64(3)
	eloc := int64(7)

	t.Run("independent constraints emit one subquery each", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{
			EDate: []string{"2024-01-01"}, EType: &etype, ELocation: &eloc,
		}, Deps{})
		assert.Len(t, c.Conds, 3)
	})

	t.Run("singleEvent merges into one subquery", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{
			SingleEvent: true,
			EDate:       []string{"2024-01-01"}, EType: &etype, ELocation: &eloc,
		}, Deps{})
		require.Len(t, c.Conds, 1)
		assert.Contains(t, c.Conds[0], "e.eventtype_id = ?")
		assert.Contains(t, c.Conds[0], "el.id_tree LIKE ?")
		assert.Contains(t, c.Conds[0], "JOIN locations el ON el.id = e.location_id")
	})
}

func TestCompileWorkflow(t *testing.T) {
	c := compileOne(t, &models.SearchQuery{
		Statuses:   []string{"Human Created", "Updated"},
		Unassigned: true,
		NoRole:     true,
	}, Deps{})
	require.Len(t, c.Conds, 3)
	assert.Equal(t, "status = ANY(?)", c.Conds[0])
	assert.Equal(t, "assigned_to_id IS NULL", c.Conds[1])
	assert.Equal(t, "id NOT IN (SELECT bulletin_id FROM bulletin_roles)", c.Conds[2])
}

func TestCompileRelation(t *testing.T) {
	src := int64(42)

	t.Run("resolves to an id membership test", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{RelToActor: &src}, Deps{
			Relations: &fakeRelations{ids: []int64{1, 2, 3}},
		})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "id = ANY(?)", c.Conds[0])
		assert.Equal(t, pq.Array([]int64{1, 2, 3}), c.Args[0])
	})

	t.Run("empty relation set still constrains", func(t *testing.T) {
		c := compileOne(t, &models.SearchQuery{RelToActor: &src}, Deps{
			Relations: &fakeRelations{ids: []int64{}},
		})
		require.Len(t, c.Conds, 1)
		assert.Equal(t, pq.Array([]int64{}), c.Args[0])
	})
}

func TestCompileGeoRadius(t *testing.T) {
	q := &models.SearchQuery{
		LatLng:   &models.LatLng{Lat: 36.2, Lng: 37.16, Radius: 5000},
		LocTypes: []string{"geomarkers"},
	}
	c := compileOne(t, q, Deps{})
	require.Len(t, c.Conds, 1)
	assert.Contains(t, c.Conds[0], "ST_DWithin(g.latlng::geography, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)")
	assert.Equal(t, []interface{}{37.16, 36.2, float64(5000)}, c.Args)
}

func TestEnvelopeFolding(t *testing.T) {
	ctx := context.Background()

	t.Run("or collapses the accumulator", func(t *testing.T) {
		// (A) OR (B) AND (C) folds left-to-right to (A OR B) AND C.
		queries := []*models.SearchQuery{
			{Tsv: "alpha"},
			{Op: models.OpOr, Tsv: "beta"},
			{Op: models.OpAnd, Tsv: "gamma"},
		}
		c, err := CompileBulletins(ctx, queries, Deps{})
		require.NoError(t, err)
		require.Len(t, c.Conds, 2)
		assert.Equal(t, "((search ILIKE ?) OR (search ILIKE ?))", c.Conds[0])
		assert.Equal(t, "search ILIKE ?", c.Conds[1])
		assert.Equal(t, []interface{}{"%alpha%", "%beta%", "%gamma%"}, c.Args)
	})

	t.Run("missing op defaults to or", func(t *testing.T) {
		queries := []*models.SearchQuery{
			{Tsv: "alpha"},
			{Tsv: "beta"},
		}
		c, err := CompileBulletins(ctx, queries, Deps{})
		require.NoError(t, err)
		require.Len(t, c.Conds, 1)
		assert.Equal(t, "((search ILIKE ?) OR (search ILIKE ?))", c.Conds[0])
	})

	t.Run("and appends", func(t *testing.T) {
		queries := []*models.SearchQuery{
			{Tsv: "alpha"},
			{Op: models.OpAnd, Tsv: "beta"},
		}
		c, err := CompileBulletins(ctx, queries, Deps{})
		require.NoError(t, err)
		assert.Len(t, c.Conds, 2)
	})
}

func TestCompileActorFreeTextUnion(t *testing.T) {
	c, err := CompileActors(context.Background(), []*models.SearchQuery{{Tsv: "ahmad"}}, Deps{})
	require.NoError(t, err)
	require.Len(t, c.Conds, 1)
	assert.Contains(t, c.Conds[0], "UNION SELECT ap.actor_id FROM actor_profiles ap")
	// The same pattern binds on both branches of the union.
	assert.Equal(t, []interface{}{"%ahmad%", "%ahmad%"}, c.Args)
	assert.Equal(t, "actors", c.Table)
}

func TestCompileActorIDNumber(t *testing.T) {
	t.Run("type and number", func(t *testing.T) {
		c, err := CompileActors(context.Background(), []*models.SearchQuery{{
			IDNumber: &models.IDNumber{Type: "passport", Number: "N123"},
		}}, Deps{})
		require.NoError(t, err)
		require.Len(t, c.Conds, 1)
		assert.Contains(t, c.Conds[0], "jsonb_array_elements")
		assert.Contains(t, c.Conds[0], "EXISTS")
	})

	t.Run("type only uses containment", func(t *testing.T) {
		c, err := CompileActors(context.Background(), []*models.SearchQuery{{
			IDNumber: &models.IDNumber{Type: "passport"},
		}}, Deps{})
		require.NoError(t, err)
		require.Len(t, c.Conds, 1)
		assert.Contains(t, c.Conds[0], "id_number @>")
	})
}

func TestCompileIncidentViolations(t *testing.T) {
	c, err := CompileIncidents(context.Background(), &models.SearchQuery{
		PotentialVCats: []int64{4},
	}, Deps{})
	require.NoError(t, err)
	require.Len(t, c.Conds, 1)
	assert.Equal(t, "id IN (SELECT incident_id FROM incident_potential_violations WHERE potentialviolation_id = ANY(?))", c.Conds[0])
	assert.Equal(t, "incidents", c.Table)
}

func TestCompileLocationQuery(t *testing.T) {
	c, err := CompileLocations(context.Background(), &models.SearchQuery{
		Tsv:       "aleppo",
		Locations: []int64{9},
	}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "locations", c.Table)
	require.NotEmpty(t, c.Conds)
	assert.Contains(t, c.WhereClause(), "id_tree LIKE ?")
}

func TestCompileActivityQuery(t *testing.T) {
	c, err := CompileActivities(context.Background(), &models.SearchQuery{
		Actions: []string{"UPDATE", "DELETE"},
		Model:   "bulletin",
		Users:   []int64{1},
	}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "activities", c.Table)
	assert.Len(t, c.Conds, 3)
}
