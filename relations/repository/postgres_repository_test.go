package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daleel/api/search/compiler"
)

func TestRelationQuerySymmetricPairs(t *testing.T) {
	q, err := relationQuery(compiler.ClassBulletin, compiler.ClassBulletin)
	require.NoError(t, err)
	// Self relations are stored once per pair; both directions must match.
	assert.Contains(t, q, "UNION")
	assert.Contains(t, q, "btob")
}

func TestRelationQueryCrossPairs(t *testing.T) {
	q, err := relationQuery(compiler.ClassActor, compiler.ClassBulletin)
	require.NoError(t, err)
	assert.Equal(t, "SELECT bulletin_id FROM atob WHERE actor_id = $1", q)

	q, err = relationQuery(compiler.ClassBulletin, compiler.ClassActor)
	require.NoError(t, err)
	assert.Equal(t, "SELECT actor_id FROM atob WHERE bulletin_id = $1", q)
}

func TestRelationQueryUnknownPair(t *testing.T) {
	_, err := relationQuery(compiler.ClassLocation, compiler.ClassBulletin)
	assert.Error(t, err)
}
