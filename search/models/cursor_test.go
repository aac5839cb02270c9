package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	searchErrors "github.com/daleel/api/search/errors"
)

func TestDecodeCursor(t *testing.T) {
	id, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	id, err = DecodeCursor("1042")
	require.NoError(t, err)
	assert.Equal(t, int64(1042), id)

	for _, bad := range []string{"abc", "0", "-5", "12.5"} {
		_, err = DecodeCursor(bad)
		require.Error(t, err, bad)
		assert.ErrorIs(t, err, searchErrors.ErrInvalidQuery, bad)
		var qerr *searchErrors.QueryError
		require.ErrorAs(t, err, &qerr, bad)
		assert.Equal(t, "cursor", qerr.Facet)
	}
}

func TestEncodeCursor(t *testing.T) {
	assert.Equal(t, "77", EncodeCursor(77))
}

func TestValidatePerPage(t *testing.T) {
	assert.Equal(t, 30, ValidatePerPage(0, 30, 100))
	assert.Equal(t, 30, ValidatePerPage(-1, 30, 100))
	assert.Equal(t, 10, ValidatePerPage(10, 30, 100))
	assert.Equal(t, 100, ValidatePerPage(500, 30, 100))
}
