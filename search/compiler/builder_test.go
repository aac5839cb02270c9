package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereClause(t *testing.T) {
	c := &Compiled{}
	assert.Equal(t, "TRUE", c.WhereClause())

	c.Where("a = ?", 1)
	c.Where("b = ?", 2)
	assert.Equal(t, "a = ? AND b = ?", c.WhereClause())
	assert.Equal(t, []interface{}{1, 2}, c.Args)
}

func TestFold(t *testing.T) {
	t.Run("and appends", func(t *testing.T) {
		acc := &Compiled{}
		acc.Where("a = ?", 1)
		next := &Compiled{}
		next.Where("b = ?", 2)

		acc.Fold("and", next)
		assert.Equal(t, []string{"a = ?", "b = ?"}, acc.Conds)
		assert.Equal(t, []interface{}{1, 2}, acc.Args)
	})

	t.Run("or collapses", func(t *testing.T) {
		acc := &Compiled{}
		acc.Where("a = ?", 1)
		acc.Where("b = ?", 2)
		next := &Compiled{}
		next.Where("c = ?", 3)

		acc.Fold("or", next)
		assert.Equal(t, []string{"((a = ? AND b = ?) OR (c = ?))"}, acc.Conds)
		assert.Equal(t, []interface{}{1, 2, 3}, acc.Args)
	})

	t.Run("both empty stays empty", func(t *testing.T) {
		acc := &Compiled{}
		acc.Fold("or", &Compiled{})
		assert.True(t, acc.IsEmpty())
	})

	t.Run("or with empty block matches everything", func(t *testing.T) {
		acc := &Compiled{}
		acc.Where("a = ?", 1)
		acc.Fold("or", &Compiled{})
		assert.Equal(t, []string{"((a = ?) OR (TRUE))"}, acc.Conds)
	})
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", Rebind("a = ? AND b = ?"))
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, `%a\%b\_c\\d%`, containsPattern(`a%b_c\d`))
	assert.Equal(t, []string{"a", "b"}, splitWords("  a   b "))
	assert.True(t, isQuotedPhrase(`"x y"`))
	assert.False(t, isQuotedPhrase(`"`))
	assert.Equal(t, "x y", unquotePhrase(`"x y"`))
	assert.Equal(t, "%[17]%", idTreePattern(17))
}
