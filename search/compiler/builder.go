package compiler

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

// Compiled is the output of compiling one query envelope against an entity:
// an ordered predicate list conjoined by AND, plus its bind arguments.
// Fragments use ? placeholders; they are rebound to $n at assembly time.
type Compiled struct {
	Table string
	Conds []string
	Args  []interface{}
}

// Where appends a predicate.
func (c *Compiled) Where(frag string, args ...interface{}) {
	c.Conds = append(c.Conds, frag)
	c.Args = append(c.Args, args...)
}

// IsEmpty reports whether no predicate was compiled.
func (c *Compiled) IsEmpty() bool {
	return len(c.Conds) == 0
}

// WhereClause renders the conjoined predicates, or "TRUE" for an empty set.
func (c *Compiled) WhereClause() string {
	if len(c.Conds) == 0 {
		return "TRUE"
	}
	return strings.Join(c.Conds, " AND ")
}

// Fold merges the next block into the running accumulator left-to-right:
// AND appends the block's predicates, OR collapses the accumulator and the
// block into a single disjunction. (A) OR (B) AND (C) folds to (A OR B) AND C.
func (c *Compiled) Fold(op string, next *Compiled) {
	if next.IsEmpty() && c.IsEmpty() {
		return
	}
	if op == "and" {
		c.Conds = append(c.Conds, next.Conds...)
		c.Args = append(c.Args, next.Args...)
		return
	}
	merged := "((" + c.WhereClause() + ") OR (" + next.WhereClause() + "))"
	c.Conds = []string{merged}
	c.Args = append(c.Args, next.Args...)
}

// Rebind renumbers ? placeholders to PostgreSQL $n form.
func Rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}
