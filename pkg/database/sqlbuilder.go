package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// Excluded references the incoming row of an upsert. It renders verbatim when
// passed as a builder argument.
func Excluded(column string) any {
	return sqlbuilder.Raw(fmt.Sprintf("EXCLUDED.%s", column))
}

// InsertBuilder is the PostgreSQL insert builder with ON CONFLICT support.
type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
}

func NewInsertBuilder() *InsertBuilder {
	return &InsertBuilder{
		InsertBuilder: sqlbuilder.PostgreSQL.NewInsertBuilder(),
	}
}

func (ib *InsertBuilder) InsertInto(table string) *InsertBuilder {
	ib.InsertBuilder.InsertInto(table)
	return ib
}

func (ib *InsertBuilder) Cols(col ...string) *InsertBuilder {
	ib.InsertBuilder.Cols(col...)
	return ib
}

func (ib *InsertBuilder) Values(value ...any) *InsertBuilder {
	ib.InsertBuilder.Values(value...)
	return ib
}

func (ib *InsertBuilder) Returning(col ...string) *InsertBuilder {
	ib.InsertBuilder.Returning(col...)
	return ib
}

// OnConflict appends an ON CONFLICT (columns) DO UPDATE clause after the
// values. The clause is rendered at Build time, so Set and Where may be called
// on it afterwards.
func (ib *InsertBuilder) OnConflict(columns ...string) *ConflictClause {
	clause := &ConflictClause{columns: columns}
	ib.SQL(ib.Var(clause))
	return clause
}

func (ib *InsertBuilder) OnConflictDoNothing(columns ...string) *InsertBuilder {
	ib.SQL(ib.Var(&ConflictClause{columns: columns, doNothing: true}))
	return ib
}

// ConflictClause is the DO UPDATE / DO NOTHING half of an upsert. It is a
// sqlbuilder.Builder nested in the insert, so its arguments are numbered after
// the inserted values.
type ConflictClause struct {
	columns   []string
	doNothing bool
	set       []string
	setArgs   []any
	where     []sqlbuilder.Builder
}

var _ sqlbuilder.Builder = (*ConflictClause)(nil)

// Set overwrites each column with the incoming (EXCLUDED) value.
func (c *ConflictClause) Set(columns ...string) *ConflictClause {
	for _, col := range columns {
		c.set = append(c.set, col+" = %v")
		c.setArgs = append(c.setArgs, Excluded(col))
	}
	return c
}

// Where adds a guard condition in sqlbuilder.Buildf syntax: each %v is bound to
// the next argument.
func (c *ConflictClause) Where(format string, args ...any) *ConflictClause {
	c.where = append(c.where, sqlbuilder.Buildf(format, args...))
	return c
}

func (c *ConflictClause) builder() sqlbuilder.Builder {
	target := "ON CONFLICT"
	if len(c.columns) > 0 {
		target = fmt.Sprintf("ON CONFLICT (%s)", strings.Join(c.columns, ", "))
	}
	if c.doNothing || len(c.set) == 0 {
		return sqlbuilder.Buildf("%v DO NOTHING", sqlbuilder.Raw(target))
	}

	format := target + " DO UPDATE SET " + strings.Join(c.set, ", ")
	args := append([]any(nil), c.setArgs...)
	if len(c.where) > 0 {
		conds := make([]string, len(c.where))
		for i, cond := range c.where {
			conds[i] = "%v"
			args = append(args, cond)
		}
		format += " WHERE " + strings.Join(conds, " AND ")
	}
	return sqlbuilder.Buildf(format, args...)
}

func (c *ConflictClause) Build() (string, []any) {
	return c.BuildWithFlavor(c.Flavor())
}

func (c *ConflictClause) BuildWithFlavor(flavor sqlbuilder.Flavor, initialArg ...any) (string, []any) {
	return c.builder().BuildWithFlavor(flavor, initialArg...)
}

func (c *ConflictClause) Flavor() sqlbuilder.Flavor {
	return sqlbuilder.PostgreSQL
}

type SelectBuilder struct {
	*sqlbuilder.SelectBuilder
}

func NewSelectBuilder() *SelectBuilder {
	return &SelectBuilder{sqlbuilder.PostgreSQL.NewSelectBuilder()}
}

// FindCumulusID runs a single-column select of a surrogate id. A missing row
// reports ok=false rather than an error.
func FindCumulusID(ctx context.Context, exec Executor, sb *SelectBuilder) (int64, bool, error) {
	query, args := sb.Build()

	var id int64
	err := exec.GetContext(ctx, &id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
