package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// NewInsertBuilder returns a postgres flavoured insert builder.
func NewInsertBuilder() *sqlbuilder.InsertBuilder {
	return sqlbuilder.PostgreSQL.NewInsertBuilder()
}

func NewSelectBuilder() *sqlbuilder.SelectBuilder {
	return sqlbuilder.PostgreSQL.NewSelectBuilder()
}

func NewUpdateBuilder() *sqlbuilder.UpdateBuilder {
	return sqlbuilder.PostgreSQL.NewUpdateBuilder()
}

// OnConflictDoNothing appends the postgres upsert guard to an insert built by NewInsertBuilder.
func OnConflictDoNothing(query string, columns ...string) string {
	if len(columns) == 0 {
		return query + " ON CONFLICT DO NOTHING"
	}
	return fmt.Sprintf("%s ON CONFLICT (%s) DO NOTHING", query, strings.Join(columns, ", "))
}
