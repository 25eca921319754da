package database

import (
	"strings"

	"gorm.io/gorm"
)

// QueryBuilder collects AND-ed conditions with their positional args.
type QueryBuilder struct {
	Conditions []string
	Args       []any
}

func (qb *QueryBuilder) Add(condition string, args ...any) {
	qb.Conditions = append(qb.Conditions, condition)
	qb.Args = append(qb.Args, args...)
}

func (qb *QueryBuilder) Build() (string, []any) {
	if len(qb.Conditions) == 0 {
		return "", nil
	}
	return strings.Join(qb.Conditions, " AND "), qb.Args
}

// Apply adds the built conditions to db; an empty builder leaves db as is.
func (qb *QueryBuilder) Apply(db *gorm.DB) *gorm.DB {
	query, args := qb.Build()
	if query == "" {
		return db
	}
	return db.Where(query, args...)
}
