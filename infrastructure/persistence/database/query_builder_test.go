package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryBuilder(t *testing.T) {
	req := require.New(t)

	qb := &QueryBuilder{}
	query, args := qb.Build()
	req.Empty(query)
	req.Nil(args)

	qb.Add("level = ?", 2)
	qb.Add("parent_id = ?", "hanoi")
	query, args = qb.Build()
	req.Equal("level = ? AND parent_id = ?", query)
	req.Equal([]any{2, "hanoi"}, args)
}
