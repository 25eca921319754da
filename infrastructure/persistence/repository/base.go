package repository

import (
	"context"
	"errors"

	"github.com/hilthontt/townhall/domain/apperror"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// BaseRepository holds what every gorm repository shares: the handle and
// the mapping of driver errors onto the domain taxonomy.
type BaseRepository[TEntity any] struct {
	database *gorm.DB
}

func NewBaseRepository[TEntity any](database *gorm.DB) *BaseRepository[TEntity] {
	return &BaseRepository[TEntity]{database: database}
}

func (r *BaseRepository[TEntity]) db(ctx context.Context) *gorm.DB {
	return r.database.WithContext(ctx)
}

// create inserts entity in its own transaction. A unique violation comes
// back as onDuplicate.
func (r *BaseRepository[TEntity]) create(ctx context.Context, entity *TEntity, onDuplicate error) error {
	err := r.db(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return onDuplicate
	default:
		return pkgerrors.Wrap(err, "insert")
	}
}

func (r *BaseRepository[TEntity]) first(ctx context.Context, query string, args ...any) (*TEntity, error) {
	entity := new(TEntity)
	err := r.db(ctx).Where(query, args...).First(entity).Error
	switch {
	case err == nil:
		return entity, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperror.ErrNotFound
	default:
		return nil, pkgerrors.Wrap(err, "select")
	}
}
