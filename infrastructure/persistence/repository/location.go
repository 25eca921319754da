package repository

import (
	"context"
	"errors"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	"github.com/hilthontt/townhall/infrastructure/persistence/database"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type locationRepository struct {
	*BaseRepository[model.Location]
}

func NewLocationRepository(db *gorm.DB) repository.LocationRepository {
	return &locationRepository{BaseRepository: NewBaseRepository[model.Location](db)}
}

func (r *locationRepository) Create(ctx context.Context, location *model.Location) error {
	return r.create(ctx, location, apperror.ErrDuplicateName)
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*model.Location, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *locationRepository) FindByNameLevel(ctx context.Context, name string, level int) (*model.Location, error) {
	return r.first(ctx, "name = ? AND level = ?", name, level)
}

func (r *locationRepository) UpdateName(ctx context.Context, id, name string) error {
	result := r.db(ctx).Model(&model.Location{}).Where("id = ?", id).Update("name", name)
	switch {
	case errors.Is(result.Error, gorm.ErrDuplicatedKey):
		return apperror.ErrDuplicateName
	case result.Error != nil:
		return pkgerrors.Wrap(result.Error, "update location name")
	case result.RowsAffected == 0:
		return apperror.ErrNotFound
	}
	return nil
}

func (r *locationRepository) Delete(ctx context.Context, id string) error {
	result := r.db(ctx).Where("id = ?", id).Delete(&model.Location{})
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "delete location")
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *locationRepository) CountChildren(ctx context.Context, parentID string) (int64, error) {
	var count int64
	if err := r.db(ctx).Model(&model.Location{}).Where("parent_id = ?", parentID).Count(&count).Error; err != nil {
		return 0, pkgerrors.Wrap(err, "count child locations")
	}
	return count, nil
}

func (r *locationRepository) List(ctx context.Context, filter repository.LocationFilter) ([]*model.Location, error) {
	var locations []*model.Location
	if err := listQuery(r.db(ctx), filter).Find(&locations).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list locations")
	}
	return locations, nil
}

func listQuery(db *gorm.DB, filter repository.LocationFilter) *gorm.DB {
	qb := &database.QueryBuilder{}
	if filter.Level != nil {
		qb.Add("level = ?", *filter.Level)
	}
	if filter.ParentID != nil {
		qb.Add("parent_id = ?", *filter.ParentID)
	}
	return qb.Apply(db.Model(&model.Location{})).Order("name ASC, id ASC")
}
