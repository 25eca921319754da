package repository

import (
	"context"

	"github.com/hilthontt/townhall/domain/model"
)

//go:generate go run go.uber.org/mock/mockgen -source=location.go -destination=../../mocks/mock_location_repository.go -package=mocks

// LocationFilter narrows List. Nil fields do not filter.
type LocationFilter struct {
	Level    *int
	ParentID *string
}

// LocationRepository stores the location tree. Create must reject a second
// node with the same (name, level) with apperror.ErrDuplicateName even when
// racing, and lookups of unknown ids return apperror.ErrNotFound.
type LocationRepository interface {
	Create(ctx context.Context, location *model.Location) error
	GetByID(ctx context.Context, id string) (*model.Location, error)
	FindByNameLevel(ctx context.Context, name string, level int) (*model.Location, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	CountChildren(ctx context.Context, parentID string) (int64, error)
	List(ctx context.Context, filter LocationFilter) ([]*model.Location, error)
}
