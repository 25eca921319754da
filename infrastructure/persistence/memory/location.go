// Package memory keeps every entity in process memory. It backs the
// "memory" database driver and the use case tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
)

type locationRepository struct {
	mu     sync.RWMutex
	byID   map[string]model.Location
	byName map[string]string
}

func NewLocationRepository() repository.LocationRepository {
	return &locationRepository{
		byID:   make(map[string]model.Location),
		byName: make(map[string]string),
	}
}

func uniqueKey(name string, level int) string {
	return fmt.Sprintf("%d\x00%s", level, name)
}

func (r *locationRepository) Create(_ context.Context, location *model.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := uniqueKey(location.Name, location.Level)
	if _, taken := r.byName[key]; taken {
		return apperror.ErrDuplicateName
	}
	r.byID[location.ID] = cloneLocation(*location)
	r.byName[key] = location.ID
	return nil
}

func (r *locationRepository) GetByID(_ context.Context, id string) (*model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.byID[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	out := cloneLocation(loc)
	return &out, nil
}

func (r *locationRepository) FindByNameLevel(_ context.Context, name string, level int) (*model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[uniqueKey(name, level)]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	out := cloneLocation(r.byID[id])
	return &out, nil
}

func (r *locationRepository) UpdateName(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.byID[id]
	if !ok {
		return apperror.ErrNotFound
	}

	newKey := uniqueKey(name, loc.Level)
	if owner, taken := r.byName[newKey]; taken && owner != id {
		return apperror.ErrDuplicateName
	}

	delete(r.byName, uniqueKey(loc.Name, loc.Level))
	loc.Name = name
	r.byID[id] = loc
	r.byName[newKey] = id
	return nil
}

func (r *locationRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.byID[id]
	if !ok {
		return apperror.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byName, uniqueKey(loc.Name, loc.Level))
	return nil
}

func (r *locationRepository) CountChildren(_ context.Context, parentID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, loc := range r.byID {
		if loc.ParentID != nil && *loc.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (r *locationRepository) List(_ context.Context, filter repository.LocationFilter) ([]*model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Location, 0, len(r.byID))
	for _, loc := range r.byID {
		if filter.Level != nil && loc.Level != *filter.Level {
			continue
		}
		if filter.ParentID != nil && (loc.ParentID == nil || *loc.ParentID != *filter.ParentID) {
			continue
		}
		c := cloneLocation(loc)
		out = append(out, &c)
	}

	slices.SortFunc(out, func(a, b *model.Location) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func cloneLocation(l model.Location) model.Location {
	if l.ParentID != nil {
		p := *l.ParentID
		l.ParentID = &p
	}
	return l
}
