package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/keylock"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
)

type LocationUseCase interface {
	Create(ctx context.Context, name string, level int, parentID *string) (*model.Location, error)
	Rename(ctx context.Context, id, newName string) (*model.Location, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.LocationFilter) ([]*model.Location, error)
	Get(ctx context.Context, id string) (*model.Location, error)
}

type locationUseCase struct {
	repository     repository.LocationRepository
	eventPublisher events.Publisher
	logger         *logger.Logger
	locks          *keylock.KeyLock
	now            func() time.Time
}

func NewLocationUseCase(
	repository repository.LocationRepository,
	eventPublisher events.Publisher,
	logger *logger.Logger,
) LocationUseCase {
	return &locationUseCase{
		repository:     repository,
		eventPublisher: eventPublisher,
		logger:         logger,
		locks:          keylock.New(),
		now:            time.Now,
	}
}

func nameKey(name string, level int) string {
	return fmt.Sprintf("name:%d:%s", level, name)
}

func nodeKey(id string) string {
	return "node:" + id
}

func (uc *locationUseCase) Create(ctx context.Context, name string, level int, parentID *string) (*model.Location, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := ValidatePlacement(level, parentID, nil); err != nil && !errors.Is(err, apperror.ErrParentNotFound) {
		return nil, err
	}

	// Lock order is name then node; Delete only ever takes a node lock.
	unlockName := uc.locks.Lock(nameKey(name, level))
	defer unlockName()

	var parent *model.Location
	if parentID != nil && *parentID != "" {
		unlockParent := uc.locks.Lock(nodeKey(*parentID))
		defer unlockParent()

		parent, err = uc.repository.GetByID(ctx, *parentID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			uc.logger.Error("failed to resolve parent location", zap.Error(err), zap.String("parentID", *parentID))
			return nil, fmt.Errorf("failed to resolve parent location: %w", err)
		}
	}

	if err := ValidatePlacement(level, parentID, parent); err != nil {
		return nil, err
	}

	if err := uc.ensureUnique(ctx, name, level, ""); err != nil {
		return nil, err
	}

	location := &model.Location{
		ID:        uuid.NewString(),
		Name:      name,
		Level:     level,
		CreatedAt: uc.now().UTC(),
	}
	if parent != nil {
		location.ParentID = &parent.ID
	}

	if err := uc.repository.Create(ctx, location); err != nil {
		if errors.Is(err, apperror.ErrDuplicateName) {
			return nil, apperror.ErrDuplicateName
		}
		uc.logger.Error("failed to create location", zap.Error(err), zap.String("name", name), zap.Int("level", level))
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	events.PublishAsync(uc.eventPublisher, uc.logger, events.NewEvent(events.EventLocationCreated, "", map[string]any{
		"id":       location.ID,
		"name":     location.Name,
		"level":    location.Level,
		"parentId": location.ParentID,
	}))

	uc.logger.Info("location created",
		zap.String("locationID", location.ID),
		zap.String("name", location.Name),
		zap.Int("level", location.Level),
	)
	return location, nil
}

func (uc *locationUseCase) Rename(ctx context.Context, id, newName string) (*model.Location, error) {
	if id == "" {
		return nil, apperror.ErrNotFound
	}
	newName, err := normalizeName(newName)
	if err != nil {
		return nil, err
	}

	location, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, uc.wrapLookup(err, id)
	}
	if location.Name == newName {
		return location, nil
	}

	unlockName := uc.locks.Lock(nameKey(newName, location.Level))
	defer unlockName()

	if err := uc.ensureUnique(ctx, newName, location.Level, location.ID); err != nil {
		return nil, err
	}

	if err := uc.repository.UpdateName(ctx, location.ID, newName); err != nil {
		switch {
		case errors.Is(err, apperror.ErrDuplicateName), errors.Is(err, apperror.ErrNotFound):
			return nil, err
		}
		uc.logger.Error("failed to rename location", zap.Error(err), zap.String("locationID", id))
		return nil, fmt.Errorf("failed to rename location: %w", err)
	}

	oldName := location.Name
	location.Name = newName

	events.PublishAsync(uc.eventPublisher, uc.logger, events.NewEvent(events.EventLocationRenamed, "", map[string]any{
		"id":      location.ID,
		"oldName": oldName,
		"name":    newName,
	}))

	uc.logger.Info("location renamed", zap.String("locationID", id), zap.String("from", oldName), zap.String("to", newName))
	return location, nil
}

func (uc *locationUseCase) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperror.ErrNotFound
	}

	unlock := uc.locks.Lock(nodeKey(id))
	defer unlock()

	location, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return uc.wrapLookup(err, id)
	}

	children, err := uc.repository.CountChildren(ctx, id)
	if err != nil {
		uc.logger.Error("failed to count child locations", zap.Error(err), zap.String("locationID", id))
		return fmt.Errorf("failed to count child locations: %w", err)
	}
	if children > 0 {
		return apperror.ErrHasChildren.Withf("location %q has %d children and cannot be deleted", location.Name, children)
	}

	if err := uc.repository.Delete(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		uc.logger.Error("failed to delete location", zap.Error(err), zap.String("locationID", id))
		return fmt.Errorf("failed to delete location: %w", err)
	}

	events.PublishAsync(uc.eventPublisher, uc.logger, events.NewEvent(events.EventLocationDeleted, "", map[string]any{
		"id":    location.ID,
		"name":  location.Name,
		"level": location.Level,
	}))

	uc.logger.Info("location deleted", zap.String("locationID", id))
	return nil
}

func (uc *locationUseCase) List(ctx context.Context, filter repository.LocationFilter) ([]*model.Location, error) {
	if filter.Level != nil && !model.ValidLevel(*filter.Level) {
		return nil, apperror.ErrInvalidLevel
	}

	locations, err := uc.repository.List(ctx, filter)
	if err != nil {
		uc.logger.Error("failed to list locations", zap.Error(err))
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	if locations == nil {
		locations = []*model.Location{}
	}
	return locations, nil
}

func (uc *locationUseCase) Get(ctx context.Context, id string) (*model.Location, error) {
	if id == "" {
		return nil, apperror.ErrNotFound
	}
	location, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, uc.wrapLookup(err, id)
	}
	return location, nil
}

// ensureUnique fails with ErrDuplicateName when another node than exceptID
// already holds (name, level).
func (uc *locationUseCase) ensureUnique(ctx context.Context, name string, level int, exceptID string) error {
	existing, err := uc.repository.FindByNameLevel(ctx, name, level)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	case err != nil:
		uc.logger.Error("failed to check location uniqueness", zap.Error(err), zap.String("name", name), zap.Int("level", level))
		return fmt.Errorf("failed to check location uniqueness: %w", err)
	case existing.ID != exceptID:
		return apperror.ErrDuplicateName.Withf("a level %d %s named %q already exists", level, model.LevelName(level), name)
	}
	return nil
}

func (uc *locationUseCase) wrapLookup(err error, id string) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.ErrNotFound.Withf("location %s not found", id)
	}
	uc.logger.Error("failed to get location", zap.Error(err), zap.String("locationID", id))
	return fmt.Errorf("failed to get location: %w", err)
}
