package mongodb

import (
	"context"
	"errors"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type locationRepository struct {
	collection *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) repository.LocationRepository {
	return &locationRepository{collection: db.Collection(LocationsCollection)}
}

func (r *locationRepository) Create(ctx context.Context, location *model.Location) error {
	_, err := r.collection.InsertOne(ctx, location)
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return apperror.ErrDuplicateName
	default:
		return pkgerrors.Wrap(err, "insert location")
	}
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*model.Location, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *locationRepository) FindByNameLevel(ctx context.Context, name string, level int) (*model.Location, error) {
	return r.findOne(ctx, bson.M{"name": name, "level": level})
}

func (r *locationRepository) findOne(ctx context.Context, filter bson.M) (*model.Location, error) {
	var location model.Location
	err := r.collection.FindOne(ctx, filter).Decode(&location)
	switch {
	case err == nil:
		return &location, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, apperror.ErrNotFound
	default:
		return nil, pkgerrors.Wrap(err, "find location")
	}
}

func (r *locationRepository) UpdateName(ctx context.Context, id, name string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"name": name}})
	switch {
	case mongo.IsDuplicateKeyError(err):
		return apperror.ErrDuplicateName
	case err != nil:
		return pkgerrors.Wrap(err, "update location name")
	case result.MatchedCount == 0:
		return apperror.ErrNotFound
	}
	return nil
}

func (r *locationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return pkgerrors.Wrap(err, "delete location")
	}
	if result.DeletedCount == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *locationRepository) CountChildren(ctx context.Context, parentID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"parent_id": parentID})
	if err != nil {
		return 0, pkgerrors.Wrap(err, "count child locations")
	}
	return count, nil
}

func (r *locationRepository) List(ctx context.Context, filter repository.LocationFilter) ([]*model.Location, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, listFilter(filter), opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list locations")
	}
	defer cursor.Close(ctx)

	var locations []*model.Location
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, pkgerrors.Wrap(err, "decode locations")
	}
	return locations, nil
}

func listFilter(filter repository.LocationFilter) bson.M {
	out := bson.M{}
	if filter.Level != nil {
		out["level"] = *filter.Level
	}
	if filter.ParentID != nil {
		out["parent_id"] = *filter.ParentID
	}
	return out
}
