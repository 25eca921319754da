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
)

type roomRepository struct {
	collection *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) repository.RoomRepository {
	return &roomRepository{collection: db.Collection(RoomsCollection)}
}

func (r *roomRepository) Create(ctx context.Context, room *model.Room) error {
	_, err := r.collection.InsertOne(ctx, room)
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return apperror.ErrDuplicateToken
	default:
		return pkgerrors.Wrap(err, "insert room")
	}
}

func (r *roomRepository) GetByToken(ctx context.Context, token string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&room)
	switch {
	case err == nil:
		return &room, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, apperror.ErrNotFound
	default:
		return nil, pkgerrors.Wrap(err, "find room")
	}
}
