package mongodb

import (
	"context"

	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &messageRepository{collection: db.Collection(MessagesCollection)}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return pkgerrors.Wrap(err, "insert message")
	}
	return nil
}

func (r *messageRepository) GetRecentByRoom(ctx context.Context, roomToken string, limit int) ([]*model.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"room_token": roomToken}, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list recent messages")
	}
	defer cursor.Close(ctx)

	var messages []*model.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, pkgerrors.Wrap(err, "decode messages")
	}
	return messages, nil
}
