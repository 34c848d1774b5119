package repository

import (
	"context"
	"time"

	"ephemeral_chat/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MessageRepository definition the backend message row store
type MessageRepository interface {
	// InsertMessage 寫入一筆聊天訊息 row
	InsertMessage(ctx context.Context, msg *domain.Message) error
	// FindLatestMessages newest page for a room, newest first
	FindLatestMessages(ctx context.Context, roomID string, limit int64) ([]domain.Message, error)
	// FindMessagesBefore older page for pagination, newest first
	FindMessagesBefore(ctx context.Context, roomID string, before time.Time, limit int64) ([]domain.Message, error)
	// Ping connectivity probe
	Ping(ctx context.Context) error
}

type chatMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository backed by mongo
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &chatMessageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *chatMessageRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *chatMessageRepository) FindLatestMessages(ctx context.Context, roomID string, limit int64) ([]domain.Message, error) {
	filter := bson.M{"room_id": roomID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit)
	return r.find(ctx, filter, opts)
}

func (r *chatMessageRepository) FindMessagesBefore(ctx context.Context, roomID string, before time.Time, limit int64) ([]domain.Message, error) {
	filter := bson.M{
		"room_id":    roomID,
		"created_at": bson.M{"$lt": before},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit)
	return r.find(ctx, filter, opts)
}

func (r *chatMessageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Message, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *chatMessageRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}
