package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomRepository definition "room exists" records. Rooms are created
// implicitly on first use, so the only write is an upsert-by-id.
type RoomRepository interface {
	EnsureRoom(ctx context.Context, roomID string) error
}

type roomRepository struct {
	coll *mongo.Collection
}

// NewMongoRoomRepository create a RoomRepository backed by mongo
func NewMongoRoomRepository(db *mongo.Database) RoomRepository {
	return &roomRepository{
		coll: db.Collection("rooms"),
	}
}

// EnsureRoom upsert room record by id
func (r *roomRepository) EnsureRoom(ctx context.Context, roomID string) error {
	filter := bson.M{"_id": roomID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        roomID,
			"created_at": time.Now().UTC(),
		},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
