package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cuberooms/internal/model"
)

type RoomRepo interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetByCode(ctx context.Context, code string) (*model.Room, error)
	Update(ctx context.Context, room *model.Room) error
	CodeInUse(ctx context.Context, code string) (bool, error)
	FindExpirable(ctx context.Context, now time.Time) ([]*model.Room, error)
}

type roomRepo struct {
	collection *mongo.Collection
}

func NewRoomRepo(db *mongo.Database) RoomRepo {
	return &roomRepo{
		collection: db.Collection("rooms"),
	}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	_, err := r.collection.InsertOne(ctx, room)
	return err
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// GetByCode resolves a room by its uppercase code. An expired room's code can
// be reallocated, so a live room wins over an expired one with the same code;
// with only expired matches the newest is returned (expiration is a state,
// not deletion).
func (r *roomRepo) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{
		"code":  code,
		"state": bson.M{"$ne": model.RoomExpired},
	}).Decode(&room)
	if err == nil {
		return &room, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err = r.collection.FindOne(ctx, bson.M{"code": code}, opts).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) Update(ctx context.Context, room *model.Room) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": room.ID}, room)
	return err
}

// CodeInUse reports whether a non-expired room currently holds the code.
func (r *roomRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{
		"code":  code,
		"state": bson.M{"$ne": model.RoomExpired},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindExpirable lists open rooms whose deadline has passed.
func (r *roomRepo) FindExpirable(ctx context.Context, now time.Time) ([]*model.Room, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"state":     bson.M{"$in": []model.RoomState{model.RoomWaiting, model.RoomActive}},
		"expiresAt": bson.M{"$lte": now},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}
