package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cuberooms/internal/model"
)

type ParticipantRepo interface {
	Create(ctx context.Context, p *model.Participant) error
	Get(ctx context.Context, roomID, userID string) (*model.Participant, error)
	ListByRoom(ctx context.Context, roomID string) ([]*model.Participant, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Participant, error)
	CountByRoom(ctx context.Context, roomID string) (int, error)
	Update(ctx context.Context, p *model.Participant) error
}

type participantRepo struct {
	collection *mongo.Collection
}

func NewParticipantRepo(db *mongo.Database) ParticipantRepo {
	return &participantRepo{
		collection: db.Collection("participants"),
	}
}

func (r *participantRepo) Create(ctx context.Context, p *model.Participant) error {
	_, err := r.collection.InsertOne(ctx, p)
	return err
}

func (r *participantRepo) Get(ctx context.Context, roomID, userID string) (*model.Participant, error) {
	var p model.Participant
	err := r.collection.FindOne(ctx, bson.M{"roomId": roomID, "userId": userID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *participantRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.Participant
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *participantRepo) ListByUser(ctx context.Context, userID string) ([]*model.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.Participant
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *participantRepo) CountByRoom(ctx context.Context, roomID string) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"roomId": roomID})
	return int(n), err
}

// Update replaces the whole document. Callers hold the per-room lock, so a
// replace cannot clobber a concurrent solve append.
func (r *participantRepo) Update(ctx context.Context, p *model.Participant) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	return err
}
