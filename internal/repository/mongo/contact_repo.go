package mongo

import (
	"context"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contactCollectionName = "contacts"

type mongoContactRepository struct {
	collection *mongo.Collection
}

// NewMongoContactRepository creates a contact message repository backed by MongoDB.
func NewMongoContactRepository(db *mongo.Database) repository.ContactRepository {
	return &mongoContactRepository{
		collection: db.Collection(contactCollectionName),
	}
}

func (r *mongoContactRepository) Create(ctx context.Context, msg *domain.ContactMessage) (primitive.ObjectID, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()
	if msg.Status == "" {
		msg.Status = domain.ContactStatusNew
	}
	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return primitive.NilObjectID, err
	}
	return msg.ID, nil
}

// List returns all messages, newest first.
func (r *mongoContactRepository) List(ctx context.Context) ([]domain.ContactMessage, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	msgs := []domain.ContactMessage{}
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *mongoContactRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// EnsureContactIndexes creates necessary indexes for the contacts collection.
func EnsureContactIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return err
}
