package mongo

import (
	"context"
	"errors"
	"time"

	"trackify/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const revokedTokenCollectionName = "revoked_tokens"

type revokedToken struct {
	ID        string    `bson:"_id"` // token jti
	ExpiresAt time.Time `bson:"expiresAt"`
}

type mongoRevokedTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoRevokedTokenRepository creates the token deny-list backed by MongoDB.
func NewMongoRevokedTokenRepository(db *mongo.Database) repository.RevokedTokenRepository {
	return &mongoRevokedTokenRepository{
		collection: db.Collection(revokedTokenCollectionName),
	}
}

// Revoke records the token id. Revoking twice is not an error.
func (r *mongoRevokedTokenRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": tokenID},
		bson.M{"$set": bson.M{"expiresAt": expiresAt.UTC()}},
		opts,
	)
	return err
}

func (r *mongoRevokedTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var doc revokedToken
	err := r.collection.FindOne(ctx, bson.M{"_id": tokenID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureRevokedTokenIndexes adds the TTL index that drops entries once the token has expired anyway.
func EnsureRevokedTokenIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}
