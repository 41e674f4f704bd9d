package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Connect is lazy; ping the primary so a bad URI fails at startup.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = PingDB(pingCtx, client); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// PingDB checks that the primary is reachable.
func PingDB(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes of every collection and returns the first error per collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) map[string]error {
	failures := map[string]error{}
	ensure := map[string]func(context.Context, *mongo.Collection) error{
		userCollectionName:         EnsureUserIndexes,
		adminCollectionName:        EnsureAdminIndexes,
		trainerCollectionName:      EnsureTrainerIndexes,
		reviewCollectionName:       EnsureReviewIndexes,
		exerciseCollectionName:     EnsureExerciseIndexes,
		contactCollectionName:      EnsureContactIndexes,
		revokedTokenCollectionName: EnsureRevokedTokenIndexes,
	}
	for name, fn := range ensure {
		if err := fn(ctx, db.Collection(name)); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// resetTokenFilter matches the principal holding an unexpired reset token.
func resetTokenFilter(tokenHash string, now time.Time) bson.M {
	return bson.M{
		"resetTokenHash":   tokenHash,
		"resetTokenExpiry": bson.M{"$gt": now.UTC()},
	}
}

func consumeResetUpdate(passwordHash string) bson.M {
	return bson.M{
		"$set": bson.M{
			"passwordHash": passwordHash,
			"updatedAt":    time.Now().UTC(),
		},
		"$unset": bson.M{
			"resetTokenHash":   "",
			"resetTokenExpiry": "",
		},
	}
}
