package mongo

import (
	"context"
	"errors"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainerCollectionName = "trainers"

// mongoTrainerRepository implements repository.TrainerRepository
type mongoTrainerRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainerRepository creates a new Trainer repository backed by MongoDB.
func NewMongoTrainerRepository(db *mongo.Database) repository.TrainerRepository {
	return &mongoTrainerRepository{
		collection: db.Collection(trainerCollectionName),
	}
}

// Create inserts a trainer with a zeroed aggregate.
func (r *mongoTrainerRepository) Create(ctx context.Context, trainer *domain.Trainer) (primitive.ObjectID, error) {
	if trainer.Name == "" {
		return primitive.NilObjectID, errors.New("trainer name is required")
	}

	trainer.ID = primitive.NewObjectID()
	trainer.Rating = 0
	trainer.ReviewsCount = 0
	now := time.Now().UTC()
	trainer.CreatedAt = now
	trainer.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, trainer); err != nil {
		return primitive.NilObjectID, err
	}
	return trainer.ID, nil
}

func (r *mongoTrainerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	var trainer domain.Trainer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trainer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &trainer, nil
}

// Update modifies the editable fields of a trainer.
// rating and reviewsCount are never part of the $set document.
func (r *mongoTrainerRepository) Update(ctx context.Context, id primitive.ObjectID, upd domain.TrainerUpdate) (*domain.Trainer, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = domain.NormalizeEmail(*upd.Email)
	}
	if upd.Specialization != nil {
		set["specialization"] = *upd.Specialization
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.ExperienceYears != nil {
		set["experienceYears"] = *upd.ExperienceYears
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.HourlyRate != nil {
		set["hourlyRate"] = *upd.HourlyRate
	}
	if upd.Certifications != nil {
		set["certifications"] = upd.Certifications
	}
	if upd.IsActive != nil {
		set["isActive"] = *upd.IsActive
	}
	return r.findOneAndSet(ctx, id, set)
}

func (r *mongoTrainerRepository) SetImageKey(ctx context.Context, id primitive.ObjectID, key string) (*domain.Trainer, error) {
	return r.findOneAndSet(ctx, id, bson.M{"imageKey": key, "updatedAt": time.Now().UTC()})
}

// SetRating overwrites the derived aggregate fields.
func (r *mongoTrainerRepository) SetRating(ctx context.Context, id primitive.ObjectID, summary domain.RatingSummary) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"rating":       summary.Rating,
		"reviewsCount": summary.ReviewsCount,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTrainerRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *mongoTrainerRepository) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*domain.Trainer, error) {
	var trainer domain.Trainer
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&trainer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &trainer, nil
}

// EnsureTrainerIndexes creates necessary indexes for the trainers collection.
func EnsureTrainerIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "specialization", Value: 1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
