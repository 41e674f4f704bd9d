package repository

import (
	"context"
	"time"

	"trackify/api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd domain.UserProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expiry time.Time) error
	// FindByResetToken returns the user holding an unexpired reset token with this hash.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	// ConsumeResetToken atomically replaces the password of the user holding an
	// unexpired token and clears the token. ErrNotFound when nothing matched.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error)
	Count(ctx context.Context, onlyActive bool) (int64, error)
}

// AdminRepository defines the interface for interacting with admin accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Admin, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, firstName, lastName, phone *string) (*domain.Admin, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expiry time.Time) error
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.Admin, error)
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.Admin, error)
	Count(ctx context.Context) (int64, error)
}

// TrainerRepository defines the interface for interacting with trainer profiles.
type TrainerRepository interface {
	Create(ctx context.Context, trainer *domain.Trainer) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error)
	// Update applies the editable fields. It never writes rating or reviewsCount.
	Update(ctx context.Context, id primitive.ObjectID, upd domain.TrainerUpdate) (*domain.Trainer, error)
	SetImageKey(ctx context.Context, id primitive.ObjectID, key string) (*domain.Trainer, error)
	// SetRating overwrites the aggregate fields.
	SetRating(ctx context.Context, id primitive.ObjectID, summary domain.RatingSummary) error
	Count(ctx context.Context) (int64, error)
}

// ReviewRepository defines the interface for interacting with reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Review, error)
	// RatingsByTrainer returns the rating of every review referencing trainerID.
	RatingsByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]int, error)
	Update(ctx context.Context, id primitive.ObjectID, rating *int, comment *string) (*domain.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	List(ctx context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// ContactRepository stores contact form messages.
type ContactRepository interface {
	Create(ctx context.Context, msg *domain.ContactMessage) (primitive.ObjectID, error)
	List(ctx context.Context) ([]domain.ContactMessage, error)
	Count(ctx context.Context) (int64, error)
}

// RevokedTokenRepository is the server-side deny-list of logged-out token ids.
type RevokedTokenRepository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
