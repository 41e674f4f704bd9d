package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/repository"
	"trackify/api/internal/storage"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerProfile is a trainer with a short-lived image URL when it has an image.
type TrainerProfile struct {
	domain.Trainer
	ImageURL string `json:"imageUrl,omitempty"`
}

// TrainerInput holds the fields of a new trainer.
type TrainerInput struct {
	Name            string
	Email           string
	Specialization  string
	Bio             string
	ExperienceYears int
	Location        string
	HourlyRate      float64
	Certifications  []string
	IsActive        *bool
}

// ImageUpload describes a presigned upload the client performs directly against storage.
type ImageUpload struct {
	UploadURL string        `json:"uploadUrl"`
	ObjectKey string        `json:"objectKey"`
	ExpiresIn time.Duration `json:"-"`
}

type TrainerService interface {
	Create(ctx context.Context, in TrainerInput) (*TrainerProfile, error)
	Get(ctx context.Context, id string) (*TrainerProfile, error)
	// Update never touches rating or reviewsCount.
	Update(ctx context.Context, id string, upd domain.TrainerUpdate) (*TrainerProfile, error)
	CreateImageUpload(ctx context.Context, id, contentType string) (*ImageUpload, error)
	// ConfirmImage points the trainer at an uploaded object and deletes the previous one.
	ConfirmImage(ctx context.Context, id, objectKey string) (*TrainerProfile, error)
}

type trainerService struct {
	trainers repository.TrainerRepository
	storage  storage.FileStorage // nil when no bucket is configured
	log      zerolog.Logger
}

func NewTrainerService(trainers repository.TrainerRepository, fileStorage storage.FileStorage, logger zerolog.Logger) TrainerService {
	return &trainerService{trainers: trainers, storage: fileStorage, log: logger}
}

func parseID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, InvalidInput(field, "must be a valid id")
	}
	return id, nil
}

func (s *trainerService) Create(ctx context.Context, in TrainerInput) (*TrainerProfile, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(in.Specialization) == "" {
		fields["specialization"] = "is required"
	}
	validateTrainerNumbers(fields, &in.ExperienceYears, &in.HourlyRate)
	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	trainer := &domain.Trainer{
		Name:            strings.TrimSpace(in.Name),
		Email:           domain.NormalizeEmail(in.Email),
		Specialization:  strings.TrimSpace(in.Specialization),
		Bio:             in.Bio,
		ExperienceYears: in.ExperienceYears,
		Location:        in.Location,
		HourlyRate:      in.HourlyRate,
		Certifications:  in.Certifications,
		IsActive:        active,
	}
	if _, err := s.trainers.Create(ctx, trainer); err != nil {
		return nil, fmt.Errorf("create trainer: %w", err)
	}
	return &TrainerProfile{Trainer: *trainer}, nil
}

func (s *trainerService) Get(ctx context.Context, id string) (*TrainerProfile, error) {
	trainerID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	trainer, err := s.trainers.GetByID(ctx, trainerID)
	if err != nil {
		return nil, notFoundOr(err, "Trainer", "get trainer")
	}
	return s.profile(ctx, trainer), nil
}

func (s *trainerService) Update(ctx context.Context, id string, upd domain.TrainerUpdate) (*TrainerProfile, error) {
	trainerID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		fields["name"] = "cannot be empty"
	}
	if upd.Specialization != nil && strings.TrimSpace(*upd.Specialization) == "" {
		fields["specialization"] = "cannot be empty"
	}
	validateTrainerNumbers(fields, upd.ExperienceYears, upd.HourlyRate)
	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}

	trainer, err := s.trainers.Update(ctx, trainerID, upd)
	if err != nil {
		return nil, notFoundOr(err, "Trainer", "update trainer")
	}
	return s.profile(ctx, trainer), nil
}

func (s *trainerService) CreateImageUpload(ctx context.Context, id, contentType string) (*ImageUpload, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	trainerID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	if _, err := s.trainers.GetByID(ctx, trainerID); err != nil {
		return nil, notFoundOr(err, "Trainer", "image upload")
	}

	key, err := storage.TrainerImageKey(trainerID.Hex(), contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, InvalidInput("contentType", "must be image/jpeg, image/png or image/webp")
		}
		return nil, err
	}
	url, err := s.storage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign trainer image: %w", err)
	}
	return &ImageUpload{UploadURL: url, ObjectKey: key, ExpiresIn: storage.DefaultPresignedURLExpiry}, nil
}

func (s *trainerService) ConfirmImage(ctx context.Context, id, objectKey string) (*TrainerProfile, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	trainerID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	if !storage.IsTrainerImageKey(trainerID.Hex(), objectKey) {
		return nil, InvalidInput("objectKey", "does not belong to this trainer")
	}

	previous, err := s.trainers.GetByID(ctx, trainerID)
	if err != nil {
		return nil, notFoundOr(err, "Trainer", "confirm image")
	}
	trainer, err := s.trainers.SetImageKey(ctx, trainerID, objectKey)
	if err != nil {
		return nil, notFoundOr(err, "Trainer", "confirm image")
	}

	if previous.ImageKey != "" && previous.ImageKey != objectKey {
		if err := s.storage.DeleteObject(ctx, previous.ImageKey); err != nil {
			s.log.Warn().Err(err).Str("key", previous.ImageKey).Msg("could not delete previous trainer image")
		}
	}
	return s.profile(ctx, trainer), nil
}

func (s *trainerService) profile(ctx context.Context, t *domain.Trainer) *TrainerProfile {
	p := &TrainerProfile{Trainer: *t}
	if t.ImageKey == "" || s.storage == nil {
		return p
	}
	url, err := s.storage.GeneratePresignedDownloadURL(ctx, t.ImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.log.Warn().Err(err).Str("trainer_id", t.ID.Hex()).Msg("could not presign trainer image")
		return p
	}
	p.ImageURL = url
	return p
}

func validateTrainerNumbers(fields map[string]string, years *int, rate *float64) {
	if years != nil && *years < 0 {
		fields["experienceYears"] = "cannot be negative"
	}
	if rate != nil && *rate < 0 {
		fields["hourlyRate"] = "cannot be negative"
	}
}
