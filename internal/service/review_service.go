package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"trackify/api/internal/domain"
	"trackify/api/internal/repository"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCommentLength = 1000

// RatingAggregator recomputes a trainer's aggregate from its current reviews.
type RatingAggregator interface {
	Recompute(ctx context.Context, trainerID primitive.ObjectID) (domain.RatingSummary, error)
}

// ReviewInput holds the fields of a new review.
type ReviewInput struct {
	TrainerID string
	Rating    int
	Comment   string
	// UserName defaults to the author's full name.
	UserName string
}

// ReviewUpdate has no trainer field: a review never moves to another trainer.
type ReviewUpdate struct {
	Rating  *int
	Comment *string
}

// ReviewResult carries the written review and the trainer aggregate after the write.
// Trainer is nil when the aggregate could not be refreshed.
type ReviewResult struct {
	Review  *domain.Review
	Trainer *domain.RatingSummary
}

// ReviewView is a listed review. IsMine is only set when a viewer is known.
type ReviewView struct {
	domain.Review
	IsMine *bool `json:"isMine,omitempty"`
}

type ReviewService interface {
	Create(ctx context.Context, author *domain.Principal, in ReviewInput) (*ReviewResult, error)
	// Update and Delete are allowed for the author and for principals with role admin.
	Update(ctx context.Context, p *domain.Principal, reviewID string, upd ReviewUpdate) (*ReviewResult, error)
	Delete(ctx context.Context, p *domain.Principal, reviewID string) (*ReviewResult, error)
	ListForTrainer(ctx context.Context, trainerID string, viewer *domain.Principal) ([]ReviewView, error)
}

type reviewService struct {
	reviews    repository.ReviewRepository
	trainers   repository.TrainerRepository
	aggregator RatingAggregator
	log        zerolog.Logger
}

func NewReviewService(reviews repository.ReviewRepository, trainers repository.TrainerRepository, aggregator RatingAggregator, logger zerolog.Logger) ReviewService {
	return &reviewService{reviews: reviews, trainers: trainers, aggregator: aggregator, log: logger}
}

func (s *reviewService) Create(ctx context.Context, author *domain.Principal, in ReviewInput) (*ReviewResult, error) {
	if author == nil {
		return nil, ErrNotLoggedIn
	}
	fields := map[string]string{}
	trainerID, err := primitive.ObjectIDFromHex(in.TrainerID)
	if err != nil {
		fields["trainer"] = "must be a valid trainer id"
	}
	validateRating(fields, &in.Rating)
	validateComment(fields, &in.Comment)
	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}

	// The trainer must exist before anything is written.
	if _, err := s.trainers.GetByID(ctx, trainerID); err != nil {
		return nil, notFoundOr(err, "Trainer", "create review")
	}

	userName := strings.TrimSpace(in.UserName)
	if userName == "" {
		userName = author.FullName()
	}
	review := &domain.Review{
		TrainerID: trainerID,
		UserID:    author.ID(),
		UserName:  userName,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if _, err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	return &ReviewResult{Review: review, Trainer: s.refresh(ctx, trainerID, review.ID)}, nil
}

func (s *reviewService) Update(ctx context.Context, p *domain.Principal, reviewID string, upd ReviewUpdate) (*ReviewResult, error) {
	review, err := s.ownedReview(ctx, p, reviewID)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	validateRating(fields, upd.Rating)
	if upd.Comment != nil {
		c := strings.TrimSpace(*upd.Comment)
		upd.Comment = &c
		validateComment(fields, upd.Comment)
	}
	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}

	updated, err := s.reviews.Update(ctx, review.ID, upd.Rating, upd.Comment)
	if err != nil {
		return nil, notFoundOr(err, "Review", "update review")
	}
	// Keyed on the stored trainer reference, which the update cannot change.
	return &ReviewResult{Review: updated, Trainer: s.refresh(ctx, review.TrainerID, review.ID)}, nil
}

func (s *reviewService) Delete(ctx context.Context, p *domain.Principal, reviewID string) (*ReviewResult, error) {
	review, err := s.ownedReview(ctx, p, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return nil, notFoundOr(err, "Review", "delete review")
	}
	return &ReviewResult{Review: review, Trainer: s.refresh(ctx, review.TrainerID, review.ID)}, nil
}

func (s *reviewService) ListForTrainer(ctx context.Context, trainerID string, viewer *domain.Principal) ([]ReviewView, error) {
	id, err := parseID(trainerID, "trainerId")
	if err != nil {
		return nil, err
	}
	if _, err := s.trainers.GetByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "Trainer", "list reviews")
	}
	reviews, err := s.reviews.GetByTrainerID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	views := make([]ReviewView, len(reviews))
	for i, r := range reviews {
		views[i] = ReviewView{Review: r}
		if viewer != nil {
			mine := r.UserID == viewer.ID()
			views[i].IsMine = &mine
		}
	}
	return views, nil
}

func (s *reviewService) ownedReview(ctx context.Context, p *domain.Principal, reviewID string) (*domain.Review, error) {
	if p == nil {
		return nil, ErrNotLoggedIn
	}
	id, err := parseID(reviewID, "id")
	if err != nil {
		return nil, err
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Review", "get review")
	}
	if review.UserID != p.ID() && p.Role() != domain.RoleAdmin {
		return nil, Forbidden("You can only modify your own reviews")
	}
	return review, nil
}

// refresh recomputes the trainer aggregate after a review write. A failure leaves the
// review in place and the aggregate stale until the next write for that trainer.
func (s *reviewService) refresh(ctx context.Context, trainerID, reviewID primitive.ObjectID) *domain.RatingSummary {
	summary, err := s.aggregator.Recompute(ctx, trainerID)
	if err != nil {
		s.log.Error().Err(err).
			Str("trainer_id", trainerID.Hex()).
			Str("review_id", reviewID.Hex()).
			Msg("trainer rating left stale after review write")
		return nil
	}
	return &summary
}

func validateRating(fields map[string]string, rating *int) {
	if rating != nil && (*rating < domain.MinRating || *rating > domain.MaxRating) {
		fields["rating"] = fmt.Sprintf("must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
}

func validateComment(fields map[string]string, comment *string) {
	if comment == nil {
		return
	}
	c := strings.TrimSpace(*comment)
	if c == "" {
		fields["comment"] = "is required"
	} else if utf8.RuneCountInString(c) > maxCommentLength {
		fields["comment"] = fmt.Sprintf("must be at most %d characters", maxCommentLength)
	}
}
