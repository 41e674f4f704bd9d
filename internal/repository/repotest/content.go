package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trainers is an in-memory repository.TrainerRepository.
type Trainers struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]domain.Trainer

	// SetRatingErr, when set, is returned by SetRating only.
	SetRatingErr error
}

func NewTrainers() *Trainers {
	return &Trainers{items: map[primitive.ObjectID]domain.Trainer{}}
}

var _ repository.TrainerRepository = (*Trainers)(nil)

func (r *Trainers) Create(_ context.Context, t *domain.Trainer) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = primitive.NewObjectID()
	t.Rating = 0
	t.ReviewsCount = 0
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.items[t.ID] = *t
	return t.ID, nil
}

func (r *Trainers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *Trainers) Update(_ context.Context, id primitive.ObjectID, upd domain.TrainerUpdate) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Email != nil {
		t.Email = domain.NormalizeEmail(*upd.Email)
	}
	if upd.Specialization != nil {
		t.Specialization = *upd.Specialization
	}
	if upd.Bio != nil {
		t.Bio = *upd.Bio
	}
	if upd.ExperienceYears != nil {
		t.ExperienceYears = *upd.ExperienceYears
	}
	if upd.Location != nil {
		t.Location = *upd.Location
	}
	if upd.HourlyRate != nil {
		t.HourlyRate = *upd.HourlyRate
	}
	if upd.Certifications != nil {
		t.Certifications = upd.Certifications
	}
	if upd.IsActive != nil {
		t.IsActive = *upd.IsActive
	}
	t.UpdatedAt = time.Now().UTC()
	r.items[id] = t
	return &t, nil
}

func (r *Trainers) SetImageKey(_ context.Context, id primitive.ObjectID, key string) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.ImageKey = key
	r.items[id] = t
	return &t, nil
}

func (r *Trainers) SetRating(_ context.Context, id primitive.ObjectID, s domain.RatingSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SetRatingErr != nil {
		return r.SetRatingErr
	}
	t, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Rating = s.Rating
	t.ReviewsCount = s.ReviewsCount
	r.items[id] = t
	return nil
}

func (r *Trainers) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

// Put stores t as is, assigning an id when missing.
func (r *Trainers) Put(t domain.Trainer) domain.Trainer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	r.items[t.ID] = t
	return t
}

func (r *Trainers) Get(id primitive.ObjectID) (domain.Trainer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	return t, ok
}

// Reviews is an in-memory repository.ReviewRepository.
type Reviews struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]domain.Review
	seq   int64
	order map[primitive.ObjectID]int64
}

func NewReviews() *Reviews {
	return &Reviews{
		items: map[primitive.ObjectID]domain.Review{},
		order: map[primitive.ObjectID]int64{},
	}
}

var _ repository.ReviewRepository = (*Reviews)(nil)

func (r *Reviews) Create(_ context.Context, rv *domain.Review) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	rv.CreatedAt = now
	rv.UpdatedAt = now
	r.items[rv.ID] = *rv
	r.seq++
	r.order[rv.ID] = r.seq
	return rv.ID, nil
}

func (r *Reviews) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rv, nil
}

// GetByTrainerID returns the trainer's reviews, newest first.
func (r *Reviews) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Review{}
	for _, rv := range r.items {
		if rv.TrainerID == trainerID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] > r.order[out[j].ID] })
	return out, nil
}

func (r *Reviews) RatingsByTrainer(_ context.Context, trainerID primitive.ObjectID) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, rv := range r.items {
		if rv.TrainerID == trainerID {
			out = append(out, rv.Rating)
		}
	}
	return out, nil
}

func (r *Reviews) Update(_ context.Context, id primitive.ObjectID, rating *int, comment *string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rating != nil {
		rv.Rating = *rating
	}
	if comment != nil {
		rv.Comment = *comment
	}
	rv.UpdatedAt = time.Now().UTC()
	r.items[id] = rv
	return &rv, nil
}

func (r *Reviews) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	delete(r.order, id)
	return nil
}

func (r *Reviews) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

// Exercises is an in-memory repository.ExerciseRepository.
type Exercises struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]domain.Exercise
}

func NewExercises() *Exercises {
	return &Exercises{items: map[primitive.ObjectID]domain.Exercise{}}
}

var _ repository.ExerciseRepository = (*Exercises)(nil)

func (r *Exercises) Create(_ context.Context, e *domain.Exercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.items[e.ID] = *e
	return e.ID, nil
}

func (r *Exercises) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *Exercises) List(_ context.Context, f domain.ExerciseFilter) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Exercise{}
	for _, e := range r.items {
		if f.MuscleGroup != "" && e.MuscleGroup != f.MuscleGroup {
			continue
		}
		if f.Difficulty != "" && e.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Exercises) Update(_ context.Context, e *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.items[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	e.CreatedBy = old.CreatedBy
	e.CreatedAt = old.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	r.items[e.ID] = *e
	return nil
}

func (r *Exercises) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *Exercises) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

// Contacts is an in-memory repository.ContactRepository.
type Contacts struct {
	mu    sync.Mutex
	items []domain.ContactMessage
}

func NewContacts() *Contacts {
	return &Contacts{}
}

var _ repository.ContactRepository = (*Contacts)(nil)

func (r *Contacts) Create(_ context.Context, msg *domain.ContactMessage) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()
	if msg.Status == "" {
		msg.Status = domain.ContactStatusNew
	}
	r.items = append(r.items, *msg)
	return msg.ID, nil
}

// List returns messages newest first.
func (r *Contacts) List(_ context.Context) ([]domain.ContactMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ContactMessage, 0, len(r.items))
	for i := len(r.items) - 1; i >= 0; i-- {
		out = append(out, r.items[i])
	}
	return out, nil
}

func (r *Contacts) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

// RevokedTokens is an in-memory repository.RevokedTokenRepository.
type RevokedTokens struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewRevokedTokens() *RevokedTokens {
	return &RevokedTokens{items: map[string]time.Time{}}
}

var _ repository.RevokedTokenRepository = (*RevokedTokens)(nil)

func (r *RevokedTokens) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[tokenID] = expiresAt
	return nil
}

func (r *RevokedTokens) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[tokenID]
	return ok, nil
}
