// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"sync"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]domain.User

	// Lookups counts GetByEmail and GetByID calls.
	Lookups int
	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users {
	return &Users{items: map[primitive.ObjectID]domain.User{}}
}

var _ repository.UserRepository = (*Users)(nil)

func (r *Users) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return primitive.NilObjectID, r.Err
	}
	user.Email = domain.NormalizeEmail(user.Email)
	for _, u := range r.items {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.items[user.ID] = *user
	return user.ID, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups++
	if r.Err != nil {
		return nil, r.Err
	}
	email = domain.NormalizeEmail(email)
	for _, u := range r.items {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups++
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) UpdateProfile(_ context.Context, id primitive.ObjectID, upd domain.UserProfileUpdate) (*domain.User, error) {
	return r.mutate(id, func(u *domain.User) error {
		if upd.Email != nil {
			email := domain.NormalizeEmail(*upd.Email)
			for otherID, other := range r.items {
				if otherID != id && other.Email == email {
					return repository.ErrDuplicate
				}
			}
			u.Email = email
		}
		if upd.FirstName != nil {
			u.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			u.LastName = *upd.LastName
		}
		if upd.Phone != nil {
			u.Phone = *upd.Phone
		}
		if upd.Bio != nil {
			u.Bio = *upd.Bio
		}
		if upd.FitnessGoals != nil {
			u.FitnessGoals = upd.FitnessGoals
		}
		return nil
	})
}

func (r *Users) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := r.mutate(id, func(u *domain.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
	return err
}

func (r *Users) SetActive(_ context.Context, id primitive.ObjectID, active bool) (*domain.User, error) {
	return r.mutate(id, func(u *domain.User) error {
		u.IsActive = active
		return nil
	})
}

func (r *Users) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.mutate(id, func(u *domain.User) error {
		at := at.UTC()
		u.LastLogin = &at
		return nil
	})
	return err
}

func (r *Users) SetResetToken(_ context.Context, id primitive.ObjectID, tokenHash string, expiry time.Time) error {
	_, err := r.mutate(id, func(u *domain.User) error {
		expiry := expiry.UTC()
		u.ResetTokenHash = tokenHash
		u.ResetTokenExpiry = &expiry
		return nil
	})
	return err
}

func (r *Users) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.items {
		if resetMatches(u.ResetTokenHash, u.ResetTokenExpiry, tokenHash, now) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for id, u := range r.items {
		if resetMatches(u.ResetTokenHash, u.ResetTokenExpiry, tokenHash, now) {
			u.PasswordHash = passwordHash
			u.ResetTokenHash = ""
			u.ResetTokenExpiry = nil
			u.UpdatedAt = time.Now().UTC()
			r.items[id] = u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) Count(_ context.Context, onlyActive bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for _, u := range r.items {
		if !onlyActive || u.IsActive {
			n++
		}
	}
	return n, nil
}

// Put stores u as is, assigning an id when missing. Used to seed fixtures.
func (r *Users) Put(u domain.User) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = domain.NormalizeEmail(u.Email)
	r.items[u.ID] = u
	return u
}

// Get returns the stored user without counting a lookup.
func (r *Users) Get(id primitive.ObjectID) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	return u, ok
}

func (r *Users) mutate(id primitive.ObjectID, fn func(*domain.User) error) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u
	return &u, nil
}

func resetMatches(stored string, expiry *time.Time, tokenHash string, now time.Time) bool {
	return stored != "" && stored == tokenHash && expiry != nil && expiry.After(now)
}
