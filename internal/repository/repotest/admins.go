package repotest

import (
	"context"
	"sync"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admins is an in-memory repository.AdminRepository.
type Admins struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]domain.Admin

	Lookups int
	Err     error
}

func NewAdmins() *Admins {
	return &Admins{items: map[primitive.ObjectID]domain.Admin{}}
}

var _ repository.AdminRepository = (*Admins)(nil)

func (r *Admins) Create(_ context.Context, admin *domain.Admin) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return primitive.NilObjectID, r.Err
	}
	admin.Email = domain.NormalizeEmail(admin.Email)
	for _, a := range r.items {
		if a.Email == admin.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	admin.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	r.items[admin.ID] = *admin
	return admin.ID, nil
}

func (r *Admins) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups++
	if r.Err != nil {
		return nil, r.Err
	}
	email = domain.NormalizeEmail(email)
	for _, a := range r.items {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Admins) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups++
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *Admins) UpdateProfile(_ context.Context, id primitive.ObjectID, firstName, lastName, phone *string) (*domain.Admin, error) {
	return r.mutate(id, func(a *domain.Admin) {
		if firstName != nil {
			a.FirstName = *firstName
		}
		if lastName != nil {
			a.LastName = *lastName
		}
		if phone != nil {
			a.Phone = *phone
		}
	})
}

func (r *Admins) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := r.mutate(id, func(a *domain.Admin) { a.PasswordHash = passwordHash })
	return err
}

func (r *Admins) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.mutate(id, func(a *domain.Admin) {
		at := at.UTC()
		a.LastLogin = &at
	})
	return err
}

func (r *Admins) SetResetToken(_ context.Context, id primitive.ObjectID, tokenHash string, expiry time.Time) error {
	_, err := r.mutate(id, func(a *domain.Admin) {
		expiry := expiry.UTC()
		a.ResetTokenHash = tokenHash
		a.ResetTokenExpiry = &expiry
	})
	return err
}

func (r *Admins) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, a := range r.items {
		if resetMatches(a.ResetTokenHash, a.ResetTokenExpiry, tokenHash, now) {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Admins) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for id, a := range r.items {
		if resetMatches(a.ResetTokenHash, a.ResetTokenExpiry, tokenHash, now) {
			a.PasswordHash = passwordHash
			a.ResetTokenHash = ""
			a.ResetTokenExpiry = nil
			a.UpdatedAt = time.Now().UTC()
			r.items[id] = a
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Admins) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return int64(len(r.items)), nil
}

// Put stores a as is, assigning an id when missing.
func (r *Admins) Put(a domain.Admin) domain.Admin {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.Email = domain.NormalizeEmail(a.Email)
	r.items[a.ID] = a
	return a
}

func (r *Admins) Get(id primitive.ObjectID) (domain.Admin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	return a, ok
}

func (r *Admins) mutate(id primitive.ObjectID, fn func(*domain.Admin)) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = time.Now().UTC()
	r.items[id] = a
	return &a, nil
}
