package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trackify/api/internal/auth"
	"trackify/api/internal/domain"
	"trackify/api/internal/repository"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateAdminInput holds the fields of a new admin account.
// A nil Permissions gets domain.DefaultAdminPermissions.
type CreateAdminInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Phone        string
	Permissions  *domain.Permissions
	IsSuperAdmin bool
}

// Stats is the admin dashboard summary.
type Stats struct {
	Users           int64 `json:"users"`
	ActiveUsers     int64 `json:"activeUsers"`
	Admins          int64 `json:"admins"`
	Trainers        int64 `json:"trainers"`
	Reviews         int64 `json:"reviews"`
	Exercises       int64 `json:"exercises"`
	ContactMessages int64 `json:"contactMessages"`
}

type AdminService interface {
	// CreateAdmin requires the manageAdmins permission. Only a super admin may create
	// another super admin or grant manageAdmins.
	CreateAdmin(ctx context.Context, requester *domain.Principal, in CreateAdminInput) (*domain.Admin, error)
	SetUserActive(ctx context.Context, requester *domain.Principal, userID string, active bool) (*domain.User, error)
	Stats(ctx context.Context, requester *domain.Principal) (*Stats, error)
	// BootstrapAdmin creates a super admin from in when the admin store is empty.
	// The bool reports whether an admin was created.
	BootstrapAdmin(ctx context.Context, in CreateAdminInput) (*domain.Admin, bool, error)
}

// AdminDeps groups the collaborators of the admin service.
type AdminDeps struct {
	Users     repository.UserRepository
	Admins    repository.AdminRepository
	Trainers  repository.TrainerRepository
	Reviews   repository.ReviewRepository
	Exercises repository.ExerciseRepository
	Contacts  repository.ContactRepository
	Hasher    *auth.Hasher
	Logger    zerolog.Logger
}

type adminService struct {
	AdminDeps
}

func NewAdminService(deps AdminDeps) AdminService {
	return &adminService{AdminDeps: deps}
}

// requirePermission is the service side of the permission guard.
func requirePermission(p *domain.Principal, perm domain.Permission) error {
	if p == nil {
		return ErrNotLoggedIn
	}
	if !p.Can(perm) {
		return Forbidden("This action requires the %s permission", perm)
	}
	return nil
}

func (s *adminService) CreateAdmin(ctx context.Context, requester *domain.Principal, in CreateAdminInput) (*domain.Admin, error) {
	if err := requirePermission(requester, domain.PermManageAdmins); err != nil {
		return nil, err
	}
	super := requester.Admin.IsSuperAdmin

	perms := domain.DefaultAdminPermissions()
	if in.Permissions != nil {
		perms = *in.Permissions
	}
	if in.IsSuperAdmin && !super {
		return nil, Forbidden("Only a super admin can create another super admin")
	}
	if perms.ManageAdmins && !super {
		return nil, Forbidden("Only a super admin can grant the manageAdmins permission")
	}

	admin, err := s.insertAdmin(ctx, in, perms)
	if err != nil {
		return nil, err
	}
	s.Logger.Info().
		Str("admin_id", admin.ID.Hex()).
		Str("created_by", requester.ID().Hex()).
		Bool("super_admin", admin.IsSuperAdmin).
		Msg("admin created")
	return admin, nil
}

// BootstrapAdmin creates the first super admin. It does nothing once any admin exists.
func (s *adminService) BootstrapAdmin(ctx context.Context, in CreateAdminInput) (*domain.Admin, bool, error) {
	n, err := s.Admins.Count(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("bootstrap admin: %w", err)
	}
	if n > 0 {
		return nil, false, nil
	}
	in.IsSuperAdmin = true
	admin, err := s.insertAdmin(ctx, in, domain.AllPermissions())
	if err != nil {
		return nil, false, err
	}
	s.Logger.Info().Str("admin_id", admin.ID.Hex()).Str("email", admin.Email).Msg("bootstrap super admin created")
	return admin, true, nil
}

func (s *adminService) insertAdmin(ctx context.Context, in CreateAdminInput, perms domain.Permissions) (*domain.Admin, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.FirstName) == "" {
		fields["firstName"] = "is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		fields["lastName"] = "is required"
	}
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		fields["email"] = "is required"
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}

	// Emails are unique across both stores.
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	admin := &domain.Admin{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Phone:        in.Phone,
		IsActive:     true,
		Permissions:  perms,
		IsSuperAdmin: in.IsSuperAdmin,
	}
	if _, err := s.Admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	return admin, nil
}

func (s *adminService) SetUserActive(ctx context.Context, requester *domain.Principal, userID string, active bool) (*domain.User, error) {
	if err := requirePermission(requester, domain.PermManageUsers); err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, InvalidInput("id", "must be a valid id")
	}
	user, err := s.Users.SetActive(ctx, id, active)
	if err != nil {
		return nil, notFoundOr(err, "User", "set user status")
	}
	s.Logger.Info().
		Str("user_id", user.ID.Hex()).
		Bool("active", active).
		Str("by", requester.ID().Hex()).
		Msg("user status changed")
	return user, nil
}

func (s *adminService) Stats(ctx context.Context, requester *domain.Principal) (*Stats, error) {
	if err := requirePermission(requester, domain.PermViewAnalytics); err != nil {
		return nil, err
	}
	var (
		st  Stats
		err error
	)
	count := func(dst *int64, fn func() (int64, error)) {
		if err != nil {
			return
		}
		*dst, err = fn()
	}
	count(&st.Users, func() (int64, error) { return s.Users.Count(ctx, false) })
	count(&st.ActiveUsers, func() (int64, error) { return s.Users.Count(ctx, true) })
	count(&st.Admins, func() (int64, error) { return s.Admins.Count(ctx) })
	count(&st.Trainers, func() (int64, error) { return s.Trainers.Count(ctx) })
	count(&st.Reviews, func() (int64, error) { return s.Reviews.Count(ctx) })
	count(&st.Exercises, func() (int64, error) { return s.Exercises.Count(ctx) })
	count(&st.ContactMessages, func() (int64, error) { return s.Contacts.Count(ctx) })
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}
