package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trackify/api/internal/auth"
	"trackify/api/internal/domain"
	"trackify/api/internal/mailer"
	"trackify/api/internal/metrics"
	"trackify/api/internal/repository"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthResult is returned by every operation that logs a principal in.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Principal *domain.Principal
}

// SignupInput holds the fields of a new user account.
type SignupInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Phone        string
	Bio          string
	FitnessGoals []string
}

// ProfileUpdate is what a principal may change about itself. Nil fields are kept.
// Admin accounts only accept names and phone.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	Bio          *string
	FitnessGoals []string
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	// Login checks the admin store first and only falls back to users when no admin has the email.
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Protect resolves a bearer token to the live principal of the store named by the token kind.
	Protect(ctx context.Context, token string) (*domain.Principal, *auth.Claims, error)
	UpdateProfile(ctx context.Context, p *domain.Principal, upd ProfileUpdate) (*domain.Principal, error)
	// ChangePassword verifies the current password, revokes the presented token and issues a new one.
	ChangePassword(ctx context.Context, p *domain.Principal, claims *auth.Claims, current, next string) (*AuthResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	// RequestPasswordReset never reports whether the email exists.
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) (bool, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthDeps groups the collaborators of the auth service.
type AuthDeps struct {
	Users    repository.UserRepository
	Admins   repository.AdminRepository
	Revoked  repository.RevokedTokenRepository
	Tokens   *auth.TokenManager
	Hasher   *auth.Hasher
	Mailer   mailer.Sender
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
	ResetTTL time.Duration
	ResetURL string
}

type authService struct {
	users    repository.UserRepository
	admins   repository.AdminRepository
	revoked  repository.RevokedTokenRepository
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	notify   notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
	resetTTL time.Duration
	resetURL string
	now      func() time.Time

	// dummyHash is compared against on unknown emails so both paths cost one bcrypt.
	dummyHash string
}

// NewAuthService creates the auth service. It hashes one throwaway password up front.
func NewAuthService(deps AuthDeps) (AuthService, error) {
	if deps.Tokens == nil || deps.Hasher == nil {
		return nil, errors.New("token manager and hasher are required")
	}
	if deps.ResetTTL <= 0 {
		deps.ResetTTL = time.Hour
	}
	dummy, err := deps.Hasher.Hash("timing-equalizer-password")
	if err != nil {
		return nil, err
	}
	return &authService{
		users:     deps.Users,
		admins:    deps.Admins,
		revoked:   deps.Revoked,
		tokens:    deps.Tokens,
		hasher:    deps.Hasher,
		notify:    notifier{sender: deps.Mailer, metrics: deps.Metrics, log: deps.Logger},
		metrics:   deps.Metrics,
		log:       deps.Logger,
		resetTTL:  deps.ResetTTL,
		resetURL:  strings.TrimRight(deps.ResetURL, "/"),
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

func (s *authService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
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

	if err := s.ensureAdminEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	user := &domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Bio:          in.Bio,
		FitnessGoals: in.FitnessGoals,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.log.Info().Str("user_id", user.ID.Hex()).Msg("user signed up")
	return s.issue(domain.UserPrincipal(user))
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "is required"
	}
	if password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}

	p, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
			s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !p.IsActive() {
		// Same bcrypt cost as every other path.
		_ = s.hasher.Compare(p.PasswordHash(), password)
		s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeDisabled).Inc()
		return nil, ErrAccountDisabled
	}
	if err := s.hasher.Compare(p.PasswordHash(), password); err != nil {
		s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, ErrInvalidCredentials
	}

	s.touchLastLogin(ctx, p)
	s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return s.issue(p)
}

// findByEmail looks up the admin store first. The user store is never queried when an admin matches.
func (s *authService) findByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err == nil {
		return domain.AdminPrincipal(admin), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return domain.UserPrincipal(user), nil
}

func (s *authService) touchLastLogin(ctx context.Context, p *domain.Principal) {
	now := s.now()
	var err error
	if p.Kind == domain.KindAdmin {
		err = s.admins.TouchLastLogin(ctx, p.ID(), now)
		p.Admin.LastLogin = &now
	} else {
		err = s.users.TouchLastLogin(ctx, p.ID(), now)
		p.User.LastLogin = &now
	}
	if err != nil {
		s.log.Warn().Err(err).Str("principal_id", p.ID().Hex()).Msg("could not record last login")
	}
}

func (s *authService) issue(p *domain.Principal) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(p.ID().Hex(), p.Role(), p.Kind)
	if err != nil {
		return nil, err
	}
	s.metrics.TokensIssued.WithLabelValues(string(p.Kind)).Inc()
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, Principal: p}, nil
}

func (s *authService) Protect(ctx context.Context, token string) (*domain.Principal, *auth.Claims, error) {
	if token == "" {
		return nil, nil, ErrNotLoggedIn
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, nil, ErrInvalidToken
	}

	var p *domain.Principal
	switch claims.Kind {
	case domain.KindAdmin:
		admin, err := s.admins.GetByID(ctx, id)
		if err != nil {
			return nil, nil, s.principalLookupErr(err)
		}
		p = domain.AdminPrincipal(admin)
	default:
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, nil, s.principalLookupErr(err)
		}
		p = domain.UserPrincipal(user)
	}

	if !p.IsActive() {
		return nil, nil, ErrPrincipalGone
	}
	return p, claims, nil
}

func (s *authService) principalLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPrincipalGone
	}
	return fmt.Errorf("resolve principal: %w", err)
}

func (s *authService) UpdateProfile(ctx context.Context, p *domain.Principal, upd ProfileUpdate) (*domain.Principal, error) {
	fields := map[string]string{}
	if upd.FirstName != nil && strings.TrimSpace(*upd.FirstName) == "" {
		fields["firstName"] = "cannot be empty"
	}
	if upd.LastName != nil && strings.TrimSpace(*upd.LastName) == "" {
		fields["lastName"] = "cannot be empty"
	}
	if p.Kind == domain.KindAdmin && upd.Email != nil && domain.NormalizeEmail(*upd.Email) != p.Email() {
		fields["email"] = "cannot be changed for admin accounts"
	}
	if upd.Email != nil && domain.NormalizeEmail(*upd.Email) == "" {
		fields["email"] = "cannot be empty"
	}
	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}

	if p.Kind == domain.KindAdmin {
		admin, err := s.admins.UpdateProfile(ctx, p.ID(), upd.FirstName, upd.LastName, upd.Phone)
		if err != nil {
			return nil, notFoundOr(err, "Account", "update admin profile")
		}
		return domain.AdminPrincipal(admin), nil
	}

	userUpd := domain.UserProfileUpdate{
		FirstName:    upd.FirstName,
		LastName:     upd.LastName,
		Phone:        upd.Phone,
		Bio:          upd.Bio,
		FitnessGoals: upd.FitnessGoals,
	}
	if upd.Email != nil {
		email := domain.NormalizeEmail(*upd.Email)
		if email != p.Email() {
			if err := s.ensureAdminEmailFree(ctx, email); err != nil {
				return nil, err
			}
			userUpd.Email = &email
		}
	}

	user, err := s.users.UpdateProfile(ctx, p.ID(), userUpd)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, notFoundOr(err, "Account", "update user profile")
	}
	return domain.UserPrincipal(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, p *domain.Principal, claims *auth.Claims, current, next string) (*AuthResult, error) {
	if current == "" {
		return nil, InvalidInput("currentPassword", "is required")
	}
	if err := auth.ValidatePassword(next); err != nil {
		return nil, InvalidInput("newPassword", err.Error())
	}
	if err := s.hasher.Compare(p.PasswordHash(), current); err != nil {
		return nil, ErrWrongPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, fmt.Errorf("change password: %w", err)
	}
	if p.Kind == domain.KindAdmin {
		err = s.admins.UpdatePassword(ctx, p.ID(), hash)
		p.Admin.PasswordHash = hash
	} else {
		err = s.users.UpdatePassword(ctx, p.ID(), hash)
		p.User.PasswordHash = hash
	}
	if err != nil {
		return nil, notFoundOr(err, "Account", "change password")
	}

	if claims != nil {
		if err := s.Logout(ctx, claims); err != nil {
			s.log.Warn().Err(err).Msg("could not revoke token after password change")
		}
	}
	return s.issue(p)
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return InvalidInput("email", "is required")
	}

	p, err := s.findByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Msg("password reset lookup failed")
		}
		return nil
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		s.log.Error().Err(err).Msg("could not generate reset token")
		return nil
	}
	expiry := s.now().Add(s.resetTTL)
	if p.Kind == domain.KindAdmin {
		err = s.admins.SetResetToken(ctx, p.ID(), hash, expiry)
	} else {
		err = s.users.SetResetToken(ctx, p.ID(), hash, expiry)
	}
	if err != nil {
		s.log.Error().Err(err).Str("principal_id", p.ID().Hex()).Msg("could not store reset token")
		return nil
	}

	link := s.resetURL + "/" + token
	s.notify.deliver(ctx, mailer.Message{
		To:      p.Email(),
		Subject: "Your Trackify password reset link",
		Text: fmt.Sprintf("Hi %s,\n\nForgot your password? Reset it here: %s\n\n"+
			"If you didn't request this, please ignore this email.", p.FullName(), link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Forgot your password? <a href="%s">Reset it here</a>.</p>`+
			`<p>If you didn't request this, please ignore this email.</p>`, p.FullName(), link),
	}, "password_reset")
	return nil
}

func (s *authService) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	hash := auth.HashResetToken(token)
	now := s.now()

	if _, err := s.admins.FindByResetToken(ctx, hash, now); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("verify reset token: %w", err)
	}
	if _, err := s.users.FindByResetToken(ctx, hash, now); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("verify reset token: %w", err)
	}
	return false, nil
}

// ResetPassword consumes the token with a single conditional update per store,
// so a token can succeed at most once.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return InvalidInput("password", err.Error())
	}
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	hash := auth.HashResetToken(token)

	pwHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	now := s.now()

	admin, err := s.admins.ConsumeResetToken(ctx, hash, now, pwHash)
	if err == nil {
		s.log.Info().Str("admin_id", admin.ID.Hex()).Msg("admin password reset")
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("reset password: %w", err)
	}

	user, err := s.users.ConsumeResetToken(ctx, hash, now, pwHash)
	if err == nil {
		s.log.Info().Str("user_id", user.ID.Hex()).Msg("user password reset")
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidOrExpiredToken
	}
	return fmt.Errorf("reset password: %w", err)
}

// ensureAdminEmailFree enforces the cross-store email rule for user accounts.
func (s *authService) ensureAdminEmailFree(ctx context.Context, email string) error {
	_, err := s.admins.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}
