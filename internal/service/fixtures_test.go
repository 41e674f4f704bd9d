package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"trackify/api/internal/auth"
	"trackify/api/internal/domain"
	"trackify/api/internal/mailer"
	"trackify/api/internal/metrics"
	"trackify/api/internal/repository/repotest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "correct-horse-battery"
	testResetURL = "http://app.test/reset-password"
)

// outbox is a mailer.Sender that records every message.
type outbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return "", o.err
	}
	o.msgs = append(o.msgs, msg)
	return "msg-" + msg.To, nil
}

func (o *outbox) sent() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Message(nil), o.msgs...)
}

// resetTokenFrom pulls the token out of the last reset email.
func (o *outbox) resetTokenFrom(t *testing.T) string {
	t.Helper()
	msgs := o.sent()
	require.NotEmpty(t, msgs, "no email was sent")
	text := msgs[len(msgs)-1].Text
	i := strings.Index(text, testResetURL+"/")
	require.GreaterOrEqual(t, i, 0)
	rest := text[i+len(testResetURL)+1:]
	return strings.Fields(rest)[0]
}

type fixture struct {
	users    *repotest.Users
	admins   *repotest.Admins
	revoked  *repotest.RevokedTokens
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	mail     *outbox
	metrics  *metrics.Metrics
	auth     *authService
	adminSvc AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour, "trackify-test")
	require.NoError(t, err)
	hasher, err := auth.NewHasher(auth.MinBcryptCost)
	require.NoError(t, err)

	f := &fixture{
		users:   repotest.NewUsers(),
		admins:  repotest.NewAdmins(),
		revoked: repotest.NewRevokedTokens(),
		tokens:  tokens,
		hasher:  hasher,
		mail:    &outbox{},
		metrics: metrics.New(),
	}
	svc, err := NewAuthService(AuthDeps{
		Users:    f.users,
		Admins:   f.admins,
		Revoked:  f.revoked,
		Tokens:   tokens,
		Hasher:   hasher,
		Mailer:   f.mail,
		Metrics:  f.metrics,
		Logger:   zerolog.Nop(),
		ResetTTL: time.Hour,
		ResetURL: testResetURL,
	})
	require.NoError(t, err)
	f.auth = svc.(*authService)
	f.adminSvc = NewAdminService(AdminDeps{
		Users:     f.users,
		Admins:    f.admins,
		Trainers:  repotest.NewTrainers(),
		Reviews:   repotest.NewReviews(),
		Exercises: repotest.NewExercises(),
		Contacts:  repotest.NewContacts(),
		Hasher:    hasher,
		Logger:    zerolog.Nop(),
	})
	return f
}

func (f *fixture) hash(t *testing.T, password string) string {
	t.Helper()
	h, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return h
}

func (f *fixture) putUser(t *testing.T, email string, role domain.Role, active bool) domain.User {
	t.Helper()
	return f.users.Put(domain.User{
		FirstName:    "Uma",
		LastName:     "User",
		Email:        email,
		PasswordHash: f.hash(t, testPassword),
		Role:         role,
		IsActive:     active,
	})
}

func (f *fixture) putAdmin(t *testing.T, email string, perms domain.Permissions, super bool) domain.Admin {
	t.Helper()
	return f.admins.Put(domain.Admin{
		FirstName:    "Ada",
		LastName:     "Admin",
		Email:        email,
		PasswordHash: f.hash(t, testPassword),
		IsActive:     true,
		Permissions:  perms,
		IsSuperAdmin: super,
	})
}

func adminPrincipal(perms domain.Permissions, super bool) *domain.Principal {
	a := &domain.Admin{FirstName: "Ada", LastName: "Admin", Email: "ada@trackify.fit", IsActive: true, Permissions: perms, IsSuperAdmin: super}
	a.ID = primitive.NewObjectID()
	return domain.AdminPrincipal(a)
}

func userPrincipal(role domain.Role) *domain.Principal {
	u := &domain.User{FirstName: "Uma", LastName: "User", Email: "uma@example.com", Role: role, IsActive: true}
	u.ID = primitive.NewObjectID()
	return domain.UserPrincipal(u)
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}

var errBoom = errors.New("boom")
