package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"trackify/api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesUserAndToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Signup(ctx, SignupInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "  Jane@Example.COM ",
		Password:  testPassword,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, domain.KindUser, res.Principal.Kind)
	require.Equal(t, "jane@example.com", res.Principal.Email())
	require.Equal(t, domain.RoleUser, res.Principal.Role())
	require.True(t, res.Principal.IsActive())

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, res.Principal.ID().Hex(), claims.UserID)
	require.Equal(t, domain.KindUser, claims.Kind)
}

func TestSignup_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Signup(context.Background(), SignupInput{Email: "x@example.com", Password: "short"})
	requireKind(t, err, KindValidation)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Fields, "firstName")
	assert.Contains(t, e.Fields, "lastName")
	assert.Contains(t, e.Fields, "password")
	assert.NotContains(t, e.Fields, "email")
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.putUser(t, "taken@example.com", domain.RoleUser, true)
	f.putAdmin(t, "boss@trackify.fit", domain.DefaultAdminPermissions(), false)

	_, err := f.auth.Signup(ctx, SignupInput{FirstName: "A", LastName: "B", Email: "TAKEN@example.com", Password: testPassword})
	require.ErrorIs(t, err, ErrEmailTaken)

	// An admin email is also unavailable to users.
	_, err = f.auth.Signup(ctx, SignupInput{FirstName: "A", LastName: "B", Email: "boss@trackify.fit", Password: testPassword})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_User(t *testing.T) {
	f := newFixture(t)
	u := f.putUser(t, "member@example.com", domain.RoleTrainer, true)

	res, err := f.auth.Login(context.Background(), " MEMBER@example.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, u.ID, res.Principal.ID())
	require.Equal(t, domain.RoleTrainer, res.Principal.Role())

	stored, _ := f.users.Get(u.ID)
	require.NotNil(t, stored.LastLogin)
}

func TestLogin_AdminNeverQueriesUsers(t *testing.T) {
	f := newFixture(t)
	a := f.putAdmin(t, "ops@trackify.fit", domain.DefaultAdminPermissions(), false)

	res, err := f.auth.Login(context.Background(), "ops@trackify.fit", testPassword)
	require.NoError(t, err)
	require.Equal(t, domain.KindAdmin, res.Principal.Kind)
	require.Equal(t, a.ID, res.Principal.ID())
	require.Equal(t, domain.RoleAdmin, res.Principal.Role())
	require.Zero(t, f.users.Lookups)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, domain.KindAdmin, claims.Kind)
	require.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.putUser(t, "member@example.com", domain.RoleUser, true)
	f.putUser(t, "gone@example.com", domain.RoleUser, false)

	_, err := f.auth.Login(ctx, "member@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "nobody@example.com", testPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "gone@example.com", testPassword)
	require.ErrorIs(t, err, ErrAccountDisabled)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
	requireKind(t, err, KindAuthentication)

	// The active flag is checked before the password.
	_, err = f.auth.Login(ctx, "gone@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrAccountDisabled)
	require.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "", "")
	requireKind(t, err, KindValidation)
}

func TestProtect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.putUser(t, "member@example.com", domain.RoleUser, true)

	res, err := f.auth.Login(ctx, "member@example.com", testPassword)
	require.NoError(t, err)

	p, claims, err := f.auth.Protect(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, p.ID())
	require.NotEmpty(t, claims.ID)

	_, _, err = f.auth.Protect(ctx, "")
	require.ErrorIs(t, err, ErrNotLoggedIn)

	_, _, err = f.auth.Protect(ctx, res.Token+"x")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestProtect_AdminTokenResolvesThroughAdminStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.putAdmin(t, "ops@trackify.fit", domain.DefaultAdminPermissions(), false)

	res, err := f.auth.Login(ctx, "ops@trackify.fit", testPassword)
	require.NoError(t, err)

	p, _, err := f.auth.Protect(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, domain.KindAdmin, p.Kind)
	require.Equal(t, a.ID, p.Admin.ID)
	require.True(t, p.Can(domain.PermManageExercises))
	require.Zero(t, f.users.Lookups)
}

func TestProtect_UserTokenDoesNotResolveToAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.putAdmin(t, "ops@trackify.fit", domain.DefaultAdminPermissions(), false)

	// A user-kind token carrying an admin's id must not find the admin.
	token, _, err := f.tokens.Issue(a.ID.Hex(), domain.RoleAdmin, domain.KindUser)
	require.NoError(t, err)

	_, _, err = f.auth.Protect(ctx, token)
	require.ErrorIs(t, err, ErrPrincipalGone)
}

func TestProtect_DisabledPrincipal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.putUser(t, "member@example.com", domain.RoleUser, true)

	res, err := f.auth.Login(ctx, "member@example.com", testPassword)
	require.NoError(t, err)

	_, err = f.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)

	_, _, err = f.auth.Protect(ctx, res.Token)
	require.ErrorIs(t, err, ErrPrincipalGone)
	requireKind(t, err, KindAuthentication)
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.putUser(t, "member@example.com", domain.RoleUser, true)

	first, err := f.auth.Login(ctx, "member@example.com", testPassword)
	require.NoError(t, err)
	second, err := f.auth.Login(ctx, "member@example.com", testPassword)
	require.NoError(t, err)

	_, claims, err := f.auth.Protect(ctx, first.Token)
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(ctx, claims))

	_, _, err = f.auth.Protect(ctx, first.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Other sessions stay valid.
	_, _, err = f.auth.Protect(ctx, second.Token)
	require.NoError(t, err)
}

func TestUpdateProfile_User(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.putUser(t, "member@example.com", domain.RoleUser, true)
	f.putAdmin(t, "ops@trackify.fit", domain.DefaultAdminPermissions(), false)
	p := domain.UserPrincipal(&u)

	name := "Janet"
	bio := "Runner"
	updated, err := f.auth.UpdateProfile(ctx, p, ProfileUpdate{FirstName: &name, Bio: &bio, FitnessGoals: []string{"10k"}})
	require.NoError(t, err)
	require.Equal(t, "Janet", updated.User.FirstName)
	require.Equal(t, "Runner", updated.User.Bio)
	require.Equal(t, []string{"10k"}, updated.User.FitnessGoals)

	taken := "OPS@trackify.fit"
	_, err = f.auth.UpdateProfile(ctx, p, ProfileUpdate{Email: &taken})
	require.ErrorIs(t, err, ErrEmailTaken)

	empty := " "
	_, err = f.auth.UpdateProfile(ctx, p, ProfileUpdate{LastName: &empty})
	requireKind(t, err, KindValidation)
}

func TestUpdateProfile_AdminCannotChangeEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.putAdmin(t, "ops@trackify.fit", domain.DefaultAdminPermissions(), false)
	p := domain.AdminPrincipal(&a)

	other := "new@trackify.fit"
	_, err := f.auth.UpdateProfile(ctx, p, ProfileUpdate{Email: &other})
	requireKind(t, err, KindValidation)

	phone := "+1 555 0100"
	updated, err := f.auth.UpdateProfile(ctx, p, ProfileUpdate{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, phone, updated.Admin.Phone)
	require.Equal(t, "ops@trackify.fit", updated.Email())
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.putUser(t, "member@example.com", domain.RoleUser, true)

	res, err := f.auth.Login(ctx, "member@example.com", testPassword)
	require.NoError(t, err)
	p, claims, err := f.auth.Protect(ctx, res.Token)
	require.NoError(t, err)

	_, err = f.auth.ChangePassword(ctx, p, claims, "not-my-password", "brand-new-password")
	require.ErrorIs(t, err, ErrWrongPassword)

	_, err = f.auth.ChangePassword(ctx, p, claims, testPassword, "short")
	requireKind(t, err, KindValidation)

	fresh, err := f.auth.ChangePassword(ctx, p, claims, testPassword, "brand-new-password")
	require.NoError(t, err)
	require.NotEqual(t, res.Token, fresh.Token)

	// The presented token is revoked and the new one works.
	_, _, err = f.auth.Protect(ctx, res.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = f.auth.Protect(ctx, fresh.Token)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "member@example.com", testPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "member@example.com", "brand-new-password")
	require.NoError(t, err)
}

func TestPasswordReset_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.putUser(t, "member@example.com", domain.RoleUser, true)

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "Member@example.com"))
	msgs := f.mail.sent()
	require.Len(t, msgs, 1)
	require.Equal(t, "member@example.com", msgs[0].To)
	token := f.mail.resetTokenFrom(t)

	// Only the hash is stored.
	stored, _ := f.users.Get(u.ID)
	require.NotEmpty(t, stored.ResetTokenHash)
	require.NotEqual(t, token, stored.ResetTokenHash)

	valid, err := f.auth.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	require.True(t, valid)

	require.NoError(t, f.auth.ResetPassword(ctx, token, "another-password"))

	err = f.auth.ResetPassword(ctx, token, "third-password")
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	requireKind(t, err, KindInvalidOrExpiredToken)

	valid, err = f.auth.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	require.False(t, valid)

	_, err = f.auth.Login(ctx, "member@example.com", "another-password")
	require.NoError(t, err)
}

func TestPasswordReset_Admin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.putAdmin(t, "ops@trackify.fit", domain.DefaultAdminPermissions(), false)

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "ops@trackify.fit"))
	token := f.mail.resetTokenFrom(t)
	require.NoError(t, f.auth.ResetPassword(ctx, token, "another-password"))

	res, err := f.auth.Login(ctx, "ops@trackify.fit", "another-password")
	require.NoError(t, err)
	require.Equal(t, domain.KindAdmin, res.Principal.Kind)
}

func TestPasswordReset_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.putUser(t, "member@example.com", domain.RoleUser, true)

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "member@example.com"))
	token := f.mail.resetTokenFrom(t)

	f.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	valid, err := f.auth.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	require.False(t, valid)

	err = f.auth.ResetPassword(ctx, token, "another-password")
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestPasswordReset_UnknownEmailLooksTheSame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "nobody@example.com"))
	require.Empty(t, f.mail.sent())

	// Delivery failures are swallowed too.
	f.putUser(t, "member@example.com", domain.RoleUser, true)
	f.mail.err = errBoom
	require.NoError(t, f.auth.RequestPasswordReset(ctx, "member@example.com"))

	err := f.auth.ResetPassword(ctx, strings.Repeat("ab", 32), "another-password")
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}
