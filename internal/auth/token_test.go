package auth

import (
	"strings"
	"testing"
	"time"

	"trackify/api/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, time.Hour, "trackify")
	require.NoError(t, err)
	return m
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := newTestManager(t)

	token, issued, err := m.Issue("64b7f0c2e1d3a4b5c6d7e8f9", domain.RoleTrainer, domain.KindUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "64b7f0c2e1d3a4b5c6d7e8f9", claims.UserID)
	require.Equal(t, domain.RoleTrainer, claims.Role)
	require.Equal(t, domain.KindUser, claims.Kind)
	require.Equal(t, issued.ID, claims.ID)
	require.Equal(t, "trackify", claims.Issuer)
}

func TestTokenManager_UniqueTokenIDs(t *testing.T) {
	m := newTestManager(t)

	_, a, err := m.Issue("id", domain.RoleUser, domain.KindUser)
	require.NoError(t, err)
	_, b, err := m.Issue("id", domain.RoleUser, domain.KindUser)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := newTestManager(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Issue("id", domain.RoleUser, domain.KindUser)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsOtherSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewTokenManager(strings.Repeat("x", 32), time.Hour, "trackify")
	require.NoError(t, err)

	token, _, err := other.Issue("id", domain.RoleAdmin, domain.KindAdmin)
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsTampered(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.Issue("id", domain.RoleUser, domain.KindUser)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged, _, err := m.Issue("id", domain.RoleAdmin, domain.KindAdmin)
	require.NoError(t, err)
	// Payload of an admin token with the signature of the user token.
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	_, err = m.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	m := newTestManager(t)
	claims := &Claims{
		UserID: "id",
		Role:   domain.RoleAdmin,
		Kind:   domain.KindAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	m := newTestManager(t)
	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := m.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour, "trackify")
	require.Error(t, err)
}
