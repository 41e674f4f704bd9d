package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"trackify/api/internal/domain"
	"trackify/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func errorRouter(production bool, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zerolog.Nop(), production), ErrorHandler(zerolog.Nop(), production))
	r.GET("/x", handler)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.InvalidInput("email", "is required"), http.StatusBadRequest},
		{service.ErrEmailTaken, http.StatusBadRequest},
		{service.ErrInvalidOrExpiredToken, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrAccountDisabled, http.StatusUnauthorized},
		{service.Forbidden("no"), http.StatusForbidden},
		{service.NotFound("Trainer"), http.StatusNotFound},
		{service.ErrStorageDisabled, http.StatusServiceUnavailable},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestErrorHandler_HidesInternalErrorsInProduction(t *testing.T) {
	boom := func(c *gin.Context) { fail(c, errors.New("mongo: connection refused")) }

	rec := get(errorRouter(true, boom), "/x")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	rec = get(errorRouter(false, boom), "/x")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"mongo: connection refused"}`, rec.Body.String())
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	r := errorRouter(true, func(c *gin.Context) {
		fail(c, service.ValidationError(map[string]string{"rating": "must be between 1 and 5"}))
	})
	rec := get(r, "/x")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Validation failed","fields":{"rating":"must be between 1 and 5"}}`, rec.Body.String())
}

func TestRecovery(t *testing.T) {
	panics := func(c *gin.Context) { panic("nil map write") }

	rec := get(errorRouter(true, panics), "/x")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	rec = get(errorRouter(false, panics), "/x")
	require.JSONEq(t, `{"error":"nil map write"}`, rec.Body.String())
}

func TestRestrictToAndRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	withPrincipal := func(p *domain.Principal) gin.HandlerFunc {
		return func(c *gin.Context) {
			if p != nil {
				c.Set(ContextPrincipalKey, p)
			}
			c.Next()
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	legacy := domain.UserPrincipal(&domain.User{Role: domain.RoleAdmin, IsActive: true})
	editor := domain.AdminPrincipal(&domain.Admin{IsActive: true, Permissions: domain.Permissions{ManageExercises: true}})

	cases := []struct {
		name string
		p    *domain.Principal
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"plain user", domain.UserPrincipal(&domain.User{Role: domain.RoleUser}), http.StatusForbidden},
		{"legacy role admin", legacy, http.StatusForbidden},
		{"admin with permission", editor, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(zerolog.Nop(), true))
			r.GET("/x", withPrincipal(tc.p), RestrictTo(domain.RoleAdmin), RequirePermission(domain.PermManageExercises), ok)
			require.Equal(t, tc.want, get(r, "/x").Code)
		})
	}
}

func TestCORS(t *testing.T) {
	require.Nil(t, CORS(nil, true))
	require.NotNil(t, CORS(nil, false))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.trackify.fit"}, true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.trackify.fit")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, "https://app.trackify.fit", rec.Header().Get("Access-Control-Allow-Origin"))
}
