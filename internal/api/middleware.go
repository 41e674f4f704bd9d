package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"trackify/api/internal/auth"
	"trackify/api/internal/domain"
	"trackify/api/internal/metrics"
	"trackify/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Constants for context keys
const (
	ContextPrincipalKey = "principal"
	ContextClaimsKey    = "claims"
	ContextRequestIDKey = "requestID"
)

const requestIDHeader = "X-Request-ID"

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Protect resolves the bearer token to a live principal and stores it in the context.
func Protect(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			fail(c, service.ErrNotLoggedIn)
			return
		}
		principal, claims, err := authService.Protect(c.Request.Context(), token)
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(ContextPrincipalKey, principal)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches a principal when a valid token is present and otherwise
// continues anonymously.
func OptionalAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if principal, claims, err := authService.Protect(c.Request.Context(), token); err == nil {
				c.Set(ContextPrincipalKey, principal)
				c.Set(ContextClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// RestrictTo allows principals whose role is one of roles. Must run after Protect.
func RestrictTo(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := principalFrom(c)
		if principal == nil {
			fail(c, service.ErrNotLoggedIn)
			return
		}
		for _, role := range roles {
			if principal.Role() == role {
				c.Next()
				return
			}
		}
		fail(c, service.Forbidden("You do not have permission to perform this action"))
	}
}

// RequirePermission allows admin principals holding perm. Must run after Protect.
func RequirePermission(perm domain.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := principalFrom(c)
		if principal == nil {
			fail(c, service.ErrNotLoggedIn)
			return
		}
		if !principal.Can(perm) {
			fail(c, service.Forbidden("This action requires the %s permission", perm))
			return
		}
		c.Next()
	}
}

// principalFrom returns the authenticated principal, nil for anonymous requests.
func principalFrom(c *gin.Context) *domain.Principal {
	v, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*domain.Principal)
	return p
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// RequestLogger logs every request and records the HTTP metrics.
func RequestLogger(logger zerolog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		} else if status >= http.StatusBadRequest {
			event = logger.Warn()
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
