package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"trackify/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const internalErrorMessage = "Internal server error"

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// fail records err for ErrorHandler and stops the handler chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindInvalidOrExpiredToken, service.KindConflict:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ErrorHandler writes the response for the last error a handler recorded.
// Uncategorized errors are logged and, in production, reported without detail.
func ErrorHandler(logger zerolog.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := StatusFor(err)
		body := gin.H{}

		var svcErr *service.Error
		if errors.As(err, &svcErr) && svcErr.Kind != service.KindInternal {
			body["error"] = svcErr.PublicMessage()
			if len(svcErr.Fields) > 0 {
				body["fields"] = svcErr.Fields
			}
		} else {
			logger.Error().Err(err).
				Str("request_id", c.GetString(ContextRequestIDKey)).
				Str("path", c.Request.URL.Path).
				Msg("request failed")
			body["error"] = internalErrorMessage
			if !production {
				body["error"] = err.Error()
			}
		}
		c.JSON(status, body)
	}
}

// Recovery turns a panic into a 500 with the same production rule as ErrorHandler.
func Recovery(logger zerolog.Logger, production bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().
			Interface("panic", recovered).
			Str("request_id", c.GetString(ContextRequestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg("panic recovered")
		message := internalErrorMessage
		if !production {
			message = fmt.Sprint(recovered)
		}
		abortWithError(c, http.StatusInternalServerError, message)
	})
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report json field names instead of Go field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON binds the request body and records a validation error on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, bindError(err))
		return false
	}
	return true
}

// bindError converts gin binding failures to a service validation error.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldReason(fe)
		}
		return service.ValidationError(fields)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return service.InvalidInput(typeErr.Field, "has the wrong type")
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &service.Error{Kind: service.KindValidation, Message: "Request body must be valid JSON"}
	}
	return &service.Error{Kind: service.KindValidation, Message: "Invalid request body", Err: err}
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}
