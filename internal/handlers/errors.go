package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/cover-letter-agent/internal/auth"
	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
	"github.com/justsurfingit/cover-letter-agent/internal/workflow"
)

// statusFor maps the shared sentinel errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

const internalErrorMessage = "internal server error"

// abortWithError answers with the status err maps to. The text of a 500 is
// replaced; its cause goes to c.Errors for logRequestErrors.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": internalErrorMessage})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func logRequestErrors(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			log.Error(c.Request.Context(), "request failed",
				"method", c.Request.Method, "route", c.FullPath(), "status", c.Writer.Status(), "error", e.Err)
		}
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
}

// currentUser returns the user resolved by the auth middleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := auth.UserFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}
	return user, true
}
