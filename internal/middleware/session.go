package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
)

// LoginChecker confirms a student token is still the active login.
type LoginChecker interface {
	ValidateStudentSession(ctx context.Context, studentID int, jti string) error
}

// CheckSingleDeviceSession validates the JWT's JTI against the active login in Redis.
// If the JTI doesn't match, the request is rejected (the login was reset or replaced).
func CheckSingleDeviceSession(auth LoginChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		// Only enforce for student tokens.
		if claims.TokenType != service.TokenTypeStudent {
			c.Next()
			return
		}

		err := auth.ValidateStudentSession(c.Request.Context(), claims.UserID, claims.ID)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, service.ErrNoActiveLogin), errors.Is(err, service.ErrLoginInvalidated):
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		default:
			_ = c.Error(err)
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
		}
	}
}
