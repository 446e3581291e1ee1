package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/middleware"
	"github.com/primepath/primepath-backend/internal/placement"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
)

type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// knownErrors maps sentinels to a status and code. Earlier entries win.
var knownErrors = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrAccountDisabled, http.StatusForbidden, response.ErrAccountDisabled},
	{service.ErrSessionAlreadyActive, http.StatusConflict, response.ErrSessionActive},
	{service.ErrNoActiveLogin, http.StatusUnauthorized, response.ErrSessionInvalidated},
	{service.ErrLoginInvalidated, http.StatusUnauthorized, response.ErrSessionInvalidated},
	{service.ErrSystemRole, http.StatusForbidden, response.ErrSystemRole},

	{service.ErrNoExamForLevel, http.StatusNotFound, response.ErrNoExamForLevel},
	{service.ErrExamInactive, http.StatusConflict, response.ErrExamNotAvailable},
	{service.ErrExamKindMismatch, http.StatusBadRequest, response.ErrExamKindMismatch},
	{service.ErrNotEnrolled, http.StatusForbidden, response.ErrNotEnrolled},

	{service.ErrSessionCompleted, http.StatusConflict, response.ErrSessionCompleted},
	{service.ErrSessionNotCompleted, http.StatusConflict, response.ErrSessionNotCompleted},
	{service.ErrSessionExpired, http.StatusConflict, response.ErrSessionExpired},
	{service.ErrSessionNotOwned, http.StatusForbidden, response.ErrSessionNotOwned},
	{service.ErrTooManyAdjustments, http.StatusConflict, response.ErrTooManyAdjustments},
	{service.ErrAlreadyAdjusted, http.StatusConflict, response.ErrAlreadyAdjusted},

	{service.ErrUnsupportedFileType, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},

	{service.ErrUnknownProvider, http.StatusNotFound, response.ErrUnknownProvider},
	{service.ErrInvalidOAuthState, http.StatusBadRequest, response.ErrInvalidOAuthState},
	{service.ErrRedirectNotAllowed, http.StatusBadRequest, response.ErrRedirectNotAllowed},
	{service.ErrEmailNotVerified, http.StatusForbidden, response.ErrEmailNotVerified},
	{service.ErrNoLinkedAccount, http.StatusForbidden, response.ErrNoLinkedAccount},
	{service.ErrOAuthExchangeFailed, http.StatusBadGateway, response.ErrOAuthExchangeFailed},

	{placement.ErrNoPlacementRule, http.StatusNotFound, response.ErrNoPlacementRule},
	{placement.ErrNoAdjacentLevel, http.StatusNotFound, response.ErrNoAdjacentLevel},

	{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{repository.ErrDuplicate, http.StatusConflict, response.ErrConflict},
	{repository.ErrReferenced, http.StatusConflict, response.ErrDependencyExists},
}

// classify resolves err to a status and code.
func classify(err error) (int, response.ErrCode) {
	for _, m := range knownErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}

	switch service.KindOf(err) {
	case service.KindValidation:
		return http.StatusBadRequest, response.ErrValidation
	case service.KindPermission:
		return http.StatusForbidden, response.ErrPermissionDenied
	case service.KindNotFound:
		return http.StatusNotFound, response.ErrNotFound
	case service.KindConflict:
		return http.StatusConflict, response.ErrConflict
	case service.KindSession:
		return http.StatusConflict, response.ErrActionForbidden
	case service.KindFileProcessing:
		return http.StatusBadRequest, response.ErrUnsupportedFile
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failWithError writes the error envelope for err. Unclassified errors are
// attached to the gin context so the access log records them.
func failWithError(c *gin.Context, err error) {
	status, code := classify(err)
	switch {
	case code == response.ErrValidation:
		response.FailWithFields(c, status, code, map[string]string{"detail": err.Error()})
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		response.Fail(c, status, code)
	default:
		response.Fail(c, status, code)
	}
}

// actorFrom builds the service actor from teacher claims.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return service.Actor{}, false
	}
	return service.Actor{TeacherID: claims.UserID, Permissions: claims.Permissions}, true
}

// studentFrom returns the authenticated student's id.
func studentFrom(c *gin.Context) (int, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.TokenType != service.TokenTypeStudent {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, false
	}
	return claims.UserID, true
}

// optionalStudent returns the student id when a student token was sent.
func optionalStudent(c *gin.Context) *int {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.TokenType != service.TokenTypeStudent {
		return nil
	}
	id := claims.UserID
	return &id
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// optionalIntQuery parses an optional positive integer query value.
func optionalIntQuery(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{name: "must be a number"})
		return nil, false
	}
	return &v, true
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	return page, perPage
}
