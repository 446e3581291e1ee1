package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// SessionHandler handles taking an exam: answers, state, submission and
// difficulty changes. Placement routes are public and bound to the session
// id; student routes are bound to the logged-in student.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// owner returns the student a request acts for: nil on public placement
// routes, the token's student on student routes.
func (h *SessionHandler) owner(c *gin.Context) (*int, bool) {
	if c.GetBool(ctxStudentRoute) {
		id, ok := studentFrom(c)
		if !ok {
			return nil, false
		}
		return &id, true
	}
	return nil, true
}

// ctxStudentRoute is set by StudentRoutes on the student session group.
const ctxStudentRoute = "student_route"

// StudentRoutes marks the session routes that require the session owner.
func StudentRoutes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxStudentRoute, true)
		c.Next()
	}
}

// StartPlacement godoc
// POST /api/v1/placement/start
// Places the student from grade and academic rank and opens a session on the mapped exam.
// A student token, when sent, ties the session to that student.
func (h *SessionHandler) StartPlacement(c *gin.Context) {
	var req model.StartPlacementRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	started, err := h.sessionService.StartPlacement(c.Request.Context(), optionalStudent(c), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, started)
}

// SaveAnswers godoc
// POST .../sessions/:session_id/answers
// Saves one or more answers while the timer and grace period allow it.
func (h *SessionHandler) SaveAnswers(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	var req model.SaveAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.SaveAnswers(c.Request.Context(), owner, sessionID, req.Answers); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"saved": len(req.Answers)})
}

// GetState godoc
// GET .../sessions/:session_id/state
// Returns remaining seconds and saved answers so the answer sheet can resume.
func (h *SessionHandler) GetState(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), owner, sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// Complete godoc
// POST .../sessions/:session_id/complete
// Grades the session. Repeated calls return the stored result.
func (h *SessionHandler) Complete(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	result, err := h.sessionService.Complete(c.Request.Context(), owner, sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GetResult godoc
// GET .../sessions/:session_id/result
func (h *SessionHandler) GetResult(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	result, err := h.sessionService.Result(c.Request.Context(), owner, sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Adjust godoc
// POST /api/v1/placement/sessions/:session_id/adjust
// After a placement test, starts a follow-up on the next easier (-1) or harder (+1) level.
func (h *SessionHandler) Adjust(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	var req model.AdjustDifficultyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	started, err := h.sessionService.AdjustAfterSubmit(c.Request.Context(), owner, sessionID, req.Direction)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, started)
}
