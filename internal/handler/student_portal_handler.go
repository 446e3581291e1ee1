package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
)

// StudentPortalHandler handles student-facing endpoints.
type StudentPortalHandler struct {
	studentService *service.StudentService
	sessionService *service.SessionService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(studentService *service.StudentService, sessionService *service.SessionService) *StudentPortalHandler {
	return &StudentPortalHandler{
		studentService: studentService,
		sessionService: sessionService,
	}
}

// GetDashboard godoc
// GET /api/v1/student/dashboard
// Returns the student's classes, open routine exams and recent sessions.
func (h *StudentPortalHandler) GetDashboard(c *gin.Context) {
	studentID, ok := studentFrom(c)
	if !ok {
		return
	}

	dashboard, err := h.studentService.Dashboard(c.Request.Context(), studentID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, dashboard)
}

// GetHistory godoc
// GET /api/v1/student/history
// Returns every session of the student with its score.
func (h *StudentPortalHandler) GetHistory(c *gin.Context) {
	studentID, ok := studentFrom(c)
	if !ok {
		return
	}

	sessions, err := h.sessionService.History(c.Request.Context(), studentID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// StartRoutine godoc
// POST /api/v1/student/routine/:exam_id/start
// Opens (or resumes) a session on a routine exam of one of the student's classes.
func (h *StudentPortalHandler) StartRoutine(c *gin.Context) {
	studentID, ok := studentFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	started, err := h.sessionService.StartRoutine(c.Request.Context(), studentID, examID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, started)
}
