package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// StudentManagementHandler handles admin-facing student management.
type StudentManagementHandler struct {
	studentService *service.StudentService
	sessionService *service.SessionService
}

// NewStudentManagementHandler creates a new StudentManagementHandler.
func NewStudentManagementHandler(studentService *service.StudentService, sessionService *service.SessionService) *StudentManagementHandler {
	return &StudentManagementHandler{studentService: studentService, sessionService: sessionService}
}

// ListStudents godoc
// GET /api/v1/admin/students?search=&class_code=&page=&per_page=
func (h *StudentManagementHandler) ListStudents(c *gin.Context) {
	page, perPage := pageQuery(c)
	students, pagination, err := h.studentService.List(c.Request.Context(), c.Query("search"), c.Query("class_code"), page, perPage)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// GetStudent godoc
// GET /api/v1/admin/students/:id
func (h *StudentManagementHandler) GetStudent(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	student, err := h.studentService.Get(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// GetStudentHistory godoc
// GET /api/v1/admin/students/:id/sessions
func (h *StudentManagementHandler) GetStudentHistory(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	sessions, err := h.sessionService.History(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// UpdateStudent godoc
// PUT /api/v1/admin/students/:id
func (h *StudentManagementHandler) UpdateStudent(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/v1/admin/students/:id
func (h *StudentManagementHandler) DeleteStudent(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student deleted"})
}

// ResetSession godoc
// POST /api/v1/admin/students/:id/reset-session
// Clears the student's active login so they can sign in on another device.
func (h *StudentManagementHandler) ResetSession(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.studentService.ResetSession(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student login reset"})
}
