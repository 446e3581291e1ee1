package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// TeacherHandler handles teacher account administration.
type TeacherHandler struct {
	teacherService *service.TeacherService
}

// NewTeacherHandler creates a new TeacherHandler.
func NewTeacherHandler(teacherService *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teacherService: teacherService}
}

// ListTeachers godoc
// GET /api/v1/admin/teachers?search=&page=&per_page=
func (h *TeacherHandler) ListTeachers(c *gin.Context) {
	page, perPage := pageQuery(c)
	teachers, pagination, err := h.teacherService.List(c.Request.Context(), c.Query("search"), page, perPage)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"teachers": teachers}, pagination)
}

// GetTeacher godoc
// GET /api/v1/admin/teachers/:id
func (h *TeacherHandler) GetTeacher(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	teacher, err := h.teacherService.Get(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"teacher": teacher})
}

// CreateTeacher godoc
// POST /api/v1/admin/teachers
func (h *TeacherHandler) CreateTeacher(c *gin.Context) {
	var req model.CreateTeacherRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	teacher, err := h.teacherService.Create(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"teacher": teacher})
}

// UpdateTeacher godoc
// PUT /api/v1/admin/teachers/:id
// A non-empty password replaces the old one.
func (h *TeacherHandler) UpdateTeacher(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateTeacherRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	teacher, err := h.teacherService.Update(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"teacher": teacher})
}

// DeactivateTeacher godoc
// DELETE /api/v1/admin/teachers/:id
// Deactivates the account; history stays intact. Teachers cannot deactivate themselves.
func (h *TeacherHandler) DeactivateTeacher(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.teacherService.Deactivate(c.Request.Context(), actor, id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "teacher deactivated"})
}
