package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// ClassHandler handles classes and their teacher and student assignments.
type ClassHandler struct {
	classService *service.ClassService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// ListClasses godoc
// GET /api/v1/admin/classes
// Administrators see every class; teachers see the classes assigned to them.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	classes, err := h.classService.List(c.Request.Context(), actor)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// GetClass godoc
// GET /api/v1/admin/classes/:code
func (h *ClassHandler) GetClass(c *gin.Context) {
	class, err := h.classService.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// CreateClass godoc
// POST /api/v1/admin/classes
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req model.ClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Create(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// UpdateClass godoc
// PUT /api/v1/admin/classes/:code
// The class code in the body is ignored; codes cannot be renamed.
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	var req model.ClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// DeleteClass godoc
// DELETE /api/v1/admin/classes/:code
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	if err := h.classService.Delete(c.Request.Context(), c.Param("code")); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "class deleted"})
}

// ListClassTeachers godoc
// GET /api/v1/admin/classes/:code/teachers
func (h *ClassHandler) ListClassTeachers(c *gin.Context) {
	list, err := h.classService.ListTeachers(c.Request.Context(), c.Param("code"))
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": list})
}

// AssignTeacher godoc
// POST /api/v1/admin/classes/:code/teachers
func (h *ClassHandler) AssignTeacher(c *gin.Context) {
	var req model.AssignTeacherRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.classService.AssignTeacher(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"assignment": a})
}

// ListTeacherAssignments godoc
// GET /api/v1/admin/teachers/:id/assignments
func (h *ClassHandler) ListTeacherAssignments(c *gin.Context) {
	teacherID, ok := intParam(c, "id")
	if !ok {
		return
	}
	list, err := h.classService.ListAssignmentsForTeacher(c.Request.Context(), teacherID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": list})
}

// UpdateAssignment godoc
// PUT /api/v1/admin/assignments/:id
func (h *ClassHandler) UpdateAssignment(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.classService.UpdateAssignment(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignment": a})
}

// RevokeAssignment godoc
// DELETE /api/v1/admin/assignments/:id
func (h *ClassHandler) RevokeAssignment(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.classService.RevokeAssignment(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "assignment revoked"})
}

// ListClassStudents godoc
// GET /api/v1/admin/classes/:code/students
func (h *ClassHandler) ListClassStudents(c *gin.Context) {
	list, err := h.classService.ListStudents(c.Request.Context(), c.Param("code"))
	if err != nil {
		failWithError(c, err)
		return
	}
	if list == nil {
		list = []model.StudentClassAssignment{}
	}
	response.Success(c, http.StatusOK, gin.H{"students": list})
}

// AssignStudent godoc
// POST /api/v1/admin/classes/:code/students
func (h *ClassHandler) AssignStudent(c *gin.Context) {
	var req model.AssignStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.classService.AssignStudent(c.Request.Context(), c.Param("code"), req.StudentID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"enrollment": a})
}

// UnassignStudent godoc
// DELETE /api/v1/admin/classes/:code/students/:student_id
func (h *ClassHandler) UnassignStudent(c *gin.Context) {
	studentID, ok := intParam(c, "student_id")
	if !ok {
		return
	}
	if err := h.classService.UnassignStudent(c.Request.Context(), c.Param("code"), studentID); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student removed from class"})
}
