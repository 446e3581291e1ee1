package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// RoleHandler handles roles and their permission sets.
type RoleHandler struct {
	roleService *service.RoleService
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(roleService *service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// ListRoles godoc
// GET /api/v1/admin/roles
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"roles": roles})
}

// GetRole godoc
// GET /api/v1/admin/roles/:id
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"role": role})
}

// ListPermissions godoc
// GET /api/v1/admin/permissions
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"permissions": h.roleService.AllPermissions()})
}

// CreateRole godoc
// POST /api/v1/admin/roles
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req model.RoleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"role": role})
}

// UpdateRole godoc
// PUT /api/v1/admin/roles/:id
// Replaces the name and permission set. The administrator role is fixed.
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req model.RoleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"role": role})
}

// DeleteRole godoc
// DELETE /api/v1/admin/roles/:id
// Fails while teachers still hold the role.
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.roleService.DeleteRole(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "role deleted"})
}
