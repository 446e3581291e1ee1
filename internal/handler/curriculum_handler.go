package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// CurriculumHandler handles the curriculum ladder, placement rules and exam level mappings.
type CurriculumHandler struct {
	curriculumService *service.CurriculumService
	placementService  *service.PlacementService
}

// NewCurriculumHandler creates a new CurriculumHandler.
func NewCurriculumHandler(curriculumService *service.CurriculumService, placementService *service.PlacementService) *CurriculumHandler {
	return &CurriculumHandler{curriculumService: curriculumService, placementService: placementService}
}

// ─── Programs ───────────────────────────────────────────────────────────────

// ListPrograms godoc
// GET /api/v1/admin/programs
func (h *CurriculumHandler) ListPrograms(c *gin.Context) {
	programs, err := h.curriculumService.ListPrograms(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"programs": programs})
}

// GetProgram godoc
// GET /api/v1/admin/programs/:id
func (h *CurriculumHandler) GetProgram(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	program, err := h.curriculumService.GetProgram(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"program": program})
}

// CreateProgram godoc
// POST /api/v1/admin/programs
func (h *CurriculumHandler) CreateProgram(c *gin.Context) {
	var req model.ProgramRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	program, err := h.curriculumService.CreateProgram(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"program": program})
}

// UpdateProgram godoc
// PUT /api/v1/admin/programs/:id
func (h *CurriculumHandler) UpdateProgram(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req model.ProgramRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	program, err := h.curriculumService.UpdateProgram(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"program": program})
}

// DeleteProgram godoc
// DELETE /api/v1/admin/programs/:id
// Fails while subprograms still reference the program.
func (h *CurriculumHandler) DeleteProgram(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.curriculumService.DeleteProgram(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "program deleted"})
}

// ─── Subprograms ────────────────────────────────────────────────────────────

// ListSubPrograms godoc
// GET /api/v1/admin/subprograms?program_id=
func (h *CurriculumHandler) ListSubPrograms(c *gin.Context) {
	programID, ok := optionalIntQuery(c, "program_id")
	if !ok {
		return
	}
	subprograms, err := h.curriculumService.ListSubPrograms(c.Request.Context(), programID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subprograms": subprograms})
}

// CreateSubProgram godoc
// POST /api/v1/admin/subprograms
func (h *CurriculumHandler) CreateSubProgram(c *gin.Context) {
	var req model.SubProgramRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sp, err := h.curriculumService.CreateSubProgram(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subprogram": sp})
}

// UpdateSubProgram godoc
// PUT /api/v1/admin/subprograms/:id
func (h *CurriculumHandler) UpdateSubProgram(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req model.SubProgramRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sp, err := h.curriculumService.UpdateSubProgram(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subprogram": sp})
}

// DeleteSubProgram godoc
// DELETE /api/v1/admin/subprograms/:id
func (h *CurriculumHandler) DeleteSubProgram(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.curriculumService.DeleteSubProgram(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "subprogram deleted"})
}

// ─── Levels ─────────────────────────────────────────────────────────────────

// Ladder godoc
// GET /api/v1/admin/levels
// Lists every level from easiest to hardest.
func (h *CurriculumHandler) Ladder(c *gin.Context) {
	levels, err := h.curriculumService.Ladder(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"levels": levels})
}

// GetLevel godoc
// GET /api/v1/admin/levels/:id
func (h *CurriculumHandler) GetLevel(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	level, err := h.curriculumService.GetLevel(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"level": level})
}

// CreateLevel godoc
// POST /api/v1/admin/levels
func (h *CurriculumHandler) CreateLevel(c *gin.Context) {
	var req model.CurriculumLevelRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	level, err := h.curriculumService.CreateLevel(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"level": level})
}

// UpdateLevel godoc
// PUT /api/v1/admin/levels/:id
func (h *CurriculumHandler) UpdateLevel(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req model.CurriculumLevelRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	level, err := h.curriculumService.UpdateLevel(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"level": level})
}

// DeleteLevel godoc
// DELETE /api/v1/admin/levels/:id
func (h *CurriculumHandler) DeleteLevel(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.curriculumService.DeleteLevel(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "level deleted"})
}

// ─── Placement rules ────────────────────────────────────────────────────────

// ListRules godoc
// GET /api/v1/admin/placement-rules?grade=
func (h *CurriculumHandler) ListRules(c *gin.Context) {
	grade, ok := optionalIntQuery(c, "grade")
	if !ok {
		return
	}
	rules, err := h.curriculumService.ListRules(c.Request.Context(), grade)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rules": rules})
}

// CreateRule godoc
// POST /api/v1/admin/placement-rules
func (h *CurriculumHandler) CreateRule(c *gin.Context) {
	var req model.PlacementRuleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	rule, err := h.curriculumService.CreateRule(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"rule": rule})
}

// UpdateRule godoc
// PUT /api/v1/admin/placement-rules/:id
func (h *CurriculumHandler) UpdateRule(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req model.PlacementRuleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	rule, err := h.curriculumService.UpdateRule(c.Request.Context(), id, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule godoc
// DELETE /api/v1/admin/placement-rules/:id
func (h *CurriculumHandler) DeleteRule(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.curriculumService.DeleteRule(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "rule deleted"})
}

// PreviewPlacement godoc
// GET /api/v1/admin/placement-preview?grade=5&rank=TOP_10
// Shows which level and exam a student with this grade and rank would get.
func (h *CurriculumHandler) PreviewPlacement(c *gin.Context) {
	grade, err := strconv.Atoi(c.Query("grade"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"grade": "must be a number"})
		return
	}
	p, err := h.placementService.Place(c.Request.Context(), grade, model.AcademicRank(c.Query("rank")))
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"placement": p})
}

// ─── Exam level mappings ────────────────────────────────────────────────────

// ListMappings godoc
// GET /api/v1/admin/level-mappings?level_id=
func (h *CurriculumHandler) ListMappings(c *gin.Context) {
	levelID, ok := optionalIntQuery(c, "level_id")
	if !ok {
		return
	}
	mappings, err := h.curriculumService.ListMappings(c.Request.Context(), levelID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mappings": mappings})
}

// CreateMapping godoc
// POST /api/v1/admin/level-mappings
// Takes the next free slot when none is given.
func (h *CurriculumHandler) CreateMapping(c *gin.Context) {
	var req model.ExamLevelMappingRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	m, err := h.curriculumService.CreateMapping(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"mapping": m})
}

// DeleteMapping godoc
// DELETE /api/v1/admin/level-mappings/:id
func (h *CurriculumHandler) DeleteMapping(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.curriculumService.DeleteMapping(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "mapping deleted"})
}
