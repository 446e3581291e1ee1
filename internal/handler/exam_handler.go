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

// ExamHandler handles exam management endpoints.
type ExamHandler struct {
	examService    *service.ExamService
	sessionService *service.SessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, sessionService *service.SessionService) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		sessionService: sessionService,
	}
}

// ListExams godoc
// GET /api/v1/admin/exams?kind=&level_id=&active=&page=&per_page=
// Lists exams with pagination. Administrators see all; teachers see the exams they may view.
func (h *ExamHandler) ListExams(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	filter := model.ExamFilter{Kind: model.ExamKind(c.Query("kind"))}
	filter.Page, filter.PerPage = pageQuery(c)
	if filter.CurriculumLevelID, ok = optionalIntQuery(c, "level_id"); !ok {
		return
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"active": "must be true or false"})
			return
		}
		filter.Active = &active
	}
	if code := c.Query("class_code"); code != "" {
		filter.ClassCodes = []string{code}
	}

	exams, pagination, err := h.examService.List(c.Request.Context(), actor, filter)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/admin/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), actor, examID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/admin/exams
// Creates a placement or routine exam with one MCQ stub per question.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), actor, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PATCH /api/v1/admin/exams/:exam_id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), actor, examID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:exam_id
// Requires the author, an administrator or FULL access to one of the exam's classes.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), actor, examID); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "exam deleted"})
}

// SetExamClasses godoc
// PUT /api/v1/admin/exams/:exam_id/classes
// Replaces the classes a routine exam targets.
func (h *ExamHandler) SetExamClasses(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.SetExamClassesRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.SetClasses(c.Request.Context(), actor, examID, req.ClassCodes)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// GetExamResults godoc
// GET /api/v1/admin/exams/:exam_id/results?status=&page=&per_page=
// Returns paginated student sessions for an exam.
func (h *ExamHandler) GetExamResults(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	page, perPage := pageQuery(c)
	status := model.SessionStatus(c.Query("status"))
	results, pagination, err := h.sessionService.ListResults(c.Request.Context(), actor, examID, status, page, perPage)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// GetSessionDetail godoc
// GET /api/v1/admin/sessions/:session_id
// Returns a session with every answer and its grade.
func (h *ExamHandler) GetSessionDetail(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	result, err := h.sessionService.SessionDetail(c.Request.Context(), actor, sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GradeAnswer godoc
// PUT /api/v1/admin/sessions/:session_id/answers/:question_id/grade
// Awards manual points for a long answer and rescales the session score.
func (h *ExamHandler) GradeAnswer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}

	var req model.GradeAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.GradeManually(c.Request.Context(), actor, sessionID, questionID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
