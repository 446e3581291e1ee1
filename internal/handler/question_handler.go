package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// QuestionHandler handles the answer key of an exam.
type QuestionHandler struct {
	examService *service.ExamService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(examService *service.ExamService) *QuestionHandler {
	return &QuestionHandler{examService: examService}
}

// ListQuestions godoc
// GET /api/v1/admin/exams/:exam_id/questions
// Lists all questions of an exam with their correct answers.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	questions, err := h.examService.ListQuestions(c.Request.Context(), actor, examID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ReplaceQuestions godoc
// PUT /api/v1/admin/exams/:exam_id/questions
// Replaces the whole answer key in one transaction. Existing question ids are kept by number.
func (h *QuestionHandler) ReplaceQuestions(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.examService.ReplaceQuestions(c.Request.Context(), actor, examID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// UpdateQuestion godoc
// PATCH /api/v1/admin/exams/:exam_id/questions/:question_id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.examService.UpdateQuestion(c.Request.Context(), actor, examID, questionID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}
