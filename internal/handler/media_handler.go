package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// MediaHandler handles exam paper and listening clip uploads.
type MediaHandler struct {
	examService *service.ExamService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(examService *service.ExamService) *MediaHandler {
	return &MediaHandler{examService: examService}
}

// UploadPDF godoc
// POST /api/v1/admin/exams/:exam_id/pdf (multipart field "file")
// Stores the exam paper and replaces the previous one.
func (h *MediaHandler) UploadPDF(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	exam, err := h.examService.UploadPDF(c.Request.Context(), actor, examID, file, header)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// ListAudio godoc
// GET /api/v1/admin/exams/:exam_id/audio
func (h *MediaHandler) ListAudio(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	files, err := h.examService.ListAudio(c.Request.Context(), actor, examID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"audio_files": files})
}

// UploadAudio godoc
// POST /api/v1/admin/exams/:exam_id/audio (multipart: file, name, start_question, end_question)
// Stores a listening clip covering a range of question numbers.
func (h *MediaHandler) UploadAudio(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var form model.AudioFileForm
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	audio, err := h.examService.UploadAudio(c.Request.Context(), actor, examID, form, file, header)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"audio_file": audio})
}

// DeleteAudio godoc
// DELETE /api/v1/admin/exams/:exam_id/audio/:audio_id
func (h *MediaHandler) DeleteAudio(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}
	audioID, ok := uuidParam(c, "audio_id")
	if !ok {
		return
	}

	if err := h.examService.DeleteAudio(c.Request.Context(), actor, examID, audioID); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "audio file deleted"})
}
