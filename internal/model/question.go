package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType selects the grading rule for a question.
type QuestionType string

const (
	QuestionTypeMCQ      QuestionType = "MCQ"
	QuestionTypeCheckbox QuestionType = "CHECKBOX"
	QuestionTypeShort    QuestionType = "SHORT"
	QuestionTypeLong     QuestionType = "LONG"
	QuestionTypeMixed    QuestionType = "MIXED"
)

// Question is one numbered answer slot of an exam.
type Question struct {
	ID             uuid.UUID    `json:"id"`
	ExamID         uuid.UUID    `json:"exam_id"`
	QuestionNumber int          `json:"question_number"`
	QuestionType   QuestionType `json:"question_type"`
	CorrectAnswer  string       `json:"correct_answer"`
	Points         int          `json:"points"`
	OptionsCount   int          `json:"options_count"`
}

// QuestionForStudent is a question without the correct answer.
type QuestionForStudent struct {
	ID             uuid.UUID    `json:"id"`
	QuestionNumber int          `json:"question_number"`
	QuestionType   QuestionType `json:"question_type"`
	Points         int          `json:"points"`
	OptionsCount   int          `json:"options_count"`
}

// QuestionRequest is one question in a create or replace payload.
type QuestionRequest struct {
	QuestionNumber int          `json:"question_number" binding:"required,min=1"`
	QuestionType   QuestionType `json:"question_type" binding:"required,oneof=MCQ CHECKBOX SHORT LONG MIXED"`
	CorrectAnswer  string       `json:"correct_answer" binding:"omitempty,max=2000"`
	Points         *int         `json:"points" binding:"omitempty,min=0,max=100"`
	OptionsCount   int          `json:"options_count" binding:"omitempty,min=2,max=10"`
}

// ReplaceQuestionsRequest replaces every question of an exam.
type ReplaceQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// UpdateQuestionRequest updates a single question. Nil fields are left unchanged.
type UpdateQuestionRequest struct {
	QuestionType  *QuestionType `json:"question_type" binding:"omitempty,oneof=MCQ CHECKBOX SHORT LONG MIXED"`
	CorrectAnswer *string       `json:"correct_answer" binding:"omitempty,max=2000"`
	Points        *int          `json:"points" binding:"omitempty,min=0,max=100"`
	OptionsCount  *int          `json:"options_count" binding:"omitempty,min=2,max=10"`
}

// AudioFile is a listening clip that covers a range of question numbers.
type AudioFile struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	Name          string    `json:"name"`
	FilePath      string    `json:"file_path"`
	StartQuestion int       `json:"start_question"`
	EndQuestion   int       `json:"end_question"`
	CreatedAt     time.Time `json:"created_at"`
}

// AudioFileForm is the multipart form accompanying an audio upload.
type AudioFileForm struct {
	Name          string `form:"name" binding:"required,min=1,max=200"`
	StartQuestion int    `form:"start_question" binding:"required,min=1"`
	EndQuestion   int    `form:"end_question" binding:"required,gtefield=StartQuestion"`
}
