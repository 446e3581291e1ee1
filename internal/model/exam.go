package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamKind distinguishes placement tests from routine classroom tests.
type ExamKind string

const (
	ExamKindPlacement ExamKind = "PLACEMENT"
	ExamKindRoutine   ExamKind = "ROUTINE"
)

// RoutineType classifies routine exams.
type RoutineType string

const (
	RoutineTypeReview    RoutineType = "REVIEW"
	RoutineTypeQuarterly RoutineType = "QUARTERLY"
)

// Exam is an answer sheet over an uploaded PDF paper.
type Exam struct {
	ID                  uuid.UUID    `json:"id"`
	Kind                ExamKind     `json:"kind"`
	Name                string       `json:"name"`
	AuthorID            *int         `json:"author_id,omitempty"`
	CurriculumLevelID   *int         `json:"curriculum_level_id,omitempty"`
	TimerMinutes        int          `json:"timer_minutes"`
	TotalQuestions      int          `json:"total_questions"`
	DefaultOptionsCount int          `json:"default_options_count"`
	PDFFilePath         string       `json:"pdf_file_path"`
	Instructions        string       `json:"instructions"`
	IsActive            bool         `json:"is_active"`
	RoutineType         *RoutineType `json:"routine_type,omitempty"`
	AcademicYear        *string      `json:"academic_year,omitempty"`
	ClassCodes          []string     `json:"class_codes"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// ExamFilter narrows exam listings.
type ExamFilter struct {
	Kind              ExamKind
	CurriculumLevelID *int
	Active            *bool
	ClassCodes        []string
	// VisibleToTeacher limits results to exams the teacher may view. Zero means no limit.
	VisibleToTeacher int
	Page             int
	PerPage          int
}

// CreateExamRequest is the payload for creating an exam.
type CreateExamRequest struct {
	Kind                ExamKind    `json:"kind" binding:"required,oneof=PLACEMENT ROUTINE"`
	Name                string      `json:"name" binding:"required,min=3,max=255"`
	CurriculumLevelID   *int        `json:"curriculum_level_id" binding:"omitempty,min=1"`
	TimerMinutes        int         `json:"timer_minutes" binding:"required,min=1,max=480"`
	TotalQuestions      int         `json:"total_questions" binding:"required,min=1,max=500"`
	DefaultOptionsCount int         `json:"default_options_count" binding:"omitempty,min=2,max=10"`
	Instructions        string      `json:"instructions" binding:"omitempty,max=5000"`
	RoutineType         RoutineType `json:"routine_type" binding:"omitempty,oneof=REVIEW QUARTERLY"`
	AcademicYear        string      `json:"academic_year" binding:"omitempty,max=9"`
	ClassCodes          []string    `json:"class_codes" binding:"omitempty,dive,class_code"`
}

// UpdateExamRequest is the payload for updating an exam. Nil fields are left unchanged.
type UpdateExamRequest struct {
	Name                *string      `json:"name" binding:"omitempty,min=3,max=255"`
	CurriculumLevelID   *int         `json:"curriculum_level_id" binding:"omitempty,min=1"`
	TimerMinutes        *int         `json:"timer_minutes" binding:"omitempty,min=1,max=480"`
	DefaultOptionsCount *int         `json:"default_options_count" binding:"omitempty,min=2,max=10"`
	Instructions        *string      `json:"instructions" binding:"omitempty,max=5000"`
	IsActive            *bool        `json:"is_active"`
	RoutineType         *RoutineType `json:"routine_type" binding:"omitempty,oneof=REVIEW QUARTERLY"`
	AcademicYear        *string      `json:"academic_year" binding:"omitempty,max=9"`
}

// SetExamClassesRequest replaces the classes a routine exam targets.
type SetExamClassesRequest struct {
	ClassCodes []string `json:"class_codes" binding:"required,dive,class_code"`
}

// ExamPayload is what a student sees for a session: no correct answers.
type ExamPayload struct {
	ExamID         uuid.UUID            `json:"exam_id"`
	Name           string               `json:"name"`
	TimerMinutes   int                  `json:"timer_minutes"`
	PDFFilePath    string               `json:"pdf_file_path"`
	Instructions   string               `json:"instructions"`
	Questions      []QuestionForStudent `json:"questions"`
	AudioFiles     []AudioFile          `json:"audio_files"`
	CurriculumName string               `json:"curriculum_name,omitempty"`
}
