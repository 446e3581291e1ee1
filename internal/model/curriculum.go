package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Program is the top tier of the curriculum (PRIME CORE, PRIME ASCENT, ...).
type Program struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	GradeRangeStart int    `json:"grade_range_start"`
	GradeRangeEnd   int    `json:"grade_range_end"`
	SortOrder       int    `json:"sort_order"`
}

// SubProgram is a named track inside a Program.
type SubProgram struct {
	ID        int    `json:"id"`
	ProgramID int    `json:"program_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// CurriculumLevel is a numbered level inside a SubProgram.
type CurriculumLevel struct {
	ID                 int    `json:"id"`
	SubProgramID       int    `json:"subprogram_id"`
	LevelNumber        int    `json:"level_number"`
	Description        string `json:"description"`
	InternalDifficulty *int   `json:"internal_difficulty,omitempty"`

	// Denormalised for display and ladder ordering.
	ProgramID        int    `json:"program_id"`
	ProgramName      string `json:"program_name"`
	ProgramSortOrder int    `json:"-"`
	SubProgramName   string `json:"subprogram_name"`
	SubProgramOrder  int    `json:"-"`
}

// FullName renders "PROGRAM - SubProgram - Level N".
func (l CurriculumLevel) FullName() string {
	return fmt.Sprintf("%s - %s - Level %d", l.ProgramName, l.SubProgramName, l.LevelNumber)
}

// PlacementRule maps a grade and percentile range to a curriculum level.
// Lower Priority wins when several rules match.
type PlacementRule struct {
	ID                int     `json:"id"`
	Grade             int     `json:"grade"`
	MinPercentile     float64 `json:"min_percentile"`
	MaxPercentile     float64 `json:"max_percentile"`
	CurriculumLevelID int     `json:"curriculum_level_id"`
	Priority          int     `json:"priority"`
}

// ExamLevelMapping attaches an exam to a curriculum level at a slot.
type ExamLevelMapping struct {
	ID                int       `json:"id"`
	CurriculumLevelID int       `json:"curriculum_level_id"`
	ExamID            uuid.UUID `json:"exam_id"`
	Slot              int       `json:"slot"`
	ExamName          string    `json:"exam_name,omitempty"`
	ExamActive        bool      `json:"exam_active"`
}

// ProgramRequest is the payload for creating or updating a program.
type ProgramRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=50"`
	GradeRangeStart int    `json:"grade_range_start" binding:"required,grade"`
	GradeRangeEnd   int    `json:"grade_range_end" binding:"required,grade,gtefield=GradeRangeStart"`
	SortOrder       int    `json:"sort_order" binding:"omitempty,min=0"`
}

// SubProgramRequest is the payload for creating or updating a subprogram.
type SubProgramRequest struct {
	ProgramID int    `json:"program_id" binding:"required,min=1"`
	Name      string `json:"name" binding:"required,min=1,max=100"`
	SortOrder int    `json:"sort_order" binding:"omitempty,min=0"`
}

// CurriculumLevelRequest is the payload for creating or updating a level.
type CurriculumLevelRequest struct {
	SubProgramID       int    `json:"subprogram_id" binding:"required,min=1"`
	LevelNumber        int    `json:"level_number" binding:"required,min=1"`
	Description        string `json:"description" binding:"omitempty,max=500"`
	InternalDifficulty *int   `json:"internal_difficulty" binding:"omitempty,min=0"`
}

// PlacementRuleRequest is the payload for creating or updating a placement rule.
type PlacementRuleRequest struct {
	Grade             int      `json:"grade" binding:"required,grade"`
	MinPercentile     *float64 `json:"min_percentile" binding:"required,percentile"`
	MaxPercentile     *float64 `json:"max_percentile" binding:"required,percentile,gtefield=MinPercentile"`
	CurriculumLevelID int      `json:"curriculum_level_id" binding:"required,min=1"`
	Priority          int      `json:"priority" binding:"omitempty,min=1"`
}

// ExamLevelMappingRequest is the payload for attaching an exam to a level.
// A zero Slot takes the next free slot.
type ExamLevelMappingRequest struct {
	CurriculumLevelID int       `json:"curriculum_level_id" binding:"required,min=1"`
	ExamID            uuid.UUID `json:"exam_id" binding:"required"`
	Slot              int       `json:"slot" binding:"omitempty,min=1"`
}
