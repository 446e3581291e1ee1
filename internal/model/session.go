package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates student session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// StudentSession is one attempt at an exam.
type StudentSession struct {
	ID                    uuid.UUID     `json:"id"`
	ExamID                uuid.UUID     `json:"exam_id"`
	ExamName              string        `json:"exam_name,omitempty"`
	ExamKind              ExamKind      `json:"exam_kind,omitempty"`
	StudentID             *int          `json:"student_id,omitempty"`
	StudentName           string        `json:"student_name"`
	ParentPhone           string        `json:"parent_phone"`
	SchoolName            string        `json:"school_name"`
	Grade                 int           `json:"grade"`
	AcademicRank          AcademicRank  `json:"academic_rank"`
	ClassCode             *string       `json:"class_code,omitempty"`
	OriginalLevelID       *int          `json:"original_level_id,omitempty"`
	FinalLevelID          *int          `json:"final_level_id,omitempty"`
	ParentSessionID       *uuid.UUID    `json:"parent_session_id,omitempty"`
	DifficultyAdjustments int           `json:"difficulty_adjustments"`
	Status                SessionStatus `json:"status"`
	StartedAt             time.Time     `json:"started_at"`
	CompletedAt           *time.Time    `json:"completed_at,omitempty"`
	Score                 *int          `json:"score,omitempty"`
	TotalPoints           *int          `json:"total_points,omitempty"`
	Percentage            *float64      `json:"percentage,omitempty"`
	TimerExpired          bool          `json:"timer_expired"`
	TimerMinutes          int           `json:"timer_minutes,omitempty"`
}

// Deadline returns when the session's timer runs out.
func (s StudentSession) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.TimerMinutes) * time.Minute)
}

// StudentAnswer is a saved answer for one question of a session.
type StudentAnswer struct {
	ID           int       `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	Answer       string    `json:"answer"`
	IsCorrect    *bool     `json:"is_correct,omitempty"`
	PointsEarned int       `json:"points_earned"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StartPlacementRequest is submitted by a prospective student to start a placement test.
type StartPlacementRequest struct {
	StudentName  string       `json:"student_name" binding:"required,min=2,max=100"`
	ParentPhone  string       `json:"parent_phone" binding:"required,min=6,max=30"`
	SchoolName   string       `json:"school_name" binding:"required,min=2,max=200"`
	Grade        int          `json:"grade" binding:"required,grade"`
	AcademicRank AcademicRank `json:"academic_rank" binding:"required,oneof=TOP_5 TOP_10 TOP_20 TOP_30 TOP_40 TOP_50 BELOW_50"`
}

// SessionStartResponse carries a new session and the exam the student sits.
// Level is set for placement sessions.
type SessionStartResponse struct {
	Session StudentSession   `json:"session"`
	Level   *CurriculumLevel `json:"level,omitempty"`
	Exam    ExamPayload      `json:"exam"`
}

// SaveAnswerRequest is one autosaved answer.
type SaveAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Answer     string    `json:"answer" binding:"max=2000"`
}

// SaveAnswersRequest saves several answers at once.
type SaveAnswersRequest struct {
	Answers []SaveAnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// AdjustDifficultyRequest asks for an easier (-1) or harder (+1) follow-up exam.
type AdjustDifficultyRequest struct {
	Direction int `json:"direction" binding:"required,oneof=-1 1"`
}

// GradeAnswerRequest awards manual points for a question.
type GradeAnswerRequest struct {
	Points    *int  `json:"points" binding:"required,min=0"`
	IsCorrect *bool `json:"is_correct"`
}

// SessionState is the live state of a session for the answer sheet.
type SessionState struct {
	Session          StudentSession    `json:"session"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Answers          map[string]string `json:"answers"`
}

// SessionResult is the outcome returned once a session is completed.
type SessionResult struct {
	Session StudentSession  `json:"session"`
	Answers []StudentAnswer `json:"answers"`
}

// PersistAnswerJob is the queue message the answer worker writes to the database.
type PersistAnswerJob struct {
	SessionID  uuid.UUID `json:"session_id"`
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
}
