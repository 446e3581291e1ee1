package model

import "time"

// AcademicRank is the self-reported class standing used for placement.
type AcademicRank string

const (
	RankTop5    AcademicRank = "TOP_5"
	RankTop10   AcademicRank = "TOP_10"
	RankTop20   AcademicRank = "TOP_20"
	RankTop30   AcademicRank = "TOP_30"
	RankTop40   AcademicRank = "TOP_40"
	RankTop50   AcademicRank = "TOP_50"
	RankBelow50 AcademicRank = "BELOW_50"
)

// StudentProfile is a student account.
type StudentProfile struct {
	ID           int       `json:"id"`
	StudentCode  string    `json:"student_code"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	Phone        string    `json:"phone"`
	ParentPhone  string    `json:"parent_phone"`
	PasswordHash *string   `json:"-"`
	Grade        int       `json:"grade"`
	SchoolID     *int      `json:"school_id,omitempty"`
	SchoolName   string    `json:"school_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentRegisterRequest is the self-registration payload.
type StudentRegisterRequest struct {
	StudentCode string `json:"student_code" binding:"required,alphanum,min=4,max=30"`
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
	Grade       int    `json:"grade" binding:"required,grade"`
	SchoolName  string `json:"school_name" binding:"omitempty,max=200"`
	Phone       string `json:"phone" binding:"omitempty,max=30"`
	ParentPhone string `json:"parent_phone" binding:"omitempty,max=30"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	StudentCode string `json:"student_code" binding:"required,min=4,max=30"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string         `json:"token"`
	Student StudentProfile `json:"student"`
}

// UpdateStudentRequest is the admin payload for updating a student.
type UpdateStudentRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	Password    string `json:"password" binding:"omitempty,min=6,max=128"`
	Grade       int    `json:"grade" binding:"required,grade"`
	SchoolName  string `json:"school_name" binding:"omitempty,max=200"`
	Phone       string `json:"phone" binding:"omitempty,max=30"`
	ParentPhone string `json:"parent_phone" binding:"omitempty,max=30"`
}

// StudentDashboard is the student landing page payload.
type StudentDashboard struct {
	Student        StudentProfile   `json:"student"`
	Classes        []Class          `json:"classes"`
	AvailableExams []Exam           `json:"available_exams"`
	RecentSessions []StudentSession `json:"recent_sessions"`
}
