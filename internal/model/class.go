package model

import "time"

// Class is a teaching group identified by a short code.
type Class struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Grade        int       `json:"grade"`
	Section      string    `json:"section"`
	AcademicYear string    `json:"academic_year"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClassRequest is the payload for creating a class.
type ClassRequest struct {
	Code         string `json:"code" binding:"required,class_code"`
	Name         string `json:"name" binding:"required,min=1,max=100"`
	Grade        int    `json:"grade" binding:"required,grade"`
	Section      string `json:"section" binding:"omitempty,max=20"`
	AcademicYear string `json:"academic_year" binding:"omitempty,max=9"`
	IsActive     *bool  `json:"is_active"`
}

// AccessLevel is a teacher's access to a class.
type AccessLevel string

const (
	AccessFull      AccessLevel = "FULL"
	AccessView      AccessLevel = "VIEW"
	AccessCoTeacher AccessLevel = "CO_TEACHER"
)

// TeacherClassAssignment grants a teacher access to a class.
type TeacherClassAssignment struct {
	ID          int         `json:"id"`
	TeacherID   int         `json:"teacher_id"`
	TeacherName string      `json:"teacher_name,omitempty"`
	ClassCode   string      `json:"class_code"`
	AccessLevel AccessLevel `json:"access_level"`
	AssignedAt  time.Time   `json:"assigned_at"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	IsActive    bool        `json:"is_active"`
}

// Effective reports whether the assignment grants access at now.
func (a TeacherClassAssignment) Effective(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || now.Before(*a.ExpiresAt)
}

// AssignTeacherRequest is the payload for assigning a teacher to a class.
type AssignTeacherRequest struct {
	TeacherID   int         `json:"teacher_id" binding:"required,min=1"`
	AccessLevel AccessLevel `json:"access_level" binding:"required,oneof=FULL VIEW CO_TEACHER"`
	ExpiresAt   *time.Time  `json:"expires_at"`
}

// UpdateAssignmentRequest changes the access level or expiry of an assignment.
type UpdateAssignmentRequest struct {
	AccessLevel AccessLevel `json:"access_level" binding:"required,oneof=FULL VIEW CO_TEACHER"`
	ExpiresAt   *time.Time  `json:"expires_at"`
	IsActive    *bool       `json:"is_active"`
}

// StudentClassAssignment enrols a student in a class.
type StudentClassAssignment struct {
	ID          int       `json:"id"`
	StudentID   int       `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	ClassCode   string    `json:"class_code"`
	AssignedAt  time.Time `json:"assigned_at"`
	IsActive    bool      `json:"is_active"`
}

// AssignStudentRequest is the payload for enrolling a student in a class.
type AssignStudentRequest struct {
	StudentID int `json:"student_id" binding:"required,min=1"`
}
