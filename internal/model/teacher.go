package model

import "time"

// Teacher is a staff account. Administrators are teachers whose role carries
// the exams:manage_all permission.
type Teacher struct {
	ID            int       `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	PasswordHash  string    `json:"-"`
	RoleID        int       `json:"role_id"`
	RoleName      string    `json:"role_name,omitempty"`
	IsHeadTeacher bool      `json:"is_head_teacher"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TeacherLoginRequest is the payload for teacher authentication.
type TeacherLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// TeacherLoginResponse is returned after successful teacher login.
type TeacherLoginResponse struct {
	Token       string   `json:"token"`
	Teacher     Teacher  `json:"teacher"`
	Permissions []string `json:"permissions"`
}

// CreateTeacherRequest is the payload for creating a teacher account.
type CreateTeacherRequest struct {
	Email         string `json:"email" binding:"required,email,max=255"`
	Name          string `json:"name" binding:"required,min=2,max=100"`
	Phone         string `json:"phone" binding:"omitempty,max=30"`
	Password      string `json:"password" binding:"required,min=6,max=128"`
	RoleID        int    `json:"role_id" binding:"required,min=1"`
	IsHeadTeacher bool   `json:"is_head_teacher"`
}

// UpdateTeacherRequest is the payload for updating a teacher account.
type UpdateTeacherRequest struct {
	Email         string `json:"email" binding:"required,email,max=255"`
	Name          string `json:"name" binding:"required,min=2,max=100"`
	Phone         string `json:"phone" binding:"omitempty,max=30"`
	Password      string `json:"password" binding:"omitempty,min=6,max=128"`
	RoleID        int    `json:"role_id" binding:"required,min=1"`
	IsHeadTeacher bool   `json:"is_head_teacher"`
	IsActive      *bool  `json:"is_active"`
}

// School is a school students report on registration.
type School struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
