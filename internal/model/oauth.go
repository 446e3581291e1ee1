package model

import "time"

// SubjectType says which account table an OAuth identity points at.
type SubjectType string

const (
	SubjectTeacher SubjectType = "TEACHER"
	SubjectStudent SubjectType = "STUDENT"
)

// OAuthIdentity links a provider account to a teacher or student.
type OAuthIdentity struct {
	ID             int         `json:"id"`
	Provider       string      `json:"provider"`
	ProviderUserID string      `json:"provider_user_id"`
	SubjectType    SubjectType `json:"subject_type"`
	SubjectID      int         `json:"subject_id"`
	Email          string      `json:"email"`
	AccessToken    string      `json:"-"`
	RefreshToken   string      `json:"-"`
	ExpiresAt      *time.Time  `json:"expires_at,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// OAuthProfile is the normalised user profile returned by a provider.
type OAuthProfile struct {
	ProviderUserID string `json:"provider_user_id"`
	Email          string `json:"email"`
	EmailVerified  bool   `json:"email_verified"`
	Name           string `json:"name"`
}

// OAuthLoginResult is returned by the OAuth callback.
type OAuthLoginResult struct {
	Token       string          `json:"token"`
	SubjectType SubjectType     `json:"subject_type"`
	Teacher     *Teacher        `json:"teacher,omitempty"`
	Student     *StudentProfile `json:"student,omitempty"`
	Permissions []string        `json:"permissions,omitempty"`
	RedirectTo  string          `json:"redirect_to,omitempty"`
}

// DashboardStats is the teacher dashboard payload.
type DashboardStats struct {
	PlacementExams    int              `json:"placement_exams"`
	RoutineExams      int              `json:"routine_exams"`
	SessionsToday     int              `json:"sessions_today"`
	CompletedSessions int              `json:"completed_sessions"`
	ClassesAssigned   int              `json:"classes_assigned"`
	RecentSessions    []StudentSession `json:"recent_sessions"`
}
