package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/rs/zerolog"
)

const dashboardSessionsLimit = 5

// StudentService handles student accounts, login and the student portal.
type StudentService struct {
	studentRepo *repository.StudentRepository
	schoolRepo  *repository.SchoolRepository
	classRepo   *repository.ClassRepository
	examRepo    *repository.ExamRepository
	sessionRepo *repository.SessionRepository
	auth        *AuthService
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	studentRepo *repository.StudentRepository,
	schoolRepo *repository.SchoolRepository,
	classRepo *repository.ClassRepository,
	examRepo *repository.ExamRepository,
	sessionRepo *repository.SessionRepository,
	auth *AuthService,
	log zerolog.Logger,
) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		schoolRepo:  schoolRepo,
		classRepo:   classRepo,
		examRepo:    examRepo,
		sessionRepo: sessionRepo,
		auth:        auth,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

// Register creates a student account from the self-registration form.
func (s *StudentService) Register(ctx context.Context, req model.StudentRegisterRequest) (*model.StudentProfile, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	st := &model.StudentProfile{
		StudentCode:  strings.TrimSpace(req.StudentCode),
		Name:         strings.TrimSpace(req.Name),
		Email:        optionalEmail(req.Email),
		Phone:        req.Phone,
		ParentPhone:  req.ParentPhone,
		PasswordHash: &hash,
		Grade:        req.Grade,
	}
	if err := s.attachSchool(ctx, st, req.SchoolName); err != nil {
		return nil, err
	}
	if err := s.studentRepo.Create(ctx, st); err != nil {
		return nil, err
	}

	s.log.Info().Int("student_id", st.ID).Str("student_code", st.StudentCode).Msg("Student registered")
	return st, nil
}

// Login authenticates a student by code and password and opens the single
// allowed login session.
func (s *StudentService) Login(ctx context.Context, code, password string) (*model.StudentLoginResponse, error) {
	st, err := s.studentRepo.GetByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	hash := ""
	if st.PasswordHash != nil {
		hash = *st.PasswordHash
	}
	if err := s.auth.CheckPassword(hash, password); err != nil {
		return nil, err
	}
	return s.IssueToken(ctx, st)
}

// IssueToken opens a login session for st and returns its token.
func (s *StudentService) IssueToken(ctx context.Context, st *model.StudentProfile) (*model.StudentLoginResponse, error) {
	token, err := s.auth.GenerateStudentToken(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("student_id", st.ID).Msg("Student logged in")
	return &model.StudentLoginResponse{Token: token, Student: *st}, nil
}

// Logout ends the student's login session.
func (s *StudentService) Logout(ctx context.Context, studentID int) error {
	return s.auth.ResetStudentSession(ctx, studentID)
}

// Get retrieves a student by ID.
func (s *StudentService) Get(ctx context.Context, id int) (*model.StudentProfile, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// Dashboard returns the student's classes, open routine exams and recent sessions.
func (s *StudentService) Dashboard(ctx context.Context, studentID int) (*model.StudentDashboard, error) {
	st, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	classes, err := s.classRepo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	codes := make([]string, len(classes))
	for i, c := range classes {
		codes[i] = c.Code
	}
	exams, err := s.examRepo.ListActiveRoutineForClasses(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	sessions, err := s.sessionRepo.ListByStudent(ctx, studentID, dashboardSessionsLimit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	d := &model.StudentDashboard{
		Student:        *st,
		Classes:        classes,
		AvailableExams: exams,
		RecentSessions: sessions,
	}
	if d.Classes == nil {
		d.Classes = []model.Class{}
	}
	if d.AvailableExams == nil {
		d.AvailableExams = []model.Exam{}
	}
	if d.RecentSessions == nil {
		d.RecentSessions = []model.StudentSession{}
	}
	return d, nil
}

// ─── Administration ─────────────────────────────────────────────────────────

// List retrieves students with pagination, an optional search and class filter.
func (s *StudentService) List(ctx context.Context, search, classCode string, page, perPage int) ([]model.StudentProfile, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	students, total, err := s.studentRepo.ListPaginated(ctx, strings.TrimSpace(search), normalizeCode(classCode), perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if students == nil {
		students = []model.StudentProfile{}
	}
	return students, paginate(page, perPage, total), nil
}

// Update modifies a student's details. A non-empty password replaces the old one.
func (s *StudentService) Update(ctx context.Context, id int, req model.UpdateStudentRequest) (*model.StudentProfile, error) {
	st, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Name = strings.TrimSpace(req.Name)
	st.Email = optionalEmail(req.Email)
	st.Phone = req.Phone
	st.ParentPhone = req.ParentPhone
	st.Grade = req.Grade
	if err := s.attachSchool(ctx, st, req.SchoolName); err != nil {
		return nil, err
	}
	if err := s.studentRepo.Update(ctx, st); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hash, err := s.auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.studentRepo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}
	return s.studentRepo.GetByID(ctx, id)
}

// Delete removes a student and ends their login.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.auth.ResetStudentSession(ctx, id); err != nil {
		s.log.Warn().Err(err).Int("student_id", id).Msg("Failed to clear login of deleted student")
	}
	s.log.Info().Int("student_id", id).Msg("Student deleted")
	return nil
}

// ResetSession clears a student's login so they can sign in on another device.
func (s *StudentService) ResetSession(ctx context.Context, id int) error {
	if _, err := s.studentRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.auth.ResetStudentSession(ctx, id); err != nil {
		return fmt.Errorf("reset login: %w", err)
	}
	s.log.Info().Int("student_id", id).Msg("Student login reset")
	return nil
}

func (s *StudentService) attachSchool(ctx context.Context, st *model.StudentProfile, name string) error {
	name = strings.TrimSpace(name)
	st.SchoolName = name
	st.SchoolID = nil
	if name == "" {
		return nil
	}
	school, err := s.schoolRepo.GetOrCreate(ctx, name)
	if err != nil {
		return fmt.Errorf("school: %w", err)
	}
	st.SchoolID = &school.ID
	return nil
}

func optionalEmail(email string) *string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	return &email
}
