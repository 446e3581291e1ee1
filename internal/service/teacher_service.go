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

// TeacherService handles teacher accounts and teacher login.
type TeacherService struct {
	teacherRepo *repository.TeacherRepository
	roleRepo    *repository.RoleRepository
	auth        *AuthService
	log         zerolog.Logger
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(
	teacherRepo *repository.TeacherRepository,
	roleRepo *repository.RoleRepository,
	auth *AuthService,
	log zerolog.Logger,
) *TeacherService {
	return &TeacherService{
		teacherRepo: teacherRepo,
		roleRepo:    roleRepo,
		auth:        auth,
		log:         log.With().Str("component", "teacher_service").Logger(),
	}
}

// Login authenticates a teacher by email and password.
func (s *TeacherService) Login(ctx context.Context, email, password string) (*model.TeacherLoginResponse, error) {
	t, err := s.teacherRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.auth.CheckPassword(t.PasswordHash, password); err != nil {
		return nil, err
	}
	return s.IssueToken(ctx, t)
}

// IssueToken signs a teacher JWT carrying the role's permissions.
func (s *TeacherService) IssueToken(ctx context.Context, t *model.Teacher) (*model.TeacherLoginResponse, error) {
	if !t.IsActive {
		return nil, ErrAccountDisabled
	}
	perms, err := s.roleRepo.GetPermissionsByRoleID(ctx, t.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	if perms == nil {
		perms = []string{}
	}
	token, err := s.auth.GenerateTeacherToken(t.ID, t.RoleID, perms)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.log.Info().Int("teacher_id", t.ID).Msg("Teacher logged in")
	return &model.TeacherLoginResponse{Token: token, Teacher: *t, Permissions: perms}, nil
}

// Get retrieves a teacher by ID.
func (s *TeacherService) Get(ctx context.Context, id int) (*model.Teacher, error) {
	return s.teacherRepo.GetByID(ctx, id)
}

// List returns teachers ordered by name.
func (s *TeacherService) List(ctx context.Context, search string, page, perPage int) ([]model.Teacher, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	teachers, total, err := s.teacherRepo.ListPaginated(ctx, strings.TrimSpace(search), perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if teachers == nil {
		teachers = []model.Teacher{}
	}
	return teachers, paginate(page, perPage, total), nil
}

// Create creates a teacher account.
func (s *TeacherService) Create(ctx context.Context, req model.CreateTeacherRequest) (*model.Teacher, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	t := &model.Teacher{
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Name:          req.Name,
		Phone:         req.Phone,
		PasswordHash:  hash,
		RoleID:        req.RoleID,
		IsHeadTeacher: req.IsHeadTeacher,
		IsActive:      true,
	}
	if err := s.teacherRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info().Int("teacher_id", t.ID).Str("email", t.Email).Msg("Teacher created")
	return s.teacherRepo.GetByID(ctx, t.ID)
}

// Update modifies a teacher account. An empty password leaves it unchanged.
func (s *TeacherService) Update(ctx context.Context, id int, req model.UpdateTeacherRequest) (*model.Teacher, error) {
	t, err := s.teacherRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Email = strings.ToLower(strings.TrimSpace(req.Email))
	t.Name = req.Name
	t.Phone = req.Phone
	t.RoleID = req.RoleID
	t.IsHeadTeacher = req.IsHeadTeacher
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.teacherRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hash, err := s.auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.teacherRepo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}
	return s.teacherRepo.GetByID(ctx, id)
}

// Deactivate disables a teacher account. Teachers cannot deactivate themselves.
func (s *TeacherService) Deactivate(ctx context.Context, actor Actor, id int) error {
	if actor.TeacherID == id {
		return ErrPermissionDenied
	}
	if err := s.teacherRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int("teacher_id", id).Int("by", actor.TeacherID).Msg("Teacher deactivated")
	return nil
}
