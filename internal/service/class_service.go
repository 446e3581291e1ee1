package service

import (
	"context"
	"strings"

	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ClassService handles classes and the teachers and students assigned to them.
type ClassService struct {
	classRepo   *repository.ClassRepository
	teacherRepo *repository.TeacherRepository
	studentRepo *repository.StudentRepository
	log         zerolog.Logger
}

// NewClassService creates a new ClassService.
func NewClassService(
	classRepo *repository.ClassRepository,
	teacherRepo *repository.TeacherRepository,
	studentRepo *repository.StudentRepository,
	log zerolog.Logger,
) *ClassService {
	return &ClassService{
		classRepo:   classRepo,
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
		log:         log.With().Str("component", "class_service").Logger(),
	}
}

// Get retrieves a class by its code.
func (s *ClassService) Get(ctx context.Context, code string) (*model.Class, error) {
	return s.classRepo.GetByCode(ctx, normalizeCode(code))
}

// List returns every class for administrators and the assigned classes otherwise.
func (s *ClassService) List(ctx context.Context, actor Actor) ([]model.Class, error) {
	var (
		classes []model.Class
		err     error
	)
	if actor.IsAdmin() {
		classes, err = s.classRepo.List(ctx)
	} else {
		classes, err = s.classRepo.ListForTeacher(ctx, actor.TeacherID)
	}
	if classes == nil && err == nil {
		classes = []model.Class{}
	}
	return classes, err
}

// Create creates a new class.
func (s *ClassService) Create(ctx context.Context, req model.ClassRequest) (*model.Class, error) {
	c := &model.Class{
		Code:         normalizeCode(req.Code),
		Name:         req.Name,
		Grade:        req.Grade,
		Section:      req.Section,
		AcademicYear: req.AcademicYear,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := s.classRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info().Str("class_code", c.Code).Msg("Class created")
	return c, nil
}

// Update modifies an existing class. The code cannot change.
func (s *ClassService) Update(ctx context.Context, code string, req model.ClassRequest) (*model.Class, error) {
	c, err := s.classRepo.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	c.Name = req.Name
	c.Grade = req.Grade
	c.Section = req.Section
	c.AcademicYear = req.AcademicYear
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := s.classRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a class along with its assignments.
func (s *ClassService) Delete(ctx context.Context, code string) error {
	code = normalizeCode(code)
	if err := s.classRepo.Delete(ctx, code); err != nil {
		return err
	}
	s.log.Info().Str("class_code", code).Msg("Class deleted")
	return nil
}

// ─── Teacher assignments ────────────────────────────────────────────────────

// ListTeachers returns the teacher assignments of a class.
func (s *ClassService) ListTeachers(ctx context.Context, code string) ([]model.TeacherClassAssignment, error) {
	list, err := s.classRepo.ListAssignmentsByClass(ctx, normalizeCode(code))
	if list == nil && err == nil {
		list = []model.TeacherClassAssignment{}
	}
	return list, err
}

// ListAssignmentsForTeacher returns every class assignment of a teacher.
func (s *ClassService) ListAssignmentsForTeacher(ctx context.Context, teacherID int) ([]model.TeacherClassAssignment, error) {
	list, err := s.classRepo.ListAssignmentsByTeacher(ctx, teacherID)
	if list == nil && err == nil {
		list = []model.TeacherClassAssignment{}
	}
	return list, err
}

// AssignTeacher grants a teacher access to a class, reactivating an earlier assignment.
func (s *ClassService) AssignTeacher(ctx context.Context, code string, req model.AssignTeacherRequest) (*model.TeacherClassAssignment, error) {
	code = normalizeCode(code)
	if _, err := s.classRepo.GetByCode(ctx, code); err != nil {
		return nil, err
	}
	if _, err := s.teacherRepo.GetByID(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	a := &model.TeacherClassAssignment{
		TeacherID:   req.TeacherID,
		ClassCode:   code,
		AccessLevel: req.AccessLevel,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    true,
	}
	if err := s.classRepo.UpsertAssignment(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info().Str("class_code", code).Int("teacher_id", req.TeacherID).
		Str("access", string(req.AccessLevel)).Msg("Teacher assigned")
	return a, nil
}

// UpdateAssignment changes the access level, expiry or active flag of an assignment.
func (s *ClassService) UpdateAssignment(ctx context.Context, id int, req model.UpdateAssignmentRequest) (*model.TeacherClassAssignment, error) {
	a, err := s.classRepo.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	a.AccessLevel = req.AccessLevel
	a.ExpiresAt = req.ExpiresAt
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if err := s.classRepo.UpdateAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RevokeAssignment deactivates an assignment.
func (s *ClassService) RevokeAssignment(ctx context.Context, id int) error {
	if err := s.classRepo.RevokeAssignment(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int("assignment_id", id).Msg("Teacher assignment revoked")
	return nil
}

// ─── Students ───────────────────────────────────────────────────────────────

// ListStudents returns the students enrolled in a class.
func (s *ClassService) ListStudents(ctx context.Context, code string) ([]model.StudentClassAssignment, error) {
	return s.classRepo.ListStudents(ctx, normalizeCode(code))
}

// AssignStudent enrols a student in a class.
func (s *ClassService) AssignStudent(ctx context.Context, code string, studentID int) (*model.StudentClassAssignment, error) {
	code = normalizeCode(code)
	if _, err := s.classRepo.GetByCode(ctx, code); err != nil {
		return nil, err
	}
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	a := &model.StudentClassAssignment{StudentID: studentID, StudentName: student.Name, ClassCode: code, IsActive: true}
	if err := s.classRepo.AssignStudent(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UnassignStudent removes a student from a class.
func (s *ClassService) UnassignStudent(ctx context.Context, code string, studentID int) error {
	return s.classRepo.UnassignStudent(ctx, normalizeCode(code), studentID)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
