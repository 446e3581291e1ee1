package service

import (
	"context"
	"fmt"
	"time"

	"github.com/primepath/primepath-backend/internal/model"
)

// Actor is the authenticated teacher performing an operation.
type Actor struct {
	TeacherID   int
	Permissions []string
}

// IsAdmin reports whether the actor manages every exam.
func (a Actor) IsAdmin() bool {
	return model.HasPermission(a.Permissions, model.PermissionExamsManageAll)
}

// AssignmentLister lists a teacher's class assignments.
type AssignmentLister interface {
	ListAssignmentsByTeacher(ctx context.Context, teacherID int) ([]model.TeacherClassAssignment, error)
}

// ExamPermissionService decides what a teacher may do with an exam.
type ExamPermissionService struct {
	assignments AssignmentLister
	now         func() time.Time
}

// NewExamPermissionService creates a new ExamPermissionService.
func NewExamPermissionService(assignments AssignmentLister) *ExamPermissionService {
	return &ExamPermissionService{assignments: assignments, now: time.Now}
}

// CanTeacherDeleteExam: admin, the author, or FULL access to one of the exam's classes.
func (s *ExamPermissionService) CanTeacherDeleteExam(ctx context.Context, actor Actor, exam *model.Exam) (bool, error) {
	return s.check(ctx, actor, exam, model.AccessFull)
}

// CanTeacherEditExam: admin, the author, or FULL or CO_TEACHER access to one of the exam's classes.
func (s *ExamPermissionService) CanTeacherEditExam(ctx context.Context, actor Actor, exam *model.Exam) (bool, error) {
	return s.check(ctx, actor, exam, model.AccessFull, model.AccessCoTeacher)
}

// CanTeacherViewExam: admin, the author, any access to one of the exam's
// classes, or any teacher for placement exams.
func (s *ExamPermissionService) CanTeacherViewExam(ctx context.Context, actor Actor, exam *model.Exam) (bool, error) {
	if exam.Kind == model.ExamKindPlacement {
		return true, nil
	}
	return s.check(ctx, actor, exam, model.AccessFull, model.AccessCoTeacher, model.AccessView)
}

func (s *ExamPermissionService) check(ctx context.Context, actor Actor, exam *model.Exam, levels ...model.AccessLevel) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if exam.AuthorID != nil && *exam.AuthorID == actor.TeacherID {
		return true, nil
	}
	if len(exam.ClassCodes) == 0 {
		return false, nil
	}

	assignments, err := s.assignments.ListAssignmentsByTeacher(ctx, actor.TeacherID)
	if err != nil {
		return false, fmt.Errorf("list assignments: %w", err)
	}

	classes := make(map[string]bool, len(exam.ClassCodes))
	for _, c := range exam.ClassCodes {
		classes[c] = true
	}
	now := s.now()
	for _, a := range assignments {
		if !classes[a.ClassCode] || !a.Effective(now) {
			continue
		}
		for _, l := range levels {
			if a.AccessLevel == l {
				return true, nil
			}
		}
	}
	return false, nil
}

// Require returns ErrPermissionDenied unless allowed is true.
func Require(allowed bool, err error) error {
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}
