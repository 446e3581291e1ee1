package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/primepath/primepath-backend/internal/model"
)

type fakeAssignments map[int][]model.TeacherClassAssignment

func (f fakeAssignments) ListAssignmentsByTeacher(_ context.Context, teacherID int) ([]model.TeacherClassAssignment, error) {
	return f[teacherID], nil
}

func TestExamPermissions(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assignments := fakeAssignments{
		10: {{TeacherID: 10, ClassCode: "G5-A", AccessLevel: model.AccessFull, IsActive: true}},
		11: {{TeacherID: 11, ClassCode: "G5-A", AccessLevel: model.AccessCoTeacher, IsActive: true, ExpiresAt: &future}},
		12: {{TeacherID: 12, ClassCode: "G5-A", AccessLevel: model.AccessView, IsActive: true}},
		13: {{TeacherID: 13, ClassCode: "G5-A", AccessLevel: model.AccessFull, IsActive: true, ExpiresAt: &past}},
		14: {{TeacherID: 14, ClassCode: "G5-A", AccessLevel: model.AccessFull, IsActive: false}},
		15: {{TeacherID: 15, ClassCode: "G6-B", AccessLevel: model.AccessFull, IsActive: true}},
	}
	s := NewExamPermissionService(assignments)
	s.now = func() time.Time { return now }

	author := 99
	routine := &model.Exam{Kind: model.ExamKindRoutine, AuthorID: &author, ClassCodes: []string{"G5-A"}}
	placementExam := &model.Exam{Kind: model.ExamKindPlacement, AuthorID: &author}

	admin := Actor{TeacherID: 1, Permissions: []string{string(model.PermissionExamsManageAll)}}

	tests := []struct {
		name                   string
		actor                  Actor
		exam                   *model.Exam
		view, edit, deleteExam bool
	}{
		{"admin", admin, routine, true, true, true},
		{"author", Actor{TeacherID: 99}, routine, true, true, true},
		{"full access", Actor{TeacherID: 10}, routine, true, true, true},
		{"co-teacher", Actor{TeacherID: 11}, routine, true, true, false},
		{"view only", Actor{TeacherID: 12}, routine, true, false, false},
		{"expired assignment", Actor{TeacherID: 13}, routine, false, false, false},
		{"inactive assignment", Actor{TeacherID: 14}, routine, false, false, false},
		{"other class", Actor{TeacherID: 15}, routine, false, false, false},
		{"placement visible to all", Actor{TeacherID: 15}, placementExam, true, false, false},
	}

	ctx := context.Background()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			view, err := s.CanTeacherViewExam(ctx, tc.actor, tc.exam)
			if err != nil || view != tc.view {
				t.Errorf("view = %v, %v; want %v", view, err, tc.view)
			}
			edit, err := s.CanTeacherEditExam(ctx, tc.actor, tc.exam)
			if err != nil || edit != tc.edit {
				t.Errorf("edit = %v, %v; want %v", edit, err, tc.edit)
			}
			del, err := s.CanTeacherDeleteExam(ctx, tc.actor, tc.exam)
			if err != nil || del != tc.deleteExam {
				t.Errorf("delete = %v, %v; want %v", del, err, tc.deleteExam)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	if err := Require(true, nil); err != nil {
		t.Fatalf("Require(true) = %v", err)
	}
	if err := Require(false, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Require(false) = %v", err)
	}
	boom := errors.New("boom")
	if err := Require(true, boom); !errors.Is(err, boom) {
		t.Fatalf("Require(err) = %v", err)
	}
}
