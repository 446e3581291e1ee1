package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/primepath/primepath-backend/internal/placement"
	"github.com/primepath/primepath-backend/internal/repository"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("placement", "p")
	r.Register("auth", "a")

	if got, ok := r.Lookup("auth"); !ok || got != "a" {
		t.Fatalf("Lookup(auth) = %v, %v", got, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("Lookup(missing) should fail")
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "auth" || names[1] != "placement" {
		t.Fatalf("Names() = %v", names)
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register("exam", 1)
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration should panic")
		}
	}()
	r.Register("exam", 2)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindInternal},
		{"plain", errors.New("boom"), KindInternal},
		{"session sentinel", ErrSessionExpired, KindSession},
		{"wrapped sentinel", fmt.Errorf("save answer: %w", ErrSessionCompleted), KindSession},
		{"permission", ErrPermissionDenied, KindPermission},
		{"file", ErrUnsupportedFileType, KindFileProcessing},
		{"repo not found", fmt.Errorf("get exam: %w", repository.ErrNotFound), KindNotFound},
		{"repo duplicate", repository.ErrDuplicate, KindConflict},
		{"repo referenced", repository.ErrReferenced, KindConflict},
		{"no rule", placement.ErrNoPlacementRule, KindNotFound},
		{"unknown rank", placement.ErrUnknownRank, KindValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

type namedService interface{ Name() string }

type quizService struct{}

func (quizService) Name() string { return "quiz" }

func TestLookupAs(t *testing.T) {
	r := NewRegistry()
	r.Register("quiz", quizService{})
	r.Register("plain", 42)

	if svc, ok := LookupAs[namedService](r, "quiz"); !ok || svc.Name() != "quiz" {
		t.Fatalf("LookupAs(quiz) = %v, %v", svc, ok)
	}
	if _, ok := LookupAs[namedService](r, "plain"); ok {
		t.Fatal("LookupAs should reject a service of another type")
	}
	if _, ok := LookupAs[namedService](r, "missing"); ok {
		t.Fatal("LookupAs(missing) should fail")
	}
}
