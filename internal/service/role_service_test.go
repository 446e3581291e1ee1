package service

import (
	"errors"
	"testing"
)

func TestCheckPermissions(t *testing.T) {
	if err := checkPermissions([]string{"exams:read", "roles:write"}); err != nil {
		t.Errorf("known codes rejected: %v", err)
	}
	if err := checkPermissions(nil); err != nil {
		t.Errorf("empty list rejected: %v", err)
	}

	err := checkPermissions([]string{"exams:read", "exams:destroy"})
	if !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("err = %v, want ErrUnknownPermission", err)
	}
	if KindOf(err) != KindValidation {
		t.Errorf("kind = %v, want validation", KindOf(err))
	}
}

func TestAllPermissionsListed(t *testing.T) {
	s := &RoleService{}
	perms := s.AllPermissions()
	if len(perms) == 0 {
		t.Fatal("no permissions listed")
	}
	if err := checkPermissions(perms); err != nil {
		t.Errorf("listed permissions fail validation: %v", err)
	}
}
