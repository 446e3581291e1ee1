package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/database"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AdministratorRoleID is the seeded role that holds every permission.
const AdministratorRoleID = 1

// RoleService handles roles and their permissions.
type RoleService struct {
	pool     *pgxpool.Pool
	roleRepo *repository.RoleRepository
	log      zerolog.Logger
}

// NewRoleService creates a new RoleService.
func NewRoleService(pool *pgxpool.Pool, roleRepo *repository.RoleRepository, log zerolog.Logger) *RoleService {
	return &RoleService{
		pool:     pool,
		roleRepo: roleRepo,
		log:      log.With().Str("component", "role_service").Logger(),
	}
}

// ListRoles retrieves all roles with their permissions.
func (s *RoleService) ListRoles(ctx context.Context) ([]model.RoleWithPermissions, error) {
	return s.roleRepo.ListRolesWithPermissions(ctx)
}

// GetRole retrieves a specific role and its permissions.
func (s *RoleService) GetRole(ctx context.Context, id int) (*model.RoleWithPermissions, error) {
	return s.roleRepo.GetRoleByID(ctx, id)
}

// CreateRole creates a role and assigns its permissions in one transaction.
func (s *RoleService) CreateRole(ctx context.Context, req model.RoleRequest) (*model.RoleWithPermissions, error) {
	if err := checkPermissions(req.Permissions); err != nil {
		return nil, err
	}

	var id int
	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		roles := s.roleRepo.WithTx(tx)
		var err error
		if id, err = roles.CreateRole(ctx, req.Name); err != nil {
			return err
		}
		if len(req.Permissions) == 0 {
			return nil
		}
		return roles.AssignPermissionsToRole(ctx, id, req.Permissions)
	})
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	s.log.Info().Int("role_id", id).Str("name", req.Name).Msg("Role created")
	return s.GetRole(ctx, id)
}

// UpdateRole renames a role and replaces its permissions.
func (s *RoleService) UpdateRole(ctx context.Context, id int, req model.RoleRequest) (*model.RoleWithPermissions, error) {
	if id == AdministratorRoleID {
		return nil, ErrSystemRole
	}
	if err := checkPermissions(req.Permissions); err != nil {
		return nil, err
	}

	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		roles := s.roleRepo.WithTx(tx)
		if err := roles.UpdateRole(ctx, id, req.Name); err != nil {
			return err
		}
		if err := roles.DeleteAllPermissionsFromRole(ctx, id); err != nil {
			return err
		}
		if len(req.Permissions) == 0 {
			return nil
		}
		return roles.AssignPermissionsToRole(ctx, id, req.Permissions)
	})
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetRole(ctx, id)
}

// DeleteRole deletes a role. Roles still held by teachers are rejected by the database.
func (s *RoleService) DeleteRole(ctx context.Context, id int) error {
	if id == AdministratorRoleID {
		return ErrSystemRole
	}
	if err := s.roleRepo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int("role_id", id).Msg("Role deleted")
	return nil
}

// AllPermissions lists every permission code.
func (s *RoleService) AllPermissions() []string {
	perms := make([]string, len(model.AllPermissions))
	for i, p := range model.AllPermissions {
		perms[i] = string(p)
	}
	return perms
}

func checkPermissions(codes []string) error {
	for _, c := range codes {
		known := false
		for _, p := range model.AllPermissions {
			if string(p) == c {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, c)
		}
	}
	return nil
}
