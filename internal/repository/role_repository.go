package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

// RoleRepository handles role and permission data access.
type RoleRepository struct {
	db DBTX
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *RoleRepository) WithTx(tx pgx.Tx) *RoleRepository {
	return &RoleRepository{db: tx}
}

// GetPermissionsByRoleID retrieves all permission codes for a given role.
func (r *RoleRepository) GetPermissionsByRoleID(ctx context.Context, roleID int) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.code
		 FROM permissions p
		 JOIN role_permissions rp ON p.id = rp.permission_id
		 WHERE rp.role_id = $1
		 ORDER BY p.code`, roleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		permissions = append(permissions, code)
	}
	return permissions, rows.Err()
}

// GetRoleByID retrieves a role and its permissions by ID.
func (r *RoleRepository) GetRoleByID(ctx context.Context, id int) (*model.RoleWithPermissions, error) {
	role := &model.Role{ID: id}
	err := r.db.QueryRow(ctx, "SELECT name, created_at FROM roles WHERE id = $1", id).Scan(&role.Name, &role.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}

	permissions, err := r.GetPermissionsByRoleID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.RoleWithPermissions{
		Role:        role,
		Permissions: permissions,
	}, nil
}

// GetRoleIDByName looks a role up by its unique name.
func (r *RoleRepository) GetRoleIDByName(ctx context.Context, name string) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", name).Scan(&id)
	return id, translate(err)
}

// ListRolesWithPermissions retrieves all roles with their associated permissions.
func (r *RoleRepository) ListRolesWithPermissions(ctx context.Context) ([]model.RoleWithPermissions, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.name, r.created_at,
		        COALESCE(array_agg(p.code ORDER BY p.code) FILTER (WHERE p.code IS NOT NULL), '{}')
		 FROM roles r
		 LEFT JOIN role_permissions rp ON rp.role_id = r.id
		 LEFT JOIN permissions p ON p.id = rp.permission_id
		 GROUP BY r.id
		 ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.RoleWithPermissions
	for rows.Next() {
		role := &model.Role{}
		var permissions []string
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &permissions); err != nil {
			return nil, err
		}
		roles = append(roles, model.RoleWithPermissions{Role: role, Permissions: permissions})
	}
	return roles, rows.Err()
}

// CreateRole inserts a new role and returns its ID.
func (r *RoleRepository) CreateRole(ctx context.Context, name string) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, "INSERT INTO roles (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, translate(err)
}

// UpdateRole updates an existing role's name.
func (r *RoleRepository) UpdateRole(ctx context.Context, id int, name string) error {
	return execOne(ctx, r.db, "UPDATE roles SET name = $1 WHERE id = $2", name, id)
}

// DeleteRole removes a role. Roles still held by teachers return ErrReferenced.
func (r *RoleRepository) DeleteRole(ctx context.Context, id int) error {
	return execOne(ctx, r.db, "DELETE FROM roles WHERE id = $1", id)
}

// DeleteAllPermissionsFromRole removes all permissions associated with a role.
func (r *RoleRepository) DeleteAllPermissionsFromRole(ctx context.Context, roleID int) error {
	_, err := r.db.Exec(ctx, "DELETE FROM role_permissions WHERE role_id = $1", roleID)
	return err
}

// AssignPermissionsToRole assigns a list of permission codes to a role.
// Unknown codes are ignored.
func (r *RoleRepository) AssignPermissionsToRole(ctx context.Context, roleID int, permissionCodes []string) error {
	if len(permissionCodes) == 0 {
		return nil
	}

	rows, err := r.db.Query(ctx, "SELECT id FROM permissions WHERE code = ANY($1)", permissionCodes)
	if err != nil {
		return err
	}
	var permissionIDs []int
	for rows.Next() {
		var pid int
		if err := rows.Scan(&pid); err != nil {
			rows.Close()
			return err
		}
		permissionIDs = append(permissionIDs, pid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(permissionIDs) == 0 {
		return nil
	}

	_, err = r.db.CopyFrom(
		ctx,
		pgx.Identifier{"role_permissions"},
		[]string{"role_id", "permission_id"},
		pgx.CopyFromSlice(len(permissionIDs), func(i int) ([]any, error) {
			return []any{roleID, permissionIDs[i]}, nil
		}),
	)
	return translate(err)
}

// EnsurePermissions inserts any permission codes missing from the catalogue
// and returns how many were added.
func (r *RoleRepository) EnsurePermissions(ctx context.Context, codes []string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO permissions (code)
		 SELECT UNNEST($1::text[])
		 ON CONFLICT (code) DO NOTHING`, codes)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GrantAllPermissions gives roleID every permission in the catalogue and
// returns how many grants were added.
func (r *RoleRepository) GrantAllPermissions(ctx context.Context, roleID int) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id)
		 SELECT $1, id FROM permissions
		 ON CONFLICT DO NOTHING`, roleID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}
