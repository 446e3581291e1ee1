package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

const teacherColumns = `t.id, t.email, t.name, t.phone, t.password_hash, t.role_id, r.name,
	t.is_head_teacher, t.is_active, t.created_at, t.updated_at`

// TeacherRepository handles teacher data access.
type TeacherRepository struct {
	db DBTX
}

// NewTeacherRepository creates a new TeacherRepository.
func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{db: pool}
}

func scanTeacher(row pgx.Row) (*model.Teacher, error) {
	t := &model.Teacher{}
	err := row.Scan(&t.ID, &t.Email, &t.Name, &t.Phone, &t.PasswordHash, &t.RoleID, &t.RoleName,
		&t.IsHeadTeacher, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}

// GetByID retrieves a teacher by ID.
func (r *TeacherRepository) GetByID(ctx context.Context, id int) (*model.Teacher, error) {
	return scanTeacher(r.db.QueryRow(ctx,
		`SELECT `+teacherColumns+`
		 FROM teachers t JOIN roles r ON t.role_id = r.id
		 WHERE t.id = $1`, id))
}

// GetByEmail retrieves a teacher by their unique email, case-insensitively.
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	return scanTeacher(r.db.QueryRow(ctx,
		`SELECT `+teacherColumns+`
		 FROM teachers t JOIN roles r ON t.role_id = r.id
		 WHERE LOWER(t.email) = LOWER($1)`, email))
}

// ListPaginated retrieves teachers ordered by name with an optional name/email search.
func (r *TeacherRepository) ListPaginated(ctx context.Context, search string, limit, offset int) ([]model.Teacher, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where = fmt.Sprintf(" WHERE t.name ILIKE $%d OR t.email ILIKE $%d", len(args), len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM teachers t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx,
		`SELECT `+teacherColumns+`
		 FROM teachers t JOIN roles r ON t.role_id = r.id`+where+
			fmt.Sprintf(` ORDER BY t.name LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var teachers []model.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, 0, err
		}
		teachers = append(teachers, *t)
	}
	return teachers, total, rows.Err()
}

// Create inserts a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, t *model.Teacher) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO teachers (email, name, phone, password_hash, role_id, is_head_teacher, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		t.Email, t.Name, t.Phone, t.PasswordHash, t.RoleID, t.IsHeadTeacher, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return translate(err)
}

// Update modifies a teacher's profile (excluding password).
func (r *TeacherRepository) Update(ctx context.Context, t *model.Teacher) error {
	return execOne(ctx, r.db,
		`UPDATE teachers
		 SET email = $1, name = $2, phone = $3, role_id = $4, is_head_teacher = $5, is_active = $6,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		t.Email, t.Name, t.Phone, t.RoleID, t.IsHeadTeacher, t.IsActive, t.ID)
}

// UpdatePassword updates a teacher's password hash.
func (r *TeacherRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return execOne(ctx, r.db,
		`UPDATE teachers SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id)
}

// Deactivate disables a teacher account without deleting its history.
func (r *TeacherRepository) Deactivate(ctx context.Context, id int) error {
	return execOne(ctx, r.db,
		`UPDATE teachers SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
}

// SchoolRepository handles school data access.
type SchoolRepository struct {
	db DBTX
}

// NewSchoolRepository creates a new SchoolRepository.
func NewSchoolRepository(pool *pgxpool.Pool) *SchoolRepository {
	return &SchoolRepository{db: pool}
}

// GetOrCreate returns the school with name, creating it when missing.
func (r *SchoolRepository) GetOrCreate(ctx context.Context, name string) (*model.School, error) {
	s := &model.School{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO schools (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name, address, created_at, updated_at`, name,
	).Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// List returns every school ordered by name.
func (r *SchoolRepository) List(ctx context.Context) ([]model.School, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, address, created_at, updated_at FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schools []model.School
	for rows.Next() {
		var s model.School
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	return schools, rows.Err()
}
