package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

const studentColumns = `id, student_code, name, email, phone, parent_phone, password_hash, grade,
	school_id, school_name, created_at, updated_at`

// StudentRepository handles student profile data access.
type StudentRepository struct {
	db DBTX
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *StudentRepository) WithTx(tx pgx.Tx) *StudentRepository {
	return &StudentRepository{db: tx}
}

func scanStudent(row pgx.Row) (*model.StudentProfile, error) {
	s := &model.StudentProfile{}
	err := row.Scan(&s.ID, &s.StudentCode, &s.Name, &s.Email, &s.Phone, &s.ParentPhone, &s.PasswordHash,
		&s.Grade, &s.SchoolID, &s.SchoolName, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.StudentProfile, error) {
	return scanStudent(r.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM student_profiles WHERE id = $1`, id))
}

// GetByCode retrieves a student by their unique student code.
func (r *StudentRepository) GetByCode(ctx context.Context, code string) (*model.StudentProfile, error) {
	return scanStudent(r.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM student_profiles WHERE student_code = $1`, code))
}

// ListPaginated retrieves students with an optional name/code search and class filter.
func (r *StudentRepository) ListPaginated(ctx context.Context, search, classCode string, limit, offset int) ([]model.StudentProfile, int, error) {
	where := " WHERE TRUE"
	var args []any
	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR student_code ILIKE $%d)", len(args), len(args))
	}
	if classCode != "" {
		args = append(args, classCode)
		where += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM student_class_assignments a
			WHERE a.student_id = student_profiles.id AND a.class_code = $%d AND a.is_active)`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM student_profiles`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx,
		`SELECT `+studentColumns+` FROM student_profiles`+where+
			fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.StudentProfile
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, *s)
	}
	return students, total, rows.Err()
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.StudentProfile) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO student_profiles (student_code, name, email, phone, parent_phone, password_hash, grade, school_id, school_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		s.StudentCode, s.Name, s.Email, s.Phone, s.ParentPhone, s.PasswordHash, s.Grade, s.SchoolID, s.SchoolName,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return translate(err)
}

// Update modifies a student's profile (excluding password).
func (r *StudentRepository) Update(ctx context.Context, s *model.StudentProfile) error {
	return execOne(ctx, r.db,
		`UPDATE student_profiles
		 SET name = $1, email = $2, phone = $3, parent_phone = $4, grade = $5, school_id = $6, school_name = $7,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $8`,
		s.Name, s.Email, s.Phone, s.ParentPhone, s.Grade, s.SchoolID, s.SchoolName, s.ID)
}

// UpdatePassword updates a student's password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return execOne(ctx, r.db,
		`UPDATE student_profiles SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id)
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM student_profiles WHERE id = $1`, id)
}

// OAuthIdentityRepository handles provider account links.
type OAuthIdentityRepository struct {
	db DBTX
}

// NewOAuthIdentityRepository creates a new OAuthIdentityRepository.
func NewOAuthIdentityRepository(pool *pgxpool.Pool) *OAuthIdentityRepository {
	return &OAuthIdentityRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *OAuthIdentityRepository) WithTx(tx pgx.Tx) *OAuthIdentityRepository {
	return &OAuthIdentityRepository{db: tx}
}

// Get retrieves the identity for a provider account.
func (r *OAuthIdentityRepository) Get(ctx context.Context, provider, providerUserID string) (*model.OAuthIdentity, error) {
	i := &model.OAuthIdentity{}
	err := r.db.QueryRow(ctx,
		`SELECT id, provider, provider_user_id, subject_type, subject_id, email, access_token, refresh_token,
		        expires_at, updated_at
		 FROM oauth_identities WHERE provider = $1 AND provider_user_id = $2`, provider, providerUserID,
	).Scan(&i.ID, &i.Provider, &i.ProviderUserID, &i.SubjectType, &i.SubjectID, &i.Email,
		&i.AccessToken, &i.RefreshToken, &i.ExpiresAt, &i.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return i, nil
}

// Upsert stores the identity and its latest tokens.
func (r *OAuthIdentityRepository) Upsert(ctx context.Context, i *model.OAuthIdentity) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO oauth_identities (provider, provider_user_id, subject_type, subject_id, email,
		                               access_token, refresh_token, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (provider, provider_user_id) DO UPDATE
		 SET email = EXCLUDED.email, access_token = EXCLUDED.access_token,
		     refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), oauth_identities.refresh_token),
		     expires_at = EXCLUDED.expires_at, updated_at = NOW()
		 RETURNING id, subject_type, subject_id, updated_at`,
		i.Provider, i.ProviderUserID, i.SubjectType, i.SubjectID, i.Email,
		i.AccessToken, i.RefreshToken, i.ExpiresAt,
	).Scan(&i.ID, &i.SubjectType, &i.SubjectID, &i.UpdatedAt)
	return translate(err)
}
