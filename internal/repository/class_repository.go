package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

// ClassRepository handles classes and their teacher and student assignments.
type ClassRepository struct {
	db DBTX
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *ClassRepository) WithTx(tx pgx.Tx) *ClassRepository {
	return &ClassRepository{db: tx}
}

const classColumns = `code, name, grade, section, academic_year, is_active, created_at, updated_at`

func scanClass(row pgx.Row) (*model.Class, error) {
	c := &model.Class{}
	err := row.Scan(&c.Code, &c.Name, &c.Grade, &c.Section, &c.AcademicYear, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func collectClasses(rows pgx.Rows, err error) ([]model.Class, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []model.Class{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

// GetByCode retrieves a class by its code.
func (r *ClassRepository) GetByCode(ctx context.Context, code string) (*model.Class, error) {
	return scanClass(r.db.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE code = $1`, code))
}

// List retrieves all classes.
func (r *ClassRepository) List(ctx context.Context) ([]model.Class, error) {
	return collectClasses(r.db.Query(ctx,
		`SELECT `+classColumns+` FROM classes ORDER BY grade, code`))
}

// ListForTeacher returns classes with an effective assignment for the teacher.
func (r *ClassRepository) ListForTeacher(ctx context.Context, teacherID int) ([]model.Class, error) {
	return collectClasses(r.db.Query(ctx,
		`SELECT c.code, c.name, c.grade, c.section, c.academic_year, c.is_active, c.created_at, c.updated_at
		 FROM classes c
		 JOIN teacher_class_assignments a ON a.class_code = c.code
		 WHERE a.teacher_id = $1 AND a.is_active AND (a.expires_at IS NULL OR a.expires_at > NOW())
		 ORDER BY c.grade, c.code`, teacherID))
}

// ListForStudent returns the active classes a student is enrolled in.
func (r *ClassRepository) ListForStudent(ctx context.Context, studentID int) ([]model.Class, error) {
	return collectClasses(r.db.Query(ctx,
		`SELECT c.code, c.name, c.grade, c.section, c.academic_year, c.is_active, c.created_at, c.updated_at
		 FROM classes c
		 JOIN student_class_assignments a ON a.class_code = c.code
		 WHERE a.student_id = $1 AND a.is_active AND c.is_active
		 ORDER BY c.grade, c.code`, studentID))
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, c *model.Class) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO classes (code, name, grade, section, academic_year, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		c.Code, c.Name, c.Grade, c.Section, c.AcademicYear, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, c *model.Class) error {
	return execOne(ctx, r.db,
		`UPDATE classes
		 SET name = $1, grade = $2, section = $3, academic_year = $4, is_active = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE code = $6`,
		c.Name, c.Grade, c.Section, c.AcademicYear, c.IsActive, c.Code)
}

// Delete removes a class and its assignments.
func (r *ClassRepository) Delete(ctx context.Context, code string) error {
	return execOne(ctx, r.db, `DELETE FROM classes WHERE code = $1`, code)
}

// ─── Teacher assignments ────────────────────────────────────────────────────

const assignmentColumns = `a.id, a.teacher_id, t.name, a.class_code, a.access_level, a.assigned_at, a.expires_at, a.is_active`

func collectAssignments(rows pgx.Rows, err error) ([]model.TeacherClassAssignment, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []model.TeacherClassAssignment{}
	for rows.Next() {
		var a model.TeacherClassAssignment
		if err := rows.Scan(&a.ID, &a.TeacherID, &a.TeacherName, &a.ClassCode, &a.AccessLevel,
			&a.AssignedAt, &a.ExpiresAt, &a.IsActive); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListAssignmentsByTeacher returns every assignment of a teacher, including inactive ones.
func (r *ClassRepository) ListAssignmentsByTeacher(ctx context.Context, teacherID int) ([]model.TeacherClassAssignment, error) {
	return collectAssignments(r.db.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM teacher_class_assignments a JOIN teachers t ON t.id = a.teacher_id
		 WHERE a.teacher_id = $1 ORDER BY a.class_code`, teacherID))
}

// ListAssignmentsByClass returns every teacher assignment of a class.
func (r *ClassRepository) ListAssignmentsByClass(ctx context.Context, code string) ([]model.TeacherClassAssignment, error) {
	return collectAssignments(r.db.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM teacher_class_assignments a JOIN teachers t ON t.id = a.teacher_id
		 WHERE a.class_code = $1 ORDER BY t.name`, code))
}

// UpsertAssignment creates or reactivates a teacher assignment.
func (r *ClassRepository) UpsertAssignment(ctx context.Context, a *model.TeacherClassAssignment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO teacher_class_assignments (teacher_id, class_code, access_level, expires_at, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 ON CONFLICT (teacher_id, class_code) DO UPDATE
		 SET access_level = EXCLUDED.access_level, expires_at = EXCLUDED.expires_at,
		     is_active = TRUE, assigned_at = NOW()
		 RETURNING id, assigned_at, is_active`,
		a.TeacherID, a.ClassCode, a.AccessLevel, a.ExpiresAt,
	).Scan(&a.ID, &a.AssignedAt, &a.IsActive)
	return translate(err)
}

// UpdateAssignment changes access level, expiry and active flag of an assignment.
func (r *ClassRepository) UpdateAssignment(ctx context.Context, a *model.TeacherClassAssignment) error {
	return execOne(ctx, r.db,
		`UPDATE teacher_class_assignments SET access_level = $1, expires_at = $2, is_active = $3
		 WHERE id = $4`,
		a.AccessLevel, a.ExpiresAt, a.IsActive, a.ID)
}

// GetAssignment retrieves an assignment by ID.
func (r *ClassRepository) GetAssignment(ctx context.Context, id int) (*model.TeacherClassAssignment, error) {
	list, err := collectAssignments(r.db.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM teacher_class_assignments a JOIN teachers t ON t.id = a.teacher_id
		 WHERE a.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// RevokeAssignment removes an assignment.
func (r *ClassRepository) RevokeAssignment(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM teacher_class_assignments WHERE id = $1`, id)
}

// ─── Student assignments ────────────────────────────────────────────────────

// ListStudents returns the students enrolled in a class.
func (r *ClassRepository) ListStudents(ctx context.Context, code string) ([]model.StudentClassAssignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.student_id, s.name, a.class_code, a.assigned_at, a.is_active
		 FROM student_class_assignments a JOIN student_profiles s ON s.id = a.student_id
		 WHERE a.class_code = $1 ORDER BY s.name`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.StudentClassAssignment{}
	for rows.Next() {
		var a model.StudentClassAssignment
		if err := rows.Scan(&a.ID, &a.StudentID, &a.StudentName, &a.ClassCode, &a.AssignedAt, &a.IsActive); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// AssignStudent enrols a student in a class, reactivating an earlier enrolment.
func (r *ClassRepository) AssignStudent(ctx context.Context, a *model.StudentClassAssignment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO student_class_assignments (student_id, class_code, is_active)
		 VALUES ($1, $2, TRUE)
		 ON CONFLICT (student_id, class_code) DO UPDATE SET is_active = TRUE, assigned_at = NOW()
		 RETURNING id, assigned_at, is_active`,
		a.StudentID, a.ClassCode,
	).Scan(&a.ID, &a.AssignedAt, &a.IsActive)
	return translate(err)
}

// UnassignStudent removes a student from a class.
func (r *ClassRepository) UnassignStudent(ctx context.Context, code string, studentID int) error {
	return execOne(ctx, r.db,
		`DELETE FROM student_class_assignments WHERE class_code = $1 AND student_id = $2`, code, studentID)
}
