package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

const examColumns = `e.id, e.kind, e.name, e.author_id, e.curriculum_level_id, e.timer_minutes,
	e.total_questions, e.default_options_count, e.pdf_file_path, e.instructions, e.is_active,
	e.routine_type, e.academic_year,
	COALESCE((SELECT array_agg(c.class_code ORDER BY c.class_code) FROM exam_class_codes c WHERE c.exam_id = e.id), '{}'),
	e.created_at, e.updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	db DBTX
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *ExamRepository) WithTx(tx pgx.Tx) *ExamRepository {
	return &ExamRepository{db: tx}
}

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Kind, &e.Name, &e.AuthorID, &e.CurriculumLevelID, &e.TimerMinutes,
		&e.TotalQuestions, &e.DefaultOptionsCount, &e.PDFFilePath, &e.Instructions, &e.IsActive,
		&e.RoutineType, &e.AcademicYear, &e.ClassCodes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.db.QueryRow(ctx, `SELECT `+examColumns+` FROM exams e WHERE e.id = $1`, id))
}

// ListPaginated retrieves exams matching f, newest first.
func (r *ExamRepository) ListPaginated(ctx context.Context, f model.ExamFilter) ([]model.Exam, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.Kind != "" {
		args = append(args, f.Kind)
		conds = append(conds, fmt.Sprintf("e.kind = $%d", len(args)))
	}
	if f.CurriculumLevelID != nil {
		args = append(args, *f.CurriculumLevelID)
		conds = append(conds, fmt.Sprintf("e.curriculum_level_id = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("e.is_active = $%d", len(args)))
	}
	if len(f.ClassCodes) > 0 {
		args = append(args, f.ClassCodes)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM exam_class_codes c WHERE c.exam_id = e.id AND c.class_code = ANY($%d))", len(args)))
	}

	if f.VisibleToTeacher > 0 {
		args = append(args, f.VisibleToTeacher)
		conds = append(conds, fmt.Sprintf(`(e.kind = 'PLACEMENT' OR e.author_id = $%d OR EXISTS (
			SELECT 1 FROM exam_class_codes c
			JOIN teacher_class_assignments a ON a.class_code = c.class_code
			WHERE c.exam_id = e.id AND a.teacher_id = $%d AND a.is_active
			  AND (a.expires_at IS NULL OR a.expires_at > NOW())))`, len(args), len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM exams e`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := r.db.Query(ctx,
		`SELECT `+examColumns+` FROM exams e`+where+
			fmt.Sprintf(` ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		exams = append(exams, *e)
	}
	return exams, total, rows.Err()
}

// ListActiveRoutineForClasses returns active routine exams targeting any of classCodes.
func (r *ExamRepository) ListActiveRoutineForClasses(ctx context.Context, classCodes []string) ([]model.Exam, error) {
	if len(classCodes) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+examColumns+` FROM exams e
		 WHERE e.kind = $1 AND e.is_active
		   AND EXISTS (SELECT 1 FROM exam_class_codes c WHERE c.exam_id = e.id AND c.class_code = ANY($2))
		 ORDER BY e.created_at DESC`, model.ExamKindRoutine, classCodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO exams (kind, name, author_id, curriculum_level_id, timer_minutes, total_questions,
		                    default_options_count, pdf_file_path, instructions, is_active, routine_type, academic_year)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		e.Kind, e.Name, e.AuthorID, e.CurriculumLevelID, e.TimerMinutes, e.TotalQuestions,
		e.DefaultOptionsCount, e.PDFFilePath, e.Instructions, e.IsActive, e.RoutineType, e.AcademicYear,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return translate(err)
}

// Update writes every mutable exam column.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	return execOne(ctx, r.db,
		`UPDATE exams
		 SET name = $1, curriculum_level_id = $2, timer_minutes = $3, total_questions = $4,
		     default_options_count = $5, instructions = $6, is_active = $7, routine_type = $8,
		     academic_year = $9, updated_at = NOW()
		 WHERE id = $10`,
		e.Name, e.CurriculumLevelID, e.TimerMinutes, e.TotalQuestions, e.DefaultOptionsCount,
		e.Instructions, e.IsActive, e.RoutineType, e.AcademicYear, e.ID)
}

// SetPDFPath records the uploaded exam paper.
func (r *ExamRepository) SetPDFPath(ctx context.Context, id uuid.UUID, path string) error {
	return execOne(ctx, r.db,
		`UPDATE exams SET pdf_file_path = $1, updated_at = NOW() WHERE id = $2`, path, id)
}

// SetTotalQuestions updates the denormalised question count.
func (r *ExamRepository) SetTotalQuestions(ctx context.Context, id uuid.UUID, total int) error {
	return execOne(ctx, r.db,
		`UPDATE exams SET total_questions = $1, updated_at = NOW() WHERE id = $2`, total, id)
}

// Delete removes an exam and, by cascade, its questions, audio, mappings and sessions.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM exams WHERE id = $1`, id)
}

// ReplaceClassCodes sets the classes a routine exam targets.
func (r *ExamRepository) ReplaceClassCodes(ctx context.Context, id uuid.UUID, codes []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM exam_class_codes WHERE exam_id = $1`, id); err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO exam_class_codes (exam_id, class_code)
		 SELECT $1, UNNEST($2::text[])
		 ON CONFLICT DO NOTHING`, id, codes)
	return translate(err)
}
