package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

const levelColumns = `l.id, l.subprogram_id, l.level_number, l.description, l.internal_difficulty,
	p.id, p.name, p.sort_order, s.name, s.sort_order`

const levelJoins = ` FROM curriculum_levels l
	JOIN subprograms s ON s.id = l.subprogram_id
	JOIN programs p ON p.id = s.program_id`

// CurriculumRepository handles programs, subprograms and curriculum levels.
type CurriculumRepository struct {
	db DBTX
}

// NewCurriculumRepository creates a new CurriculumRepository.
func NewCurriculumRepository(pool *pgxpool.Pool) *CurriculumRepository {
	return &CurriculumRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *CurriculumRepository) WithTx(tx pgx.Tx) *CurriculumRepository {
	return &CurriculumRepository{db: tx}
}

// ─── Programs ───────────────────────────────────────────────────────────────

// ListPrograms returns programs in display order.
func (r *CurriculumRepository) ListPrograms(ctx context.Context) ([]model.Program, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, grade_range_start, grade_range_end, sort_order
		 FROM programs ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var programs []model.Program
	for rows.Next() {
		var p model.Program
		if err := rows.Scan(&p.ID, &p.Name, &p.GradeRangeStart, &p.GradeRangeEnd, &p.SortOrder); err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// GetProgram retrieves a program by ID.
func (r *CurriculumRepository) GetProgram(ctx context.Context, id int) (*model.Program, error) {
	p := &model.Program{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, grade_range_start, grade_range_end, sort_order FROM programs WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.GradeRangeStart, &p.GradeRangeEnd, &p.SortOrder)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// CreateProgram inserts a program.
func (r *CurriculumRepository) CreateProgram(ctx context.Context, p *model.Program) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO programs (name, grade_range_start, grade_range_end, sort_order)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Name, p.GradeRangeStart, p.GradeRangeEnd, p.SortOrder,
	).Scan(&p.ID)
	return translate(err)
}

// UpdateProgram modifies a program.
func (r *CurriculumRepository) UpdateProgram(ctx context.Context, p *model.Program) error {
	return execOne(ctx, r.db,
		`UPDATE programs SET name = $1, grade_range_start = $2, grade_range_end = $3, sort_order = $4
		 WHERE id = $5`,
		p.Name, p.GradeRangeStart, p.GradeRangeEnd, p.SortOrder, p.ID)
}

// DeleteProgram removes a program and, by cascade, its subprograms and levels.
func (r *CurriculumRepository) DeleteProgram(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM programs WHERE id = $1`, id)
}

// ─── SubPrograms ────────────────────────────────────────────────────────────

// ListSubPrograms returns subprograms, optionally restricted to one program.
func (r *CurriculumRepository) ListSubPrograms(ctx context.Context, programID *int) ([]model.SubProgram, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, program_id, name, sort_order FROM subprograms
		 WHERE $1::int IS NULL OR program_id = $1
		 ORDER BY program_id, sort_order, id`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.SubProgram
	for rows.Next() {
		var s model.SubProgram
		if err := rows.Scan(&s.ID, &s.ProgramID, &s.Name, &s.SortOrder); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// CreateSubProgram inserts a subprogram.
func (r *CurriculumRepository) CreateSubProgram(ctx context.Context, s *model.SubProgram) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO subprograms (program_id, name, sort_order) VALUES ($1, $2, $3) RETURNING id`,
		s.ProgramID, s.Name, s.SortOrder,
	).Scan(&s.ID)
	return translate(err)
}

// UpdateSubProgram modifies a subprogram.
func (r *CurriculumRepository) UpdateSubProgram(ctx context.Context, s *model.SubProgram) error {
	return execOne(ctx, r.db,
		`UPDATE subprograms SET program_id = $1, name = $2, sort_order = $3 WHERE id = $4`,
		s.ProgramID, s.Name, s.SortOrder, s.ID)
}

// DeleteSubProgram removes a subprogram and its levels.
func (r *CurriculumRepository) DeleteSubProgram(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM subprograms WHERE id = $1`, id)
}

// ─── Levels ─────────────────────────────────────────────────────────────────

func scanLevel(row pgx.Row) (*model.CurriculumLevel, error) {
	l := &model.CurriculumLevel{}
	err := row.Scan(&l.ID, &l.SubProgramID, &l.LevelNumber, &l.Description, &l.InternalDifficulty,
		&l.ProgramID, &l.ProgramName, &l.ProgramSortOrder, &l.SubProgramName, &l.SubProgramOrder)
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

// ListLevels returns every level in program, subprogram and level order.
func (r *CurriculumRepository) ListLevels(ctx context.Context) ([]model.CurriculumLevel, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+levelColumns+levelJoins+`
		 ORDER BY p.sort_order, p.id, s.sort_order, s.id, l.level_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []model.CurriculumLevel
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, *l)
	}
	return levels, rows.Err()
}

// GetLevel retrieves a level with its program and subprogram names.
func (r *CurriculumRepository) GetLevel(ctx context.Context, id int) (*model.CurriculumLevel, error) {
	return scanLevel(r.db.QueryRow(ctx, `SELECT `+levelColumns+levelJoins+` WHERE l.id = $1`, id))
}

// CreateLevel inserts a level.
func (r *CurriculumRepository) CreateLevel(ctx context.Context, l *model.CurriculumLevel) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO curriculum_levels (subprogram_id, level_number, description, internal_difficulty)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		l.SubProgramID, l.LevelNumber, l.Description, l.InternalDifficulty,
	).Scan(&l.ID)
	return translate(err)
}

// UpdateLevel modifies a level.
func (r *CurriculumRepository) UpdateLevel(ctx context.Context, l *model.CurriculumLevel) error {
	return execOne(ctx, r.db,
		`UPDATE curriculum_levels
		 SET subprogram_id = $1, level_number = $2, description = $3, internal_difficulty = $4
		 WHERE id = $5`,
		l.SubProgramID, l.LevelNumber, l.Description, l.InternalDifficulty, l.ID)
}

// DeleteLevel removes a level.
func (r *CurriculumRepository) DeleteLevel(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM curriculum_levels WHERE id = $1`, id)
}
