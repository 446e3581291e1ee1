package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

// PlacementRepository handles placement rules and exam level mappings.
type PlacementRepository struct {
	db DBTX
}

// NewPlacementRepository creates a new PlacementRepository.
func NewPlacementRepository(pool *pgxpool.Pool) *PlacementRepository {
	return &PlacementRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *PlacementRepository) WithTx(tx pgx.Tx) *PlacementRepository {
	return &PlacementRepository{db: tx}
}

// ─── Placement rules ────────────────────────────────────────────────────────

// ListRules returns rules, optionally for one grade, by grade then priority.
func (r *PlacementRepository) ListRules(ctx context.Context, grade *int) ([]model.PlacementRule, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, grade, min_percentile::float8, max_percentile::float8, curriculum_level_id, priority
		 FROM placement_rules
		 WHERE $1::int IS NULL OR grade = $1
		 ORDER BY grade, priority, id`, grade)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.PlacementRule
	for rows.Next() {
		var pr model.PlacementRule
		if err := rows.Scan(&pr.ID, &pr.Grade, &pr.MinPercentile, &pr.MaxPercentile, &pr.CurriculumLevelID, &pr.Priority); err != nil {
			return nil, err
		}
		rules = append(rules, pr)
	}
	return rules, rows.Err()
}

// GetRule retrieves a rule by ID.
func (r *PlacementRepository) GetRule(ctx context.Context, id int) (*model.PlacementRule, error) {
	pr := &model.PlacementRule{}
	err := r.db.QueryRow(ctx,
		`SELECT id, grade, min_percentile::float8, max_percentile::float8, curriculum_level_id, priority
		 FROM placement_rules WHERE id = $1`, id,
	).Scan(&pr.ID, &pr.Grade, &pr.MinPercentile, &pr.MaxPercentile, &pr.CurriculumLevelID, &pr.Priority)
	if err != nil {
		return nil, translate(err)
	}
	return pr, nil
}

// CreateRule inserts a rule.
func (r *PlacementRepository) CreateRule(ctx context.Context, pr *model.PlacementRule) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO placement_rules (grade, min_percentile, max_percentile, curriculum_level_id, priority)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		pr.Grade, pr.MinPercentile, pr.MaxPercentile, pr.CurriculumLevelID, pr.Priority,
	).Scan(&pr.ID)
	return translate(err)
}

// UpdateRule modifies a rule.
func (r *PlacementRepository) UpdateRule(ctx context.Context, pr *model.PlacementRule) error {
	return execOne(ctx, r.db,
		`UPDATE placement_rules
		 SET grade = $1, min_percentile = $2, max_percentile = $3, curriculum_level_id = $4, priority = $5
		 WHERE id = $6`,
		pr.Grade, pr.MinPercentile, pr.MaxPercentile, pr.CurriculumLevelID, pr.Priority, pr.ID)
}

// DeleteRule removes a rule.
func (r *PlacementRepository) DeleteRule(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM placement_rules WHERE id = $1`, id)
}

// ─── Exam level mappings ────────────────────────────────────────────────────

// ListMappings returns mappings, optionally for one level, by level then slot.
func (r *PlacementRepository) ListMappings(ctx context.Context, levelID *int) ([]model.ExamLevelMapping, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.id, m.curriculum_level_id, m.exam_id, m.slot, e.name, e.is_active
		 FROM exam_level_mappings m JOIN exams e ON e.id = m.exam_id
		 WHERE $1::int IS NULL OR m.curriculum_level_id = $1
		 ORDER BY m.curriculum_level_id, m.slot`, levelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []model.ExamLevelMapping
	for rows.Next() {
		var m model.ExamLevelMapping
		if err := rows.Scan(&m.ID, &m.CurriculumLevelID, &m.ExamID, &m.Slot, &m.ExamName, &m.ExamActive); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// LevelsWithActiveExam returns the set of level IDs that have at least one active mapped exam.
func (r *PlacementRepository) LevelsWithActiveExam(ctx context.Context) (map[int]bool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT m.curriculum_level_id
		 FROM exam_level_mappings m JOIN exams e ON e.id = m.exam_id
		 WHERE e.is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		levels[id] = true
	}
	return levels, rows.Err()
}

// NextSlot returns the smallest unused slot for a level.
func (r *PlacementRepository) NextSlot(ctx context.Context, levelID int) (int, error) {
	var slot int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MIN(s), 1) FROM (
		     SELECT 1 AS s WHERE NOT EXISTS (
		         SELECT 1 FROM exam_level_mappings WHERE curriculum_level_id = $1 AND slot = 1)
		     UNION ALL
		     SELECT m.slot + 1 FROM exam_level_mappings m
		     WHERE m.curriculum_level_id = $1
		       AND NOT EXISTS (
		         SELECT 1 FROM exam_level_mappings n
		         WHERE n.curriculum_level_id = $1 AND n.slot = m.slot + 1)
		 ) free`, levelID,
	).Scan(&slot)
	return slot, err
}

// CreateMapping inserts a mapping.
func (r *PlacementRepository) CreateMapping(ctx context.Context, m *model.ExamLevelMapping) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO exam_level_mappings (curriculum_level_id, exam_id, slot)
		 VALUES ($1, $2, $3) RETURNING id`,
		m.CurriculumLevelID, m.ExamID, m.Slot,
	).Scan(&m.ID)
	return translate(err)
}

// DeleteMapping removes a mapping.
func (r *PlacementRepository) DeleteMapping(ctx context.Context, id int) error {
	return execOne(ctx, r.db, `DELETE FROM exam_level_mappings WHERE id = $1`, id)
}

// DeleteMappingsForExam detaches an exam from every level.
func (r *PlacementRepository) DeleteMappingsForExam(ctx context.Context, examID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM exam_level_mappings WHERE exam_id = $1`, examID)
	return err
}
