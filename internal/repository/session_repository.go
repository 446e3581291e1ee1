package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

const sessionColumns = `s.id, s.exam_id, e.name, e.kind, e.timer_minutes, s.student_id, s.student_name,
	s.parent_phone, s.school_name, s.grade, s.academic_rank, s.class_code, s.original_level_id,
	s.final_level_id, s.parent_session_id, s.difficulty_adjustments, s.status, s.started_at,
	s.completed_at, s.score, s.total_points, s.percentage::float8, s.timer_expired`

const sessionFrom = ` FROM student_sessions s JOIN exams e ON e.id = s.exam_id`

// SessionRepository handles student sessions and their answers.
type SessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *SessionRepository) WithTx(tx pgx.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

func scanSession(row pgx.Row) (*model.StudentSession, error) {
	s := &model.StudentSession{}
	err := row.Scan(&s.ID, &s.ExamID, &s.ExamName, &s.ExamKind, &s.TimerMinutes, &s.StudentID, &s.StudentName,
		&s.ParentPhone, &s.SchoolName, &s.Grade, &s.AcademicRank, &s.ClassCode, &s.OriginalLevelID,
		&s.FinalLevelID, &s.ParentSessionID, &s.DifficultyAdjustments, &s.Status, &s.StartedAt,
		&s.CompletedAt, &s.Score, &s.TotalPoints, &s.Percentage, &s.TimerExpired)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

func collectSessions(rows pgx.Rows, err error) ([]model.StudentSession, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []model.StudentSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// GetByID retrieves a session with its exam name, kind and timer.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StudentSession, error) {
	return scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+sessionFrom+` WHERE s.id = $1`, id))
}

// GetForUpdate retrieves a session and locks its row for the rest of the transaction.
func (r *SessionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.StudentSession, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+sessionFrom+` WHERE s.id = $1 FOR UPDATE OF s`, id))
}

// GetInProgress returns the student's open session for an exam.
func (r *SessionRepository) GetInProgress(ctx context.Context, examID uuid.UUID, studentID int) (*model.StudentSession, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+sessionFrom+`
		 WHERE s.exam_id = $1 AND s.student_id = $2 AND s.status = $3
		 ORDER BY s.started_at DESC LIMIT 1`, examID, studentID, model.SessionStatusInProgress))
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *model.StudentSession) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO student_sessions (exam_id, student_id, student_name, parent_phone, school_name, grade,
		                               academic_rank, class_code, original_level_id, final_level_id,
		                               parent_session_id, difficulty_adjustments, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, started_at`,
		s.ExamID, s.StudentID, s.StudentName, s.ParentPhone, s.SchoolName, s.Grade,
		s.AcademicRank, s.ClassCode, s.OriginalLevelID, s.FinalLevelID,
		s.ParentSessionID, s.DifficultyAdjustments, model.SessionStatusInProgress,
	).Scan(&s.ID, &s.StartedAt)
	if err != nil {
		return translate(err)
	}
	s.Status = model.SessionStatusInProgress
	return nil
}

// Complete stores the final score and marks the session completed.
func (r *SessionRepository) Complete(ctx context.Context, s *model.StudentSession) error {
	return execOne(ctx, r.db,
		`UPDATE student_sessions
		 SET status = $1, completed_at = $2, score = $3, total_points = $4, percentage = $5, timer_expired = $6
		 WHERE id = $7`,
		model.SessionStatusCompleted, s.CompletedAt, s.Score, s.TotalPoints, s.Percentage, s.TimerExpired, s.ID)
}

// HasChild reports whether a follow-up session was opened from id.
func (r *SessionRepository) HasChild(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM student_sessions WHERE parent_session_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, translate(err)
	}
	return exists, nil
}

// UpdateScore rewrites the score of a completed session after manual grading.
func (r *SessionRepository) UpdateScore(ctx context.Context, id uuid.UUID, score, total int, percentage float64) error {
	return execOne(ctx, r.db,
		`UPDATE student_sessions SET score = $1, total_points = $2, percentage = $3 WHERE id = $4`,
		score, total, percentage, id)
}

// ListExpired returns IN_PROGRESS sessions whose timer plus grace ended before now.
func (r *SessionRepository) ListExpired(ctx context.Context, grace time.Duration, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id
		 FROM student_sessions s JOIN exams e ON e.id = s.exam_id
		 WHERE s.status = $1
		   AND s.started_at + make_interval(mins => e.timer_minutes) + make_interval(secs => $2) < $3
		 ORDER BY s.started_at
		 LIMIT $4`, model.SessionStatusInProgress, grace.Seconds(), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByStudent returns a student's sessions, newest first.
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID, limit int) ([]model.StudentSession, error) {
	return collectSessions(r.db.Query(ctx,
		`SELECT `+sessionColumns+sessionFrom+`
		 WHERE s.student_id = $1 ORDER BY s.started_at DESC LIMIT $2`, studentID, limit))
}

// ListByExamPaginated returns the sessions of an exam, newest first.
func (r *SessionRepository) ListByExamPaginated(ctx context.Context, examID uuid.UUID, status model.SessionStatus, limit, offset int) ([]model.StudentSession, int, error) {
	where := ` WHERE s.exam_id = $1`
	args := []any{examID}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(` AND s.status = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+sessionFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	sessions, err := collectSessions(r.db.Query(ctx,
		`SELECT `+sessionColumns+sessionFrom+where+
			fmt.Sprintf(` ORDER BY s.started_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...))
	return sessions, total, err
}

// ─── Answers ────────────────────────────────────────────────────────────────

// UpsertAnswer creates or replaces the saved answer for a question while the
// session is still in progress. Answers arriving after completion are ignored.
func (r *SessionRepository) UpsertAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answer string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO student_answers (session_id, question_id, answer)
		 SELECT $1, $2, $3
		 WHERE EXISTS (SELECT 1 FROM student_sessions WHERE id = $1 AND status = $4)
		 ON CONFLICT (session_id, question_id) DO UPDATE
		 SET answer = EXCLUDED.answer, updated_at = NOW()`,
		sessionID, questionID, answer, model.SessionStatusInProgress)
	return translate(err)
}

// UpsertAnswers bulk-writes answers for one session.
func (r *SessionRepository) UpsertAnswers(ctx context.Context, sessionID uuid.UUID, answers map[uuid.UUID]string) error {
	if len(answers) == 0 {
		return nil
	}
	qids := make([]uuid.UUID, 0, len(answers))
	vals := make([]string, 0, len(answers))
	for qid, v := range answers {
		qids = append(qids, qid)
		vals = append(vals, v)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO student_answers (session_id, question_id, answer)
		 SELECT $1, q, a FROM UNNEST($2::uuid[], $3::text[]) AS t(q, a)
		 ON CONFLICT (session_id, question_id) DO UPDATE
		 SET answer = EXCLUDED.answer, updated_at = NOW()`,
		sessionID, qids, vals)
	return translate(err)
}

// ListAnswers returns the saved answers of a session.
func (r *SessionRepository) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.session_id, a.question_id, a.answer, a.is_correct, a.points_earned, a.updated_at
		 FROM student_answers a JOIN questions q ON q.id = a.question_id
		 WHERE a.session_id = $1
		 ORDER BY q.question_number`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []model.StudentAnswer{}
	for rows.Next() {
		var a model.StudentAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Answer, &a.IsCorrect, &a.PointsEarned, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// GradedAnswer is one grading verdict to store.
type GradedAnswer struct {
	QuestionID uuid.UUID
	Answer     string
	IsCorrect  *bool
	Points     int
}

// StoreGrades writes verdicts for every question, creating rows for unanswered ones.
func (r *SessionRepository) StoreGrades(ctx context.Context, sessionID uuid.UUID, grades []GradedAnswer) error {
	if len(grades) == 0 {
		return nil
	}
	qids := make([]uuid.UUID, len(grades))
	answers := make([]string, len(grades))
	correct := make([]*bool, len(grades))
	points := make([]int32, len(grades))
	for i, g := range grades {
		qids[i] = g.QuestionID
		answers[i] = g.Answer
		correct[i] = g.IsCorrect
		points[i] = int32(g.Points)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO student_answers (session_id, question_id, answer, is_correct, points_earned)
		 SELECT $1, q, a, c, p FROM UNNEST($2::uuid[], $3::text[], $4::bool[], $5::int[]) AS t(q, a, c, p)
		 ON CONFLICT (session_id, question_id) DO UPDATE
		 SET answer = EXCLUDED.answer, is_correct = EXCLUDED.is_correct,
		     points_earned = EXCLUDED.points_earned, updated_at = NOW()`,
		sessionID, qids, answers, correct, points)
	return translate(err)
}

// GradeAnswer stores a manual verdict for one question.
func (r *SessionRepository) GradeAnswer(ctx context.Context, sessionID, questionID uuid.UUID, isCorrect *bool, points int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO student_answers (session_id, question_id, answer, is_correct, points_earned)
		 VALUES ($1, $2, '', $3, $4)
		 ON CONFLICT (session_id, question_id) DO UPDATE
		 SET is_correct = EXCLUDED.is_correct, points_earned = EXCLUDED.points_earned, updated_at = NOW()`,
		sessionID, questionID, isCorrect, points)
	return translate(err)
}

// ClearInProgressForStudent completes every open session of a student without a score.
func (r *SessionRepository) ClearInProgressForStudent(ctx context.Context, studentID int) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE student_sessions SET status = $1, completed_at = NOW()
		 WHERE student_id = $2 AND status = $3`,
		model.SessionStatusCompleted, studentID, model.SessionStatusInProgress)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
