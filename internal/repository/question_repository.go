package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

// QuestionRepository handles question and audio file data access.
type QuestionRepository struct {
	db DBTX
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *QuestionRepository) WithTx(tx pgx.Tx) *QuestionRepository {
	return &QuestionRepository{db: tx}
}

// ListByExam retrieves all questions for a given exam, ordered by question number.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, exam_id, question_number, question_type, correct_answer, points, options_count
		 FROM questions WHERE exam_id = $1
		 ORDER BY question_number`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionNumber, &q.QuestionType, &q.CorrectAnswer, &q.Points, &q.OptionsCount); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a question of an exam.
func (r *QuestionRepository) GetByID(ctx context.Context, examID, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.db.QueryRow(ctx,
		`SELECT id, exam_id, question_number, question_type, correct_answer, points, options_count
		 FROM questions WHERE id = $1 AND exam_id = $2`, id, examID,
	).Scan(&q.ID, &q.ExamID, &q.QuestionNumber, &q.QuestionType, &q.CorrectAnswer, &q.Points, &q.OptionsCount)
	if err != nil {
		return nil, translate(err)
	}
	return q, nil
}

// ReplaceAll makes qs the exact question set of the exam. Questions are matched
// by number so existing ids, and the answers that point at them, survive.
// Run inside a transaction.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, examID uuid.UUID, qs []model.Question) error {
	numbers := make([]int32, len(qs))
	types := make([]string, len(qs))
	answers := make([]string, len(qs))
	points := make([]int32, len(qs))
	options := make([]int32, len(qs))
	for i, q := range qs {
		numbers[i] = int32(q.QuestionNumber)
		types[i] = string(q.QuestionType)
		answers[i] = q.CorrectAnswer
		points[i] = int32(q.Points)
		options[i] = int32(q.OptionsCount)
	}

	if _, err := r.db.Exec(ctx,
		`DELETE FROM questions WHERE exam_id = $1 AND NOT (question_number = ANY($2::int[]))`,
		examID, numbers); err != nil {
		return err
	}
	if len(qs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO questions (exam_id, question_number, question_type, correct_answer, points, options_count)
		 SELECT $1, n, t, a, p, o FROM UNNEST($2::int[], $3::text[], $4::text[], $5::int[], $6::int[]) AS u(n, t, a, p, o)
		 ON CONFLICT (exam_id, question_number) DO UPDATE
		 SET question_type = EXCLUDED.question_type, correct_answer = EXCLUDED.correct_answer,
		     points = EXCLUDED.points, options_count = EXCLUDED.options_count`,
		examID, numbers, types, answers, points, options)
	return translate(err)
}

// Update writes a single question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	return execOne(ctx, r.db,
		`UPDATE questions SET question_type = $1, correct_answer = $2, points = $3, options_count = $4
		 WHERE id = $5 AND exam_id = $6`,
		q.QuestionType, q.CorrectAnswer, q.Points, q.OptionsCount, q.ID, q.ExamID)
}

// ─── Audio files ────────────────────────────────────────────────────────────

// ListAudio returns the audio files of an exam by starting question.
func (r *QuestionRepository) ListAudio(ctx context.Context, examID uuid.UUID) ([]model.AudioFile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, exam_id, name, file_path, start_question, end_question, created_at
		 FROM audio_files WHERE exam_id = $1
		 ORDER BY start_question, created_at`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audio := []model.AudioFile{}
	for rows.Next() {
		var a model.AudioFile
		if err := rows.Scan(&a.ID, &a.ExamID, &a.Name, &a.FilePath, &a.StartQuestion, &a.EndQuestion, &a.CreatedAt); err != nil {
			return nil, err
		}
		audio = append(audio, a)
	}
	return audio, rows.Err()
}

// GetAudio retrieves an audio file of an exam.
func (r *QuestionRepository) GetAudio(ctx context.Context, examID, id uuid.UUID) (*model.AudioFile, error) {
	a := &model.AudioFile{}
	err := r.db.QueryRow(ctx,
		`SELECT id, exam_id, name, file_path, start_question, end_question, created_at
		 FROM audio_files WHERE id = $1 AND exam_id = $2`, id, examID,
	).Scan(&a.ID, &a.ExamID, &a.Name, &a.FilePath, &a.StartQuestion, &a.EndQuestion, &a.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// CreateAudio inserts an audio file record.
func (r *QuestionRepository) CreateAudio(ctx context.Context, a *model.AudioFile) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO audio_files (exam_id, name, file_path, start_question, end_question)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.ExamID, a.Name, a.FilePath, a.StartQuestion, a.EndQuestion,
	).Scan(&a.ID, &a.CreatedAt)
	return translate(err)
}

// DeleteAudio removes an audio file record.
func (r *QuestionRepository) DeleteAudio(ctx context.Context, examID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM audio_files WHERE id = $1 AND exam_id = $2`, id, examID)
}
