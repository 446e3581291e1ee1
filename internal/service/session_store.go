package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/database"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

// SessionStore is the session data the SessionService reads and writes.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.StudentSession, error)
	GetInProgress(ctx context.Context, examID uuid.UUID, studentID int) (*model.StudentSession, error)
	Create(ctx context.Context, s *model.StudentSession) error
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error)
	ListExpired(ctx context.Context, grace time.Duration, now time.Time, limit int) ([]uuid.UUID, error)
	ListByStudent(ctx context.Context, studentID, limit int) ([]model.StudentSession, error)
	ListByExamPaginated(ctx context.Context, examID uuid.UUID, status model.SessionStatus, limit, offset int) ([]model.StudentSession, int, error)

	// InTx runs fn in one transaction; fn's error rolls it back.
	InTx(ctx context.Context, fn func(tx SessionTx) error) error
}

// SessionTx is the transactional view used to close, rescore or branch a session.
type SessionTx interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.StudentSession, error)
	HasChild(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, s *model.StudentSession) error
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error)
	ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	StoreGrades(ctx context.Context, sessionID uuid.UUID, grades []repository.GradedAnswer) error
	Complete(ctx context.Context, s *model.StudentSession) error
	GradeAnswer(ctx context.Context, sessionID, questionID uuid.UUID, isCorrect *bool, points int) error
	UpdateScore(ctx context.Context, id uuid.UUID, score, total int, percentage float64) error
}

// PostgresSessionStore is a SessionStore over the session and question repositories.
type PostgresSessionStore struct {
	*repository.SessionRepository
	pool      *pgxpool.Pool
	questions *repository.QuestionRepository
}

// NewPostgresSessionStore creates a new PostgresSessionStore.
func NewPostgresSessionStore(pool *pgxpool.Pool, sessions *repository.SessionRepository, questions *repository.QuestionRepository) *PostgresSessionStore {
	return &PostgresSessionStore{SessionRepository: sessions, pool: pool, questions: questions}
}

// InTx implements SessionStore.
func (s *PostgresSessionStore) InTx(ctx context.Context, fn func(tx SessionTx) error) error {
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&postgresSessionTx{
			SessionRepository: s.SessionRepository.WithTx(tx),
			questions:         s.questions.WithTx(tx),
		})
	})
}

type postgresSessionTx struct {
	*repository.SessionRepository
	questions *repository.QuestionRepository
}

func (t *postgresSessionTx) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return t.questions.ListByExam(ctx, examID)
}

// SessionCache holds per-session metadata and buffered answers between
// saves and completion.
type SessionCache interface {
	PutMeta(ctx context.Context, sessionID uuid.UUID, fields map[string]any, expireAt time.Time) error
	Meta(ctx context.Context, sessionID uuid.UUID) (map[string]string, error)
	BufferAnswers(ctx context.Context, sessionID uuid.UUID, answers map[string]any, jobs [][]byte, expireAt time.Time) error
	BufferedAnswers(ctx context.Context, sessionID uuid.UUID) (map[string]string, error)
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

// RedisSessionCache keeps session metadata and answers in Redis hashes and
// queues answers for the answer worker.
type RedisSessionCache struct {
	rdb *redis.Client
}

// NewRedisSessionCache creates a new RedisSessionCache.
func NewRedisSessionCache(rdb *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{rdb: rdb}
}

// PutMeta replaces the metadata hash of a session.
func (c *RedisSessionCache) PutMeta(ctx context.Context, sessionID uuid.UUID, fields map[string]any, expireAt time.Time) error {
	key := config.CacheKey.SessionMetaKey(sessionID.String())
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.ExpireAt(ctx, key, expireAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache session meta: %w", err)
	}
	return nil
}

// Meta returns the metadata hash, empty when it is not cached.
func (c *RedisSessionCache) Meta(ctx context.Context, sessionID uuid.UUID) (map[string]string, error) {
	vals, err := c.rdb.HGetAll(ctx, config.CacheKey.SessionMetaKey(sessionID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("read session meta: %w", err)
	}
	return vals, nil
}

// BufferAnswers stores answers and pushes their persistence jobs in one round trip.
func (c *RedisSessionCache) BufferAnswers(ctx context.Context, sessionID uuid.UUID, answers map[string]any, jobs [][]byte, expireAt time.Time) error {
	key := config.CacheKey.SessionAnswersKey(sessionID.String())
	values := make([]any, len(jobs))
	for i, j := range jobs {
		values[i] = j
	}
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, answers)
	pipe.ExpireAt(ctx, key, expireAt)
	pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, values...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("buffer answers: %w", err)
	}
	return nil
}

// BufferedAnswers returns answers saved since the session opened, keyed by question id.
func (c *RedisSessionCache) BufferedAnswers(ctx context.Context, sessionID uuid.UUID) (map[string]string, error) {
	vals, err := c.rdb.HGetAll(ctx, config.CacheKey.SessionAnswersKey(sessionID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("read buffered answers: %w", err)
	}
	return vals, nil
}

// Clear drops a session's metadata and buffered answers.
func (c *RedisSessionCache) Clear(ctx context.Context, sessionID uuid.UUID) error {
	id := sessionID.String()
	return c.rdb.Del(ctx, config.CacheKey.SessionAnswersKey(id), config.CacheKey.SessionMetaKey(id)).Err()
}
