package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	answerPollTimeout = time.Second
	answerRetryDelay  = 5 * time.Second
)

// AnswerQueue is the subset of the Redis client the answer worker uses.
type AnswerQueue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPop(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// AnswerStore persists a single answer.
type AnswerStore interface {
	UpsertAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answer string) error
}

// AnswerWorker consumes persist_answers_queue and upserts answers to PostgreSQL.
type AnswerWorker struct {
	queue      AnswerQueue
	store      AnswerStore
	log        zerolog.Logger
	retryDelay time.Duration
}

// NewAnswerWorker creates a new AnswerWorker.
func NewAnswerWorker(queue AnswerQueue, store AnswerStore, log zerolog.Logger) *AnswerWorker {
	return &AnswerWorker{
		queue:      queue,
		store:      store,
		log:        log.With().Str("component", "answer_worker").Logger(),
		retryDelay: answerRetryDelay,
	}
}

// Start runs the worker loop until ctx is cancelled, then drains the queue.
// Call in a goroutine.
func (w *AnswerWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AnswerWorker) processNext(ctx context.Context) {
	result, err := w.queue.BLPop(ctx, answerPollTimeout, config.WorkerKey.PersistAnswersQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Msg("Persist error, retrying")
		w.queue.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result[1])
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// handle persists one raw job. It returns an error only when the job should be retried.
func (w *AnswerWorker) handle(ctx context.Context, raw string) error {
	var job model.PersistAnswerJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		w.log.Error().Err(err).Str("payload", raw).Msg("Dropping malformed job")
		return nil
	}

	err := w.store.UpsertAnswer(ctx, job.SessionID, job.QuestionID, job.Answer)
	if errors.Is(err, repository.ErrReferenced) {
		// The session or question was deleted after the answer was queued.
		w.log.Warn().
			Str("session_id", job.SessionID.String()).
			Str("question_id", job.QuestionID.String()).
			Msg("Dropping answer for missing session or question")
		return nil
	}
	return err
}

// drain persists everything left in the queue before shutdown.
func (w *AnswerWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.queue.LPop(ctx, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.queue.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
