package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type memQueue struct {
	mu    sync.Mutex
	items []string
}

func (q *memQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v, true
}

func (q *memQueue) BLPop(_ context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	v, ok := q.pop()
	if !ok {
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	return redis.NewStringSliceResult([]string{keys[0], v}, nil)
}

func (q *memQueue) LPop(_ context.Context, _ string) *redis.StringCmd {
	v, ok := q.pop()
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (q *memQueue) RPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range values {
		switch s := v.(type) {
		case string:
			q.items = append(q.items, s)
		case []byte:
			q.items = append(q.items, string(s))
		}
	}
	return redis.NewIntResult(int64(len(q.items)), nil)
}

type memStore struct {
	answers map[uuid.UUID]string
	err     error
	calls   int
}

func (s *memStore) UpsertAnswer(_ context.Context, _, questionID uuid.UUID, answer string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.answers[questionID] = answer
	return nil
}

func job(t *testing.T, questionID uuid.UUID, answer string) string {
	t.Helper()
	b, err := json.Marshal(model.PersistAnswerJob{SessionID: uuid.New(), QuestionID: questionID, Answer: answer})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestAnswerWorkerHandle(t *testing.T) {
	qid := uuid.New()
	tests := []struct {
		name      string
		raw       string
		storeErr  error
		wantErr   bool
		wantSaved bool
	}{
		{"persists", job(t, qid, "B"), nil, false, true},
		{"drops malformed", "{not json", nil, false, false},
		{"drops deleted session", job(t, qid, "B"), repository.ErrReferenced, false, false},
		{"retries db failure", job(t, qid, "B"), errors.New("connection reset"), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{answers: map[uuid.UUID]string{}, err: tt.storeErr}
			w := NewAnswerWorker(&memQueue{}, store, zerolog.Nop())

			err := w.handle(context.Background(), tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if _, saved := store.answers[qid]; saved != tt.wantSaved {
				t.Errorf("saved = %v, want %v", saved, tt.wantSaved)
			}
		})
	}
}

func TestAnswerWorkerRequeuesOnFailure(t *testing.T) {
	queue := &memQueue{}
	raw := job(t, uuid.New(), "A")
	queue.RPush(context.Background(), "", raw)
	store := &memStore{answers: map[uuid.UUID]string{}, err: errors.New("db down")}
	w := NewAnswerWorker(queue, store, zerolog.Nop())
	w.retryDelay = 0

	w.processNext(context.Background())

	if len(queue.items) != 1 || queue.items[0] != raw {
		t.Errorf("queue = %v, want the failed job requeued", queue.items)
	}
}

func TestAnswerWorkerDrainsOnShutdown(t *testing.T) {
	queue := &memQueue{}
	q1, q2 := uuid.New(), uuid.New()
	queue.RPush(context.Background(), "", job(t, q1, "A"), job(t, q2, "C"))
	store := &memStore{answers: map[uuid.UUID]string{}}
	w := NewAnswerWorker(queue, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	if store.answers[q1] != "A" || store.answers[q2] != "C" {
		t.Errorf("answers = %v", store.answers)
	}
	if len(queue.items) != 0 {
		t.Errorf("queue not drained: %v", queue.items)
	}
}

type countingCloser struct {
	mu     sync.Mutex
	calls  int
	cancel context.CancelFunc
}

func (c *countingCloser) Sweep(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls == 2 {
		c.cancel()
	}
	return 1, nil
}

func TestSessionSweeperRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	closer := &countingCloser{cancel: cancel}
	s := NewSessionSweeper(closer, time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
	closer.mu.Lock()
	defer closer.mu.Unlock()
	if closer.calls < 2 {
		t.Errorf("calls = %d, want at least 2", closer.calls)
	}
}
