package memqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/agro-alert/internal/domain"
)

// Queue is an in-process queue that runs each job's handler synchronously
// inside Enqueue. It exists for tests and single-process runs; it has no
// retries, no concurrency, and cannot exhibit the concurrent double-fire
// race the durable queue must guard against. The Redis-backed queue is the
// production target.
type Queue struct {
	mu       sync.Mutex
	handlers map[domain.JobKind]domain.JobHandler
	depth    int
}

// New creates an empty synchronous queue.
func New() *Queue {
	return &Queue{handlers: make(map[domain.JobKind]domain.JobHandler)}
}

// RegisterHandler binds the handler for a kind.
func (q *Queue) RegisterHandler(kind domain.JobKind, handler domain.JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = handler
}

// Enqueue marshals the payload and runs the kind's handler immediately.
// Handler errors surface to the caller; there is no retry layer.
func (q *Queue) Enqueue(ctx context.Context, kind domain.JobKind, payload any) (string, error) {
	q.mu.Lock()
	handler, ok := q.handlers[kind]
	q.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no handler registered for job kind %q", kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	job := domain.Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    raw,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}

	// Re-entrant enqueues (a handler enqueueing follow-up jobs) run nested,
	// so track depth only for visibility in tests.
	q.mu.Lock()
	q.depth++
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.depth--
		q.mu.Unlock()
	}()

	if err := handler(ctx, job); err != nil {
		return job.ID, fmt.Errorf("handle %s job %s: %w", kind, job.ID, err)
	}
	return job.ID, nil
}
