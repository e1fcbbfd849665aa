package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/user/agro-alert/internal/adapter/metrics"
	"github.com/user/agro-alert/internal/domain"
)

const (
	streamPrefix     = "jobs:"
	deadLetterStream = "jobs:dead"
	readBlock        = 2 * time.Second
)

// Config tunes the durable queue.
type Config struct {
	Group          string
	Consumer       string
	WorkersPerKind int
	MaxAttempts    int
	RetryBackoff   time.Duration
	HandlerTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Group == "" {
		c.Group = "alert-pipeline"
	}
	if c.Consumer == "" {
		c.Consumer = "worker-default"
	}
	if c.WorkersPerKind <= 0 {
		c.WorkersPerKind = 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 5 * time.Second
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = 30 * time.Second
	}
}

// Queue is the durable job queue backed by Redis Streams. Each job kind has
// its own stream and its own bounded worker pool; retries are bounded and
// exhausted jobs land on a dead-letter stream rather than being dropped.
type Queue struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *metrics.PipelineMetrics
	cfg     Config

	mu       sync.Mutex
	handlers map[domain.JobKind]domain.JobHandler
}

// New creates the queue and provisions one consumer group per job kind.
func New(client *redis.Client, logger *slog.Logger, m *metrics.PipelineMetrics, cfg Config) (*Queue, error) {
	cfg.applyDefaults()
	q := &Queue{
		client:   client,
		logger:   logger.With("component", "redis_queue"),
		metrics:  m,
		cfg:      cfg,
		handlers: make(map[domain.JobKind]domain.JobHandler),
	}
	for _, kind := range domain.JobKinds {
		err := client.XGroupCreateMkStream(context.Background(), streamKey(kind), cfg.Group, "0").Err()
		if err != nil && !isBusyGroupError(err) {
			return nil, fmt.Errorf("create consumer group for %s: %w", kind, err)
		}
	}
	return q, nil
}

func streamKey(kind domain.JobKind) string {
	return streamPrefix + string(kind)
}

// Enqueue submits one job. The returned id is the job id, not the stream
// message id.
func (q *Queue) Enqueue(ctx context.Context, kind domain.JobKind, payload any) (string, error) {
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
	if err := q.add(ctx, job); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (q *Queue) add(ctx context.Context, job domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	args := &redis.XAddArgs{
		Stream: streamKey(job.Kind),
		Values: map[string]interface{}{"job": data},
	}
	if err := q.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("XADD job %s to %s: %w", job.ID, streamKey(job.Kind), err)
	}
	return nil
}

// RegisterHandler binds the handler for a kind. Must be called before Run.
func (q *Queue) RegisterHandler(kind domain.JobKind, handler domain.JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = handler
}

// Run starts one worker pool per registered kind and blocks until ctx is
// cancelled and all workers have drained.
func (q *Queue) Run(ctx context.Context) {
	var wg sync.WaitGroup
	q.mu.Lock()
	kinds := make([]domain.JobKind, 0, len(q.handlers))
	for kind := range q.handlers {
		kinds = append(kinds, kind)
	}
	q.mu.Unlock()

	for _, kind := range kinds {
		for i := 0; i < q.cfg.WorkersPerKind; i++ {
			wg.Add(1)
			go func(kind domain.JobKind, worker int) {
				defer wg.Done()
				q.workerLoop(ctx, kind, worker)
			}(kind, i)
		}
	}
	q.logger.Info("queue workers started",
		"kinds", len(kinds), "workers_per_kind", q.cfg.WorkersPerKind)
	wg.Wait()
	q.logger.Info("queue workers stopped")
}

func (q *Queue) workerLoop(ctx context.Context, kind domain.JobKind, worker int) {
	consumer := fmt.Sprintf("%s-%s-%d", q.cfg.Consumer, kind, worker)
	for {
		if ctx.Err() != nil {
			return
		}
		job, ok, err := q.read(ctx, kind, consumer)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Error("failed to read from stream", "kind", string(kind), "error", err)
			select {
			case <-time.After(readBlock):
			case <-ctx.Done():
				return
			}
			continue
		}
		if !ok {
			continue
		}
		q.process(ctx, job)
	}
}

func (q *Queue) read(ctx context.Context, kind domain.JobKind, consumer string) (domain.Job, bool, error) {
	args := &redis.XReadGroupArgs{
		Group:    q.cfg.Group,
		Consumer: consumer,
		Streams:  []string{streamKey(kind), ">"},
		Count:    1,
		Block:    readBlock,
	}
	streams, err := q.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Job{}, false, nil
		}
		return domain.Job{}, false, fmt.Errorf("XREADGROUP from %s: %w", streamKey(kind), err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return domain.Job{}, false, nil
	}

	msg := streams[0].Messages[0]
	raw, okVal := msg.Values["job"].(string)
	if !okVal {
		q.logger.Warn("invalid message in stream, acknowledging and skipping",
			"kind", string(kind), "message_id", msg.ID)
		_ = q.client.XAck(ctx, streamKey(kind), q.cfg.Group, msg.ID).Err()
		return domain.Job{}, false, nil
	}
	var job domain.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		q.logger.Warn("failed to unmarshal job, acknowledging and skipping",
			"kind", string(kind), "message_id", msg.ID, "error", err)
		_ = q.client.XAck(ctx, streamKey(kind), q.cfg.Group, msg.ID).Err()
		return domain.Job{}, false, nil
	}
	job.StreamMessageID = msg.ID
	return job, true, nil
}

// process runs the handler for one attempt and settles the message:
// success acknowledges, failure re-submits with an incremented attempt
// after a backoff, and an exhausted job moves to the dead-letter stream.
func (q *Queue) process(ctx context.Context, job domain.Job) {
	q.mu.Lock()
	handler := q.handlers[job.Kind]
	q.mu.Unlock()

	hctx, cancel := context.WithTimeout(ctx, q.cfg.HandlerTimeout)
	err := handler(hctx, job)
	cancel()

	stream := streamKey(job.Kind)
	if ackErr := q.client.XAck(ctx, stream, q.cfg.Group, job.StreamMessageID).Err(); ackErr != nil {
		q.logger.Error("failed to acknowledge job", "job_id", job.ID, "error", ackErr)
	}

	if err == nil {
		q.metrics.JobsTotal.WithLabelValues(string(job.Kind), "succeeded").Inc()
		return
	}

	if job.Attempt >= q.cfg.MaxAttempts {
		q.deadLetter(ctx, job, err)
		return
	}

	q.metrics.JobRetriesTotal.WithLabelValues(string(job.Kind)).Inc()
	q.logger.Warn("job attempt failed, scheduling retry",
		"job_id", job.ID, "kind", string(job.Kind),
		"attempt", job.Attempt, "max_attempts", q.cfg.MaxAttempts, "error", err)

	select {
	case <-time.After(q.cfg.RetryBackoff):
	case <-ctx.Done():
		// Shutdown during backoff: the retry is lost from this process but
		// the attempt was already recorded as acknowledged, so we re-add
		// without waiting rather than dropping it.
	}
	retry := job
	retry.Attempt++
	retry.StreamMessageID = ""
	if addErr := q.add(context.WithoutCancel(ctx), retry); addErr != nil {
		q.logger.Error("failed to re-enqueue job for retry, dead-lettering",
			"job_id", job.ID, "error", addErr)
		q.deadLetter(context.WithoutCancel(ctx), retry, err)
	}
}

func (q *Queue) deadLetter(ctx context.Context, job domain.Job, cause error) {
	q.metrics.JobsTotal.WithLabelValues(string(job.Kind), "failed").Inc()
	q.metrics.JobsDeadLettered.WithLabelValues(string(job.Kind)).Inc()
	data, err := json.Marshal(job)
	if err != nil {
		q.logger.Error("failed to marshal job for dead-letter stream", "job_id", job.ID, "error", err)
		return
	}
	args := &redis.XAddArgs{
		Stream: deadLetterStream,
		Values: map[string]interface{}{
			"job":       data,
			"kind":      string(job.Kind),
			"error":     cause.Error(),
			"failed_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := q.client.XAdd(ctx, args).Err(); err != nil {
		q.logger.Error("failed to write to dead-letter stream", "job_id", job.ID, "error", err)
		return
	}
	q.logger.Error("job dead-lettered",
		"job_id", job.ID, "kind", string(job.Kind), "attempts", job.Attempt, "error", cause)
}

func isBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
