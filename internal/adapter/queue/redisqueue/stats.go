package redisqueue

import (
	"context"
	"fmt"

	"github.com/user/agro-alert/internal/domain"
)

// StreamStats summarizes one job stream for the ops surface.
type StreamStats struct {
	Kind      domain.JobKind `json:"kind"`
	Length    int64          `json:"length"`
	Pending   int64          `json:"pending"`
	Consumers int64          `json:"consumers"`
}

// Stats reports length, pending count, and consumer count per job stream.
func (q *Queue) Stats(ctx context.Context) ([]StreamStats, error) {
	out := make([]StreamStats, 0, len(domain.JobKinds))
	for _, kind := range domain.JobKinds {
		stream := streamKey(kind)
		length, err := q.client.XLen(ctx, stream).Result()
		if err != nil {
			return nil, fmt.Errorf("XLEN %s: %w", stream, err)
		}
		stats := StreamStats{Kind: kind, Length: length}
		groups, err := q.client.XInfoGroups(ctx, stream).Result()
		if err != nil {
			return nil, fmt.Errorf("XINFO GROUPS %s: %w", stream, err)
		}
		for _, g := range groups {
			if g.Name == q.cfg.Group {
				stats.Pending = g.Pending
				stats.Consumers = g.Consumers
			}
		}
		out = append(out, stats)
	}
	return out, nil
}

// DeadLetterLength reports how many jobs sit on the dead-letter stream.
func (q *Queue) DeadLetterLength(ctx context.Context) (int64, error) {
	n, err := q.client.XLen(ctx, deadLetterStream).Result()
	if err != nil {
		return 0, fmt.Errorf("XLEN %s: %w", deadLetterStream, err)
	}
	return n, nil
}
