// Package events fans committed activity out to a Redis stream for
// downstream consumers (notifications, analytics).
package events

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/promptverse/promptfeed/src/types"
)

type Kind string

const (
	KindGeneration Kind = "generation"
	KindLike       Kind = "like"
	KindComment    Kind = "comment"
	KindFollow     Kind = "follow"
	KindUnfollow   Kind = "unfollow"
)

type Event struct {
	Kind       Kind
	Account    string
	PromptID   uint64
	PromptType types.PromptType
	Target     string // followed creator, for follow events
	At         time.Time
}

func (e Event) values() map[string]any {
	v := map[string]any{
		"kind":    string(e.Kind),
		"account": e.Account,
		"time":    e.At.Unix(),
	}
	if e.PromptID != 0 {
		v["prompt_id"] = strconv.FormatUint(e.PromptID, 10)
		v["prompt_type"] = string(e.PromptType)
	}
	if e.Target != "" {
		v["target"] = e.Target
	}
	return v
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type RedisPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisPublisher(rdb *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, stream: stream, maxLen: 100000}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	_, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: e.values(),
	}).Result()
	return err
}

// Emit publishes after a commit. The write already succeeded, so a
// publish failure is logged and never returned.
func Emit(ctx context.Context, pub Publisher, log *zap.Logger, e Event) {
	if pub == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := pub.Publish(ctx, e); err != nil && log != nil {
		log.Warn("publish activity event",
			zap.String("kind", string(e.Kind)),
			zap.String("account", e.Account),
			zap.Error(err),
		)
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
