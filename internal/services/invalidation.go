package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/openguild/guildpress/internal/config"
	"github.com/openguild/guildpress/pkg/logger"
)

const TaskTypeInvalidateViews = "views:invalidate"

// InvalidateTask names the logical views whose cached renderings are stale
// after a successful mutation.
type InvalidateTask struct {
	Keys []string `json:"keys"`
}

// --- View key builders ---

func ArticleViewKey(slug string) string        { return "article:" + slug }
func ArticleReviewsKey(articleID uint) string  { return fmt.Sprintf("article:%d:reviews", articleID) }
func PublishedArticlesKey() string             { return "articles:published" }
func EditorQueueKey() string                   { return "editor:queue" }
func MemberApplicationsKey(userID uint) string { return fmt.Sprintf("member:%d:applications", userID) }
func MemberDirectoryKey() string               { return "members:directory" }

// Invalidator delivers view-invalidation signals to whatever holds the
// rendered views. Implementations must tolerate being called concurrently.
type Invalidator interface {
	Invalidate(keys ...string) error
	Close() error
}

var (
	invalidatorMu     sync.RWMutex
	globalInvalidator Invalidator
)

// InitInvalidator sets up the global invalidator: Redis-backed when enabled,
// an in-process logging fallback otherwise.
func InitInvalidator(cfg *config.RedisConfig) Invalidator {
	var inv Invalidator
	if cfg != nil && cfg.Enabled {
		queue, err := NewQueueInvalidator(cfg)
		if err != nil {
			logger.Warnf("[Invalidation] Redis unavailable, falling back to local mode: %v", err)
			inv = NewLocalInvalidator(nil)
		} else {
			logger.Infof("[Invalidation] Async queue initialized with Redis at %s", cfg.Addr)
			inv = queue
		}
	} else {
		inv = NewLocalInvalidator(nil)
	}
	SetInvalidator(inv)
	return inv
}

// SetInvalidator replaces the global invalidator. Tests install a recording
// implementation here.
func SetInvalidator(inv Invalidator) {
	invalidatorMu.Lock()
	globalInvalidator = inv
	invalidatorMu.Unlock()
}

// invalidate emits keys through the global invalidator. Failures are logged,
// never propagated: the mutation already committed and a stale cache entry
// must not fail the request.
func invalidate(keys ...string) {
	invalidatorMu.RLock()
	inv := globalInvalidator
	invalidatorMu.RUnlock()

	if inv == nil || len(keys) == 0 {
		return
	}
	if err := inv.Invalidate(keys...); err != nil {
		logger.Errorf("[Invalidation] failed to emit keys %v: %v", keys, err)
	}
}

// QueueInvalidator delivers invalidations through asynq (Redis-based), so a
// separate worker fleet can purge distributed view caches.
type QueueInvalidator struct {
	client *asynq.Client
}

func NewQueueInvalidator(cfg *config.RedisConfig) (*QueueInvalidator, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before accepting work.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &QueueInvalidator{client: client}, nil
}

func (q *QueueInvalidator) Invalidate(keys ...string) error {
	payload, err := json.Marshal(InvalidateTask{Keys: keys})
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeInvalidateViews, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Strs("keys", keys).Msg("invalidation enqueued")
	return nil
}

func (q *QueueInvalidator) Close() error {
	return q.client.Close()
}

// LocalInvalidator handles invalidations in-process. With no handler it just
// logs the keys, which is enough for single-node deployments where views are
// rendered per request.
type LocalInvalidator struct {
	handler func(keys []string)
}

func NewLocalInvalidator(handler func(keys []string)) *LocalInvalidator {
	return &LocalInvalidator{handler: handler}
}

func (l *LocalInvalidator) Invalidate(keys ...string) error {
	if l.handler != nil {
		l.handler(keys)
		return nil
	}
	logger.Debug().Strs("keys", keys).Msg("views invalidated")
	return nil
}

func (l *LocalInvalidator) Close() error { return nil }
