package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/openguild/guildpress/internal/config"
	"github.com/openguild/guildpress/pkg/logger"
)

// InvalidationWorker consumes view-invalidation tasks from the queue. It is
// only started in deployments where a separate cache tier holds rendered
// views; single-node setups skip it.
type InvalidationWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	purger  func(ctx context.Context, keys []string) error
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewInvalidationWorker builds a worker over the same Redis the queue
// invalidator enqueues to. Returns nil when Redis is disabled.
func NewInvalidationWorker(cfg *config.RedisConfig, purger func(ctx context.Context, keys []string) error) *InvalidationWorker {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &InvalidationWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		purger: purger,
	}
}

// Start begins consuming invalidation tasks.
func (w *InvalidationWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeInvalidateViews, w.handleInvalidateTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting invalidation worker")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *InvalidationWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
}

func (w *InvalidationWorker) handleInvalidateTask(ctx context.Context, t *asynq.Task) error {
	var task InvalidateTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Errorf("[Worker] Failed to unmarshal invalidation task: %v", err)
		return err
	}

	logger.Debug().Strs("keys", task.Keys).Msg("processing invalidation task")

	if w.purger == nil {
		return nil
	}
	return w.purger(ctx, task.Keys)
}
