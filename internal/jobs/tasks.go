package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/oliveplex/oliveplex/internal/catalog"
	"github.com/oliveplex/oliveplex/internal/directory"
)

// ──────── Payloads ────────

type ReloadPayload struct {
	Path string `json:"path"`
}

type WarmPayload struct {
	Path string `json:"path"`
}

// Dispatcher hands catalog work to whatever executes it: the Redis queue
// when one is configured, otherwise an in-process goroutine.
type Dispatcher interface {
	// Reload recomputes one path's cached records.
	Reload(path string) (string, error)
	// Warm walks a subtree so later requests hit warm caches.
	Warm(path string) (string, error)
}

// Runner executes catalog jobs. Both dispatchers end up here.
type Runner struct {
	catalog  *catalog.Catalog
	resolver *directory.Resolver
}

func NewRunner(cat *catalog.Catalog, resolver *directory.Resolver) *Runner {
	return &Runner{catalog: cat, resolver: resolver}
}

func (r *Runner) RunReload(ctx context.Context, path string) error {
	runID := uuid.NewString()
	confirmed, err := r.resolver.Resolve(path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}
	started := time.Now()
	if _, err := r.catalog.Reload(ctx, confirmed); err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}
	log.Printf("Jobs: reload %s done in %s (run %s)", path, time.Since(started).Round(time.Millisecond), runID)
	return nil
}

func (r *Runner) RunWarm(ctx context.Context, path string) error {
	runID := uuid.NewString()
	confirmed, err := r.resolver.Resolve(path)
	if err != nil {
		return fmt.Errorf("warm %s: %w", path, err)
	}
	started := time.Now()
	items, files, err := r.catalog.FlatTree(ctx, confirmed)
	if err != nil {
		return fmt.Errorf("warm %s: %w", path, err)
	}
	log.Printf("Jobs: warmed %d items and %d files under %q in %s (run %s)", len(items), len(files), path, time.Since(started).Round(time.Millisecond), runID)
	return nil
}

// ──────── Queue-backed dispatch ────────

// RegisterHandlers binds the catalog tasks onto the queue worker.
func RegisterHandlers(q *Queue, runner *Runner) {
	q.RegisterHandler(TaskReloadPath, asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		var payload ReloadPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return runner.RunReload(ctx, payload.Path)
	}))
	q.RegisterHandler(TaskWarmTree, asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		var payload WarmPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return runner.RunWarm(ctx, payload.Path)
	}))
}

// QueueDispatcher pushes work through Redis. Task IDs are deterministic
// per path so repeated filesystem events collapse into one job.
type QueueDispatcher struct {
	queue *Queue
}

func NewQueueDispatcher(q *Queue) *QueueDispatcher {
	return &QueueDispatcher{queue: q}
}

func (d *QueueDispatcher) Reload(path string) (string, error) {
	return d.queue.EnqueueUnique(TaskReloadPath, ReloadPayload{Path: path}, "reload:"+path)
}

func (d *QueueDispatcher) Warm(path string) (string, error) {
	return d.queue.EnqueueUnique(TaskWarmTree, WarmPayload{Path: path}, "warm:"+path, asynq.Queue("low"))
}

// ──────── In-process dispatch ────────

// InlineDispatcher runs jobs in a goroutine when no Redis is configured.
type InlineDispatcher struct {
	runner *Runner
}

func NewInlineDispatcher(runner *Runner) *InlineDispatcher {
	return &InlineDispatcher{runner: runner}
}

func (d *InlineDispatcher) Reload(path string) (string, error) {
	id := uuid.NewString()
	go func() {
		if err := d.runner.RunReload(context.Background(), path); err != nil {
			log.Printf("Jobs: %v", err)
		}
	}()
	return id, nil
}

func (d *InlineDispatcher) Warm(path string) (string, error) {
	id := uuid.NewString()
	go func() {
		if err := d.runner.RunWarm(context.Background(), path); err != nil {
			log.Printf("Jobs: %v", err)
		}
	}()
	return id, nil
}
