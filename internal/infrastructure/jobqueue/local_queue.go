package jobqueue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const defaultLocalWorkers = 4

// Handler receives the JSON body a queued job was enqueued with.
type Handler func(ctx context.Context, body []byte) error

// LocalQueue runs jobs in-process, at most workers at a time. Enqueue never
// waits for a free worker. It is used when no QStash credentials are
// configured; jobs do not survive a restart.
type LocalQueue struct {
	ctx    context.Context
	cancel context.CancelFunc
	pool   *pool.Pool
	slots  chan struct{}
	logger *logging.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	pending  map[string]struct{}
	closed   bool
}

func NewLocalQueue(workers int, logger *logging.Logger) *LocalQueue {
	if workers <= 0 {
		workers = defaultLocalWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalQueue{
		ctx:      ctx,
		cancel:   cancel,
		pool:     pool.New(),
		slots:    make(chan struct{}, workers),
		logger:   logging.OrDefault(logger),
		handlers: make(map[string]Handler),
		pending:  make(map[string]struct{}),
	}
}

func (q *LocalQueue) Register(path string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[normalizePath(path)] = handler
}

// Enqueue schedules the handler registered for path. A deduplication ID that
// is still pending makes the call a no-op, matching QStash semantics.
func (q *LocalQueue) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	path = normalizePath(path)
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	deduplicationID = strings.TrimSpace(deduplicationID)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("local job queue is closed")
	}
	handler, ok := q.handlers[path]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("no local job handler registered for path=%s", path)
	}
	if deduplicationID != "" {
		if _, dup := q.pending[deduplicationID]; dup {
			q.mu.Unlock()
			q.logger.InfoContext(ctx, "local job deduplicated", "path", path, "deduplication_id", deduplicationID)
			return nil
		}
		q.pending[deduplicationID] = struct{}{}
	}
	q.mu.Unlock()

	q.pool.Go(func() {
		defer q.release(deduplicationID)
		if !q.wait(delay) {
			return
		}
		q.slots <- struct{}{}
		defer func() { <-q.slots }()
		q.run(path, deduplicationID, handler, body)
	})
	q.logger.InfoContext(ctx, "local job enqueued", "path", path, "delay", delay.String(), "deduplication_id", deduplicationID)
	return nil
}

// Close stops accepting jobs, cancels delayed ones and waits for the
// remaining jobs to drain.
func (q *LocalQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.pool.Wait()
}

func (q *LocalQueue) run(path, deduplicationID string, handler Handler, body []byte) {
	started := time.Now()
	var handlerErr error
	var catcher panics.Catcher
	catcher.Try(func() {
		handlerErr = handler(q.ctx, body)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		handlerErr = recovered.AsError()
	}

	if handlerErr != nil {
		q.logger.Error("local job failed", "path", path, "deduplication_id", deduplicationID, "error", handlerErr)
		return
	}
	q.logger.Info("local job finished", "path", path, "deduplication_id", deduplicationID, "duration_ms", time.Since(started).Milliseconds())
}

func (q *LocalQueue) wait(delay time.Duration) bool {
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-q.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (q *LocalQueue) release(deduplicationID string) {
	if deduplicationID == "" {
		return
	}
	q.mu.Lock()
	delete(q.pending, deduplicationID)
	q.mu.Unlock()
}

func normalizePath(path string) string {
	return "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
}
