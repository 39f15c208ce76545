// Package batch runs enqueued tasks in fixed-size batches with a pause
// between batches, keeping bulk work (such as pre-warming the catalog
// cache) from hammering the upstream API.
package batch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pokebinder/pokebinder/internal/metrics"
)

const (
	defaultBatchSize = 10
	defaultDelay     = 100 * time.Millisecond
)

// Task produces one value or an error.
type Task[T any] func(ctx context.Context) (T, error)

// Result carries a task's outcome. Failures are per-task; one failed
// task never affects the rest of its batch.
type Result[T any] struct {
	Value T
	Err   error
}

type job[T any] struct {
	ctx  context.Context
	task Task[T]
	out  chan Result[T]
}

// Queue collects tasks and drains them in batches. A single drain
// goroutine runs at a time; enqueueing while a drain is in flight just
// extends the pending work.
type Queue[T any] struct {
	mu         sync.Mutex
	pending    []job[T]
	processing bool

	batchSize int
	limiter   *rate.Limiter
}

// New returns a queue draining batchSize tasks at a time with at least
// delay between consecutive batches. Non-positive arguments fall back
// to the defaults.
func New[T any](batchSize int, delay time.Duration) *Queue[T] {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if delay <= 0 {
		delay = defaultDelay
	}
	return &Queue[T]{
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Enqueue adds a task and returns a channel that receives its result
// exactly once. The channel is buffered; the caller may read it late or
// not at all.
func (q *Queue[T]) Enqueue(ctx context.Context, task Task[T]) <-chan Result[T] {
	out := make(chan Result[T], 1)

	q.mu.Lock()
	q.pending = append(q.pending, job[T]{ctx: ctx, task: task, out: out})
	metrics.BatchQueueDepth.Set(float64(len(q.pending)))
	start := !q.processing
	if start {
		q.processing = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
	return out
}

// Len reports how many tasks are waiting to run.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue[T]) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.processing = false
			metrics.BatchQueueDepth.Set(0)
			q.mu.Unlock()
			return
		}
		n := q.batchSize
		if n > len(q.pending) {
			n = len(q.pending)
		}
		jobs := q.pending[:n:n]
		q.pending = q.pending[n:]
		metrics.BatchQueueDepth.Set(float64(len(q.pending)))
		q.mu.Unlock()

		q.limiter.Wait(context.Background())
		q.runBatch(jobs)
	}
}

func (q *Queue[T]) runBatch(jobs []job[T]) {
	start := time.Now()
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job[T]) {
			defer wg.Done()
			if err := j.ctx.Err(); err != nil {
				j.out <- Result[T]{Err: err}
				return
			}
			v, err := j.task(j.ctx)
			j.out <- Result[T]{Value: v, Err: err}
		}(j)
	}
	wg.Wait()
	metrics.BatchDuration.Observe(time.Since(start).Seconds())
}
