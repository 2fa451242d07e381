package order

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	queueCapacity = 64
	jobTimeout    = 2 * time.Minute
)

type job struct {
	ID      string
	StoreID string
	OrderID string
}

// Queue serializes webhook-triggered invoicing on a single worker, so two
// deliveries for the same order can never race a double submission. Jobs are
// dropped (and logged) when the buffer is full; the platform retries
// deliveries.
type Queue struct {
	svc  *Service
	jobs chan job
	log  *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewQueue creates the background invoicing queue.
func NewQueue(svc *Service, log *slog.Logger) *Queue {
	return &Queue{
		svc:  svc,
		jobs: make(chan job, queueCapacity),
		log:  log,
		done: make(chan struct{}),
	}
}

// Start launches the worker. It returns immediately; the worker runs until
// Stop is called or ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		go q.run(ctx)
	})
}

// Stop stops accepting jobs and lets the worker drain what is already queued.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.done)
	})
}

// Enqueue schedules a paid order for background invoicing. It never blocks;
// the returned ID identifies the job in logs.
func (q *Queue) Enqueue(storeID, orderID string) (string, bool) {
	j := job{ID: uuid.NewString(), StoreID: storeID, OrderID: orderID}

	select {
	case <-q.done:
		return "", false
	default:
	}

	select {
	case q.jobs <- j:
		q.log.Debug("order invoicing queued", "job_id", j.ID, "store_id", storeID, "order_id", orderID)
		return j.ID, true
	default:
		q.log.Warn("invoicing queue full, dropping job", "store_id", storeID, "order_id", orderID)
		return "", false
	}
}

func (q *Queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.done:
			// Drain pending jobs before exiting.
			for {
				select {
				case j := <-q.jobs:
					q.process(ctx, j)
				default:
					return
				}
			}
		case j := <-q.jobs:
			q.process(ctx, j)
		}
	}
}

func (q *Queue) process(ctx context.Context, j job) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if err := q.svc.ProcessPaidOrder(jobCtx, j.StoreID, j.OrderID); err != nil {
		q.log.Error("background invoicing failed",
			"job_id", j.ID,
			"store_id", j.StoreID,
			"order_id", j.OrderID,
			"error", err,
		)
		return
	}
	q.log.Info("background invoicing done", "job_id", j.ID, "order_id", j.OrderID)
}
