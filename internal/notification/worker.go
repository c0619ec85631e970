package notification

import (
	"context"
	"log"

	"pharmagister-backend/internal/metrics"
	"pharmagister-backend/internal/push"
)

// Job is one queued fan-out: deliver payload to every endpoint of UserID.
type Job struct {
	UserID  string
	Payload push.Payload
}

// Deliverer is the slice of the delivery engine the pool needs.
type Deliverer interface {
	Deliver(ctx context.Context, userID string, p push.Payload) (push.Result, error)
}

// WorkerPool manages a pool of workers draining delivery jobs. Delivery is a
// best-effort side effect of writing a notification record, so workers only
// log and count failures.
type WorkerPool struct {
	size    int
	jobs    chan Job
	engine  Deliverer
	metrics *metrics.Accumulator
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, engine Deliverer, acc *metrics.Accumulator) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*4), // Buffered channel
		engine:  engine,
		metrics: acc,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Delivery worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			result, err := wp.engine.Deliver(ctx, job.UserID, job.Payload)
			if err != nil {
				log.Printf("Worker %d: delivery for user %s failed: %v", id, job.UserID, err)
				continue
			}
			log.Printf("Worker %d: delivered %d/%d for user %s (cleaned %d)",
				id, result.Sent, result.Total, job.UserID, result.Cleaned)
		case <-ctx.Done():
			log.Printf("Delivery worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job. If the queue is full the job is dropped and counted
// rather than blocking the caller; push delivery is never load-bearing.
func (wp *WorkerPool) Dispatch(job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		wp.metrics.Add(metrics.DeliveryDropped, 1)
		log.Printf("Delivery queue full; dropping push for user %s", job.UserID)
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}
