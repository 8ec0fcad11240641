// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package queue serializes outbound upstream requests behind a single-flight
// rate limiter.
//
// Exactly one request is in flight at any time: a single worker goroutine
// drains the queue in priority order (high before normal before low, FIFO
// within a tier). Before each dispatch the worker enforces an adaptive
// inter-request delay - shrinking after a run of successes, growing after
// failures, bounded within [MinDelay, MaxDelay] - and a rolling-window
// dispatch budget; when the budget is exhausted the worker sleeps until the
// window frees up rather than dropping requests.
//
// Retryable failures (classification is injected by the caller) are retried
// with capped exponential backoff up to a fixed ceiling, re-queued at the
// front of their tier. Duplicate concurrent submissions sharing an ID are
// rejected immediately so a dashboard re-triggering a fetch cannot double
// upstream load.
//
// The single-flight property is load-bearing for upstream rate-limit
// compliance, not an optimization: do not add workers.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/comexboard/comexboard/internal/config"
	"github.com/comexboard/comexboard/internal/metrics"
)

// Priority orders queued requests across tiers.
type Priority int

// Priority tiers, drained in this order.
const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow

	numPriorities
)

// String returns the tier name used in logs and metrics.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Queue state errors.
var (
	// ErrDuplicate is returned when a submission shares its ID with a request
	// that is still queued or in flight.
	ErrDuplicate = errors.New("queue: duplicate request id")

	// ErrFull is returned when the queue holds MaxPending requests.
	ErrFull = errors.New("queue: pending limit reached")

	// ErrCleared is returned to all waiters when the queue is cleared.
	ErrCleared = errors.New("queue: cleared")

	// ErrStopped is returned for submissions after the worker has stopped.
	ErrStopped = errors.New("queue: stopped")
)

// Invoke performs one upstream call. The context carries the per-dispatch
// timeout; implementations must honor it.
type Invoke func(ctx context.Context) (interface{}, error)

// result delivers the terminal outcome of a request to its submitter.
type result struct {
	value interface{}
	err   error
}

// request is one queued unit of work.
type request struct {
	id         string
	priority   Priority
	invoke     Invoke
	enqueuedAt time.Time
	attempt    int
	done       chan result // buffered, written exactly once
}

// Queue is the process-wide outbound request scheduler. Construct with New
// and run the worker via Serve (typically under a supervision tree).
type Queue struct {
	cfg       config.QueueConfig
	retryable func(error) bool

	mu      sync.Mutex
	tiers   [numPriorities][]*request
	pending map[string]struct{}
	stopped bool

	// wake signals the worker that work may be available.
	wake chan struct{}

	// pacer enforces the adaptive inter-request delay; delay is its current
	// interval, successes the current success streak.
	pacer     *rate.Limiter
	delay     time.Duration
	successes int

	// window enforces the rolling dispatch budget.
	window *slidingWindow

	// serving guards against concurrent Serve calls.
	serving bool
}

// successesToShrink is the run of consecutive successes after which the
// inter-request delay is halved (down to MinDelay).
const successesToShrink = 5

// New creates a request queue with the given policy. retryable classifies
// errors returned by Invoke; nil means nothing is retried. The queue does not
// dispatch until Serve runs.
func New(cfg config.QueueConfig, retryable func(error) bool) *Queue {
	if retryable == nil {
		retryable = func(error) bool { return false }
	}
	delay := cfg.InitialDelay
	if delay < cfg.MinDelay {
		delay = cfg.MinDelay
	}
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	return &Queue{
		cfg:       cfg,
		retryable: retryable,
		pending:   make(map[string]struct{}),
		wake:      make(chan struct{}, 1),
		pacer:     rate.NewLimiter(rate.Every(delay), 1),
		delay:     delay,
		window:    newSlidingWindow(cfg.WindowSize, windowBuckets),
	}
}

// Submit enqueues an upstream call and blocks until it resolves, exhausts its
// retries, or ctx is done. id deduplicates concurrent submissions; pass ""
// to have one generated. The returned error is ErrDuplicate, ErrFull,
// ErrCleared, ErrStopped, ctx.Err(), or the last error observed upstream.
func (q *Queue) Submit(ctx context.Context, id string, priority Priority, invoke Invoke) (interface{}, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if priority < PriorityHigh || priority >= numPriorities {
		priority = PriorityNormal
	}

	req := &request{
		id:         id,
		priority:   priority,
		invoke:     invoke,
		enqueuedAt: time.Now(),
		done:       make(chan result, 1),
	}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil, ErrStopped
	}
	if _, inFlight := q.pending[id]; inFlight {
		q.mu.Unlock()
		metrics.QueueRejected.WithLabelValues("duplicate").Inc()
		return nil, ErrDuplicate
	}
	if q.pendingLen() >= q.cfg.MaxPending {
		q.mu.Unlock()
		metrics.QueueRejected.WithLabelValues("full").Inc()
		return nil, ErrFull
	}
	q.pending[id] = struct{}{}
	q.tiers[priority] = append(q.tiers[priority], req)
	metrics.QueueDepth.WithLabelValues(priority.String()).Set(float64(len(q.tiers[priority])))
	q.mu.Unlock()

	q.signal()

	select {
	case res := <-req.done:
		return res.value, res.err
	case <-ctx.Done():
		// The request stays queued (individual cancellation is not
		// supported); the worker discards its result on completion.
		return nil, ctx.Err()
	}
}

// Clear rejects every pending request with ErrCleared. In-flight work is not
// preempted. This is the only way to remove queued requests.
func (q *Queue) Clear() int {
	q.mu.Lock()
	var cleared []*request
	for i := range q.tiers {
		cleared = append(cleared, q.tiers[i]...)
		q.tiers[i] = nil
		metrics.QueueDepth.WithLabelValues(Priority(i).String()).Set(0)
	}
	for _, req := range cleared {
		delete(q.pending, req.id)
	}
	q.mu.Unlock()

	for _, req := range cleared {
		req.done <- result{err: ErrCleared}
		metrics.QueueRejected.WithLabelValues("cleared").Inc()
	}
	return len(cleared)
}

// Pending returns the number of queued requests across all tiers.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pendingLen()
}

// Delay returns the current adaptive inter-request delay.
func (q *Queue) Delay() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delay
}

// pendingLen must be called with mu held.
func (q *Queue) pendingLen() int {
	n := 0
	for i := range q.tiers {
		n += len(q.tiers[i])
	}
	return n
}

// signal wakes the worker without blocking.
func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pop removes and returns the front request of the highest non-empty tier.
func (q *Queue) pop() *request {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.tiers {
		if len(q.tiers[i]) == 0 {
			continue
		}
		req := q.tiers[i][0]
		q.tiers[i] = q.tiers[i][1:]
		metrics.QueueDepth.WithLabelValues(Priority(i).String()).Set(float64(len(q.tiers[i])))
		return req
	}
	return nil
}

// pushFront re-queues a retrying request at the front of its tier.
func (q *Queue) pushFront(req *request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tier := q.tiers[req.priority]
	q.tiers[req.priority] = append([]*request{req}, tier...)
	metrics.QueueDepth.WithLabelValues(req.priority.String()).Set(float64(len(q.tiers[req.priority])))
}

// finish delivers the terminal result and releases the request's ID.
func (q *Queue) finish(req *request, value interface{}, err error) {
	q.mu.Lock()
	delete(q.pending, req.id)
	q.mu.Unlock()
	req.done <- result{value: value, err: err}
}
