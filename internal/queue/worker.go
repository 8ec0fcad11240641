// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/comexboard/comexboard/internal/logging"
	"github.com/comexboard/comexboard/internal/metrics"
)

// Serve runs the single drain worker until ctx is canceled, then rejects all
// remaining pending requests. It implements suture.Service. Only one Serve
// may run per Queue; a second concurrent call returns an error immediately.
func (q *Queue) Serve(ctx context.Context) error {
	q.mu.Lock()
	if q.serving {
		q.mu.Unlock()
		return errors.New("queue: worker already running")
	}
	q.serving = true
	q.stopped = false
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.serving = false
		q.stopped = true
		q.mu.Unlock()
		q.Clear()
	}()

	logging.Info().
		Dur("min_delay", q.cfg.MinDelay).
		Dur("max_delay", q.cfg.MaxDelay).
		Int("window_budget", q.cfg.WindowBudget).
		Dur("window_size", q.cfg.WindowSize).
		Msg("request queue worker started")

	for {
		req := q.pop()
		if req == nil {
			select {
			case <-q.wake:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := q.process(ctx, req); err != nil {
			// Only context cancellation aborts the loop; request-level
			// failures were already delivered to the submitter.
			return err
		}
	}
}

// process drives one request through pacing, dispatch and retries until it
// reaches a terminal state. Returns non-nil only when ctx is done.
func (q *Queue) process(ctx context.Context, req *request) error {
	metrics.QueueWaitDuration.Observe(time.Since(req.enqueuedAt).Seconds())

	for {
		if err := q.awaitWindowBudget(ctx); err != nil {
			q.finish(req, nil, err)
			return err
		}
		if err := q.pacer.Wait(ctx); err != nil {
			q.finish(req, nil, err)
			return err
		}

		q.window.Add(1)
		value, err := q.dispatch(ctx, req)
		if err == nil {
			q.recordSuccess()
			q.finish(req, value, nil)
			return nil
		}
		if ctx.Err() != nil {
			q.finish(req, nil, ctx.Err())
			return ctx.Err()
		}

		q.recordFailure()

		if !q.retryable(err) {
			q.finish(req, nil, err)
			return nil
		}
		if req.attempt >= q.cfg.MaxRetries {
			q.finish(req, nil, fmt.Errorf("queue: retries exhausted after %d attempts: %w", req.attempt+1, err))
			return nil
		}

		backoff := q.backoffDelay(req.attempt)
		req.attempt++
		metrics.QueueRetries.Inc()
		logging.Warn().
			Str("request_id", req.id).
			Int("attempt", req.attempt).
			Dur("backoff", backoff).
			Err(err).
			Msg("retryable upstream failure, backing off")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			q.finish(req, nil, ctx.Err())
			return ctx.Err()
		}

		// Re-queue at the front of the tier, then let the loop pick the
		// highest-priority request again; a high-priority arrival during the
		// backoff must not wait behind this retry.
		q.pushFront(req)
		next := q.pop()
		if next == nil {
			// Cannot happen: the retried request was just pushed.
			continue
		}
		// When a higher-priority request arrived during the backoff, pop
		// returns it and the retried request stays queued at its tier front.
		req = next
	}
}

// dispatch runs the request's invoke under the per-dispatch timeout.
func (q *Queue) dispatch(ctx context.Context, req *request) (interface{}, error) {
	dispatchCtx, cancel := context.WithTimeout(ctx, q.cfg.DispatchTimeout)
	defer cancel()
	return req.invoke(dispatchCtx)
}

// awaitWindowBudget blocks while the rolling window is at capacity. Requests
// are never dropped for budget reasons; the worker simply sleeps until the
// oldest bucket rotates out.
func (q *Queue) awaitWindowBudget(ctx context.Context) error {
	for q.window.Count() >= int64(q.cfg.WindowBudget) {
		logging.Debug().
			Int64("window_count", q.window.Count()).
			Int("window_budget", q.cfg.WindowBudget).
			Msg("window budget exhausted, waiting")
		select {
		case <-time.After(q.window.BucketSize()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// recordSuccess shrinks the inter-request delay after a run of successes.
func (q *Queue) recordSuccess() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.successes++
	if q.successes < successesToShrink {
		return
	}
	q.successes = 0
	q.setDelayLocked(q.delay / 2)
}

// recordFailure grows the inter-request delay and resets the success streak.
func (q *Queue) recordFailure() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.successes = 0
	q.setDelayLocked(q.delay * 2)
}

// setDelayLocked clamps and applies a new inter-request delay (mu held).
func (q *Queue) setDelayLocked(d time.Duration) {
	if d < q.cfg.MinDelay {
		d = q.cfg.MinDelay
	}
	if d > q.cfg.MaxDelay {
		d = q.cfg.MaxDelay
	}
	if d == q.delay {
		return
	}
	q.delay = d
	q.pacer.SetLimit(rate.Every(d))
	metrics.QueueInterRequestDelay.Set(d.Seconds())
}

// backoffDelay returns the exponential backoff for the given attempt,
// capped at RetryMaxDelay: base, 2*base, 4*base, ...
func (q *Queue) backoffDelay(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30 // avoid shift overflow; the cap applies anyway
	}
	d := q.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt))
	if q.cfg.RetryMaxDelay > 0 && d > q.cfg.RetryMaxDelay {
		d = q.cfg.RetryMaxDelay
	}
	return d
}
