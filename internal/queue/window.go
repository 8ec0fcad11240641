// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package queue

import (
	"sync"
	"time"
)

// windowBuckets is the bucket count for the rolling dispatch window. More
// buckets tighten the approximation of a true rolling window at O(k) memory.
const windowBuckets = 12

// slidingWindow is a memory-efficient rolling counter: the window is divided
// into fixed-duration buckets held in a circular buffer, and the window count
// is the sum of all buckets. Dispatches land in the current bucket; as time
// advances, stale buckets are zeroed.
type slidingWindow struct {
	mu         sync.Mutex
	buckets    []int64
	bucketSize time.Duration
	current    int
	lastUpdate time.Time
}

// newSlidingWindow creates a rolling counter spanning windowSize split into
// numBuckets buckets.
func newSlidingWindow(windowSize time.Duration, numBuckets int) *slidingWindow {
	if numBuckets <= 0 {
		numBuckets = windowBuckets
	}
	if windowSize <= 0 {
		windowSize = time.Minute
	}
	return &slidingWindow{
		buckets:    make([]int64, numBuckets),
		bucketSize: windowSize / time.Duration(numBuckets),
		lastUpdate: time.Now(),
	}
}

// Add records delta events in the current bucket.
func (sw *slidingWindow) Add(delta int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.advance()
	sw.buckets[sw.current] += delta
}

// Count returns the number of events within the window.
func (sw *slidingWindow) Count() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.advance()

	var total int64
	for _, n := range sw.buckets {
		total += n
	}
	return total
}

// BucketSize returns the duration of one bucket - the granularity at which
// budget headroom reappears.
func (sw *slidingWindow) BucketSize() time.Duration {
	return sw.bucketSize
}

// advance rotates the circular buffer to the bucket covering now, zeroing
// every bucket that fell out of the window (mu held).
func (sw *slidingWindow) advance() {
	now := time.Now()
	elapsed := now.Sub(sw.lastUpdate)
	if elapsed < sw.bucketSize {
		return
	}

	steps := int(elapsed / sw.bucketSize)
	if steps >= len(sw.buckets) {
		for i := range sw.buckets {
			sw.buckets[i] = 0
		}
		sw.current = 0
	} else {
		for i := 0; i < steps; i++ {
			sw.current = (sw.current + 1) % len(sw.buckets)
			sw.buckets[sw.current] = 0
		}
	}
	sw.lastUpdate = now
}
