/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package deferred

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// baseThrottle and throttleLimit are the Go-side analogues of the C
// implementation's DEFER_THROTTLE (524287) and DEFER_THROTTLE_LIMIT
// (1572864) constants: a worker's idle back-off grows with pool size but
// is capped, so a large pool doesn't spin needlessly while a small one
// stays responsive.
const (
	baseThrottle  = 524287 * time.Nanosecond
	throttleLimit = 1572864 * time.Nanosecond
)

// Strategy is the injection seam the C source exposed as `#pragma weak`
// overridable symbols (defer_new_thread/defer_join_thread/
// defer_thread_throttle). Tests and embedders substitute a Strategy to
// control scheduling deterministically instead of relying on weak-symbol
// linker tricks, which Go has no equivalent of.
type Strategy struct {
	// Spawn starts run under g (a plain errgroup.Group.Go, by default).
	Spawn func(g *errgroup.Group, run func() error)
	// Throttle is invoked by an idle worker between Perform passes; it
	// receives the pool's worker count so back-off can scale with it.
	Throttle func(workerCount int)
}

// DefaultStrategy spawns workers via errgroup.Group.Go and throttles with
// time.Sleep, matching the C worker loop's "perform, sleep, repeat" shape.
func DefaultStrategy() Strategy {
	return Strategy{
		Spawn: func(g *errgroup.Group, run func() error) { g.Go(run) },
		Throttle: func(workerCount int) {
			t := time.Duration(workerCount) * baseThrottle
			if t <= 0 || t > throttleLimit {
				t = throttleLimit
			}
			time.Sleep(t)
		},
	}
}

// Pool is a thread (goroutine) pool that repeatedly drains a Queue.
type Pool struct {
	queue    *Queue
	strategy Strategy
	active   atomic.Bool
	group    *errgroup.Group
	count    int
}

// StartPool launches n workers draining q and returns the running Pool.
// count == 0 is a caller error (matching defer_pool_start's NULL return
// for thread_count == 0): StartPool returns nil.
func StartPool(q *Queue, count uint, strategy Strategy) *Pool {
	if count == 0 {
		return nil
	}
	if strategy.Spawn == nil || strategy.Throttle == nil {
		strategy = DefaultStrategy()
	}
	p := &Pool{queue: q, strategy: strategy, count: int(count), group: &errgroup.Group{}}
	p.active.Store(true)
	for i := 0; i < int(count); i++ {
		strategy.Spawn(p.group, p.worker)
	}
	return p
}

func (p *Pool) worker() error {
	p.queue.Perform()
	for p.active.Load() {
		p.strategy.Throttle(p.count)
		p.queue.Perform()
	}
	return nil
}

// Stop signals the pool to wind down; it does not block.
func (p *Pool) Stop() { p.active.Store(false) }

// IsActive reports whether Stop has not yet been called.
func (p *Pool) IsActive() bool { return p.active.Load() }

// Wait blocks until every worker has observed Stop and returned, having
// drained the queue at least once more. Workers never return an error, so
// the errgroup.Group's own error is always nil here.
func (p *Pool) Wait() { _ = p.group.Wait() }
