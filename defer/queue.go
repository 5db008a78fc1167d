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

// Package deferred implements facil-go's deferred-task engine (spec.md
// §4.A): a bounded-block FIFO task queue, an optional thread pool that
// drains it, and a worker-process supervisor built on top of both.
//
// The queue is grounded directly on the C implementation in
// original_source/lib/facil/core/defer.c: a linked list of fixed-capacity
// blocks, with one static block reused in the common (single in-flight
// block) case so the hot path never allocates.
package deferred

import "sync"

// blockCapacity mirrors DEFER_QUEUE_BLOCK_COUNT: "almost a page of memory
// on most 64 bit machines" in the original, sized here as a plain
// constant since Go's task slots are interface-sized rather than a packed
// C struct.
const blockCapacity = 168

// Task is a single deferred unit of work.
type Task struct {
	Fn   func(arg1, arg2 interface{})
	Arg1 interface{}
	Arg2 interface{}
}

func (t Task) valid() bool { return t.Fn != nil }

type block struct {
	tasks [blockCapacity]Task
	next  *block
	write int
	read  int
	full  bool
}

// Queue is a FIFO of deferred tasks backed by recyclable fixed-size
// blocks. The zero value is not usable; call NewQueue.
type Queue struct {
	mu     sync.Mutex
	static block
	reader *block
	writer *block
	// staticFree is true when the static block isn't currently part of
	// the reader/writer chain and so may be reclaimed instead of
	// allocating a new block — the direct analogue of the C static_queue
	// "state == 2" marker.
	staticFree bool
}

// NewQueue builds an empty Queue. The returned Queue holds one
// pre-allocated block, so pushing tasks up to blockCapacity never
// allocates.
func NewQueue() *Queue {
	q := &Queue{}
	q.reader = &q.static
	q.writer = &q.static
	return q
}

// Push enqueues a task. It returns false iff fn is nil — defer's only
// failure mode per spec.md §4.A.
func (q *Queue) Push(fn func(arg1, arg2 interface{}), arg1, arg2 interface{}) bool {
	if fn == nil {
		return false
	}
	q.push(Task{Fn: fn, Arg1: arg1, Arg2: arg2})
	return true
}

func (q *Queue) push(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.writer.full && q.writer.write == q.writer.read {
		var next *block
		if q.staticFree {
			next = &q.static
			next.next = nil
			q.staticFree = false
		} else {
			next = &block{}
		}
		q.writer.next = next
		q.writer = next
	}

	q.writer.tasks[q.writer.write] = t
	q.writer.write++
	if q.writer.write == blockCapacity {
		q.writer.write = 0
		q.writer.full = true
	}
}

// pop removes and returns the next task, or the zero Task if the queue is
// empty.
func (q *Queue) pop() Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.reader.write == q.reader.read && !q.reader.full {
		return Task{}
	}

	t := q.reader.tasks[q.reader.read]
	q.reader.read++
	if q.reader.read == blockCapacity {
		q.reader.read = 0
		q.reader.full = false
	}

	if q.reader.write == q.reader.read {
		if q.reader.next != nil {
			drained := q.reader
			q.reader = q.reader.next
			if drained == &q.static {
				q.staticFree = true
			}
		} else {
			q.reader.write, q.reader.read, q.reader.full = 0, 0, false
		}
	}

	return t
}

// Perform pops and executes tasks FIFO until the queue is empty. Tasks run
// inline (re-entrancy safe): a task enqueued during Perform still runs
// before Perform returns, matching spec.md invariant 6.
func (q *Queue) Perform() {
	for {
		t := q.pop()
		if !t.valid() {
			return
		}
		t.Fn(t.Arg1, t.Arg2)
	}
}

// HasQueue reports whether any task is pending. The read is racy under
// concurrent Push/pop by design (spec.md §4.A: "may be racy but MUST NOT
// deadlock") — it is a hint, not a synchronization point.
func (q *Queue) HasQueue() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.reader.write != q.reader.read || q.reader.full
}

// Clear drops every pending task without running it.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.static = block{}
	q.reader = &q.static
	q.writer = &q.static
	q.staticFree = false
}
