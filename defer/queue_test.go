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

package deferred_test

import (
	"sync"
	"sync/atomic"

	. "github.com/boazsegev/facil-go/defer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Queue", func() {
	var q *Queue

	BeforeEach(func() {
		q = NewQueue()
	})

	It("rejects a nil function", func() {
		Expect(q.Push(nil, nil, nil)).To(BeFalse())
	})

	It("executes a pushed task exactly once (invariant 6)", func() {
		var n int32
		q.Push(func(a1, a2 interface{}) { atomic.AddInt32(&n, 1) }, nil, nil)
		q.Perform()
		Expect(n).To(Equal(int32(1)))
	})

	It("runs tasks enqueued during Perform before Perform returns", func() {
		var order []int
		q.Push(func(a1, a2 interface{}) {
			order = append(order, 1)
			q.Push(func(a1, a2 interface{}) { order = append(order, 2) }, nil, nil)
		}, nil, nil)
		q.Perform()
		Expect(order).To(Equal([]int{1, 2}))
	})

	It("spans multiple blocks once capacity is exceeded", func() {
		const total = 168*3 + 17
		var n int32
		for i := 0; i < total; i++ {
			q.Push(func(a1, a2 interface{}) { atomic.AddInt32(&n, 1) }, nil, nil)
		}
		Expect(q.HasQueue()).To(BeTrue())
		q.Perform()
		Expect(n).To(Equal(int32(total)))
		Expect(q.HasQueue()).To(BeFalse())
	})

	It("drops pending tasks on Clear without running them", func() {
		var ran bool
		q.Push(func(a1, a2 interface{}) { ran = true }, nil, nil)
		q.Clear()
		q.Perform()
		Expect(ran).To(BeFalse())
		Expect(q.HasQueue()).To(BeFalse())
	})

	It("is safe for concurrent push from multiple goroutines", func() {
		const goroutines = 16
		const perGoroutine = 200
		var n int32
		var wg sync.WaitGroup
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < perGoroutine; j++ {
					q.Push(func(a1, a2 interface{}) { atomic.AddInt32(&n, 1) }, nil, nil)
				}
			}()
		}
		wg.Wait()
		q.Perform()
		Expect(n).To(Equal(int32(goroutines * perGoroutine)))
	})
})
