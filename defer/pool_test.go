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
	"sync/atomic"
	"time"

	. "github.com/boazsegev/facil-go/defer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"
)

var _ = Describe("Pool", func() {
	It("returns nil for a zero worker count", func() {
		q := NewQueue()
		Expect(StartPool(q, 0, Strategy{})).To(BeNil())
	})

	It("drains tasks pushed after the pool has started", func() {
		q := NewQueue()
		p := StartPool(q, 4, Strategy{})
		defer func() { p.Stop(); p.Wait() }()

		var n int32
		for i := 0; i < 1000; i++ {
			q.Push(func(a1, a2 interface{}) { atomic.AddInt32(&n, 1) }, nil, nil)
		}

		Eventually(func() int32 { return atomic.LoadInt32(&n) }, time.Second).Should(Equal(int32(1000)))
	})

	It("stops and Wait returns once signaled", func() {
		q := NewQueue()
		p := StartPool(q, 2, Strategy{})
		Expect(p.IsActive()).To(BeTrue())
		p.Stop()
		p.Wait()
		Expect(p.IsActive()).To(BeFalse())
	})

	It("honors a custom strategy's spawn and throttle hooks", func() {
		q := NewQueue()
		var spawned, throttled int32
		strategy := Strategy{
			Spawn: func(g *errgroup.Group, run func() error) {
				atomic.AddInt32(&spawned, 1)
				g.Go(run)
			},
			Throttle: func(workerCount int) {
				atomic.AddInt32(&throttled, 1)
				time.Sleep(time.Millisecond)
			},
		}
		p := StartPool(q, 3, strategy)
		Eventually(func() int32 { return atomic.LoadInt32(&throttled) }, time.Second).Should(BeNumerically(">", 0))
		p.Stop()
		p.Wait()
		Expect(spawned).To(Equal(int32(3)))
	})
})
