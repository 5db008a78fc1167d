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

package pubsub_test

import (
	"sync"

	deferred "github.com/boazsegev/facil-go/defer"
	"github.com/boazsegev/facil-go/pubsub"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Hub", func() {
	var (
		q *deferred.Queue
		h *pubsub.Hub
	)

	BeforeEach(func() {
		q = deferred.NewQueue()
		h = pubsub.New(q)
	})

	It("delivers a literal publish to its subscriber", func() {
		var mu sync.Mutex
		var got []byte
		onMsg := func(m *pubsub.Message) {
			mu.Lock()
			got = m.Data
			mu.Unlock()
		}

		h.Subscribe("news", false, onMsg, nil, nil, nil)
		Expect(h.Publish(pubsub.EngineProcess, "news", []byte("hello"))).To(Succeed())
		q.Perform()

		mu.Lock()
		defer mu.Unlock()
		Expect(got).To(Equal([]byte("hello")))
	})

	It("delivers to a matching pattern subscription", func() {
		var count int
		var mu sync.Mutex
		onMsg := func(m *pubsub.Message) {
			mu.Lock()
			count++
			mu.Unlock()
		}

		h.Subscribe("news.*", true, onMsg, nil, nil, nil)
		Expect(h.Publish(pubsub.EngineProcess, "news.sports", []byte("x"))).To(Succeed())
		Expect(h.Publish(pubsub.EngineProcess, "weather.today", []byte("x"))).To(Succeed())
		q.Perform()

		mu.Lock()
		defer mu.Unlock()
		Expect(count).To(Equal(1))
	})

	It("dedups identical (on_message, on_unsubscribe, udata) subscriptions into one client with sub_count 2", func() {
		onMsg := func(m *pubsub.Message) {}
		var fired int
		var mu sync.Mutex
		onUnsub := func(u1, u2 interface{}) {
			mu.Lock()
			fired++
			mu.Unlock()
		}

		h.Subscribe("news", false, onMsg, onUnsub, "a", "b")
		h.Subscribe("news", false, onMsg, onUnsub, "a", "b")

		// unsubscribing once must not yet fire on_unsubscribe, since
		// sub_count is 2.
		h.Unsubscribe("news", false, onMsg, onUnsub, "a", "b")
		q.Perform()
		mu.Lock()
		Expect(fired).To(Equal(0))
		mu.Unlock()
	})

	It("fires on_unsubscribe once sub_count reaches zero", func() {
		onMsg := func(m *pubsub.Message) {}
		var fired int
		var mu sync.Mutex
		onUnsub := func(u1, u2 interface{}) {
			mu.Lock()
			fired++
			mu.Unlock()
		}

		h.Subscribe("news", false, onMsg, onUnsub, "x", "y")
		h.Unsubscribe("news", false, onMsg, onUnsub, "x", "y")
		q.Perform()

		mu.Lock()
		defer mu.Unlock()
		Expect(fired).To(Equal(1))
	})

	It("redelivers a message that calls Defer", func() {
		var calls int
		var mu sync.Mutex
		onMsg := func(m *pubsub.Message) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				m.Defer()
			}
		}

		h.Subscribe("news", false, onMsg, nil, nil, nil)
		Expect(h.Publish(pubsub.EngineProcess, "news", []byte("x"))).To(Succeed())
		q.Perform() // first delivery calls Defer; the re-pushed delivery runs in this same pass
		q.Perform() // queue already empty: no third delivery

		mu.Lock()
		defer mu.Unlock()
		Expect(calls).To(Equal(2))
	})

	It("does not deliver locally for EngineSiblings with no engine wired", func() {
		var calls int
		var mu sync.Mutex
		onMsg := func(m *pubsub.Message) {
			mu.Lock()
			calls++
			mu.Unlock()
		}
		h.Subscribe("news", false, onMsg, nil, nil, nil)
		Expect(h.Publish(pubsub.EngineSiblings, "news", []byte("x"))).To(Succeed())
		q.Perform()

		mu.Lock()
		defer mu.Unlock()
		Expect(calls).To(Equal(0))
	})
})
