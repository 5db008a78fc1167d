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

// Package pubsub implements the channel/pattern publish-subscribe layer
// of spec.md §4.F on top of the deferred-task engine: subscription
// dedup by callback identity, a recursion-free glob matcher for pattern
// channels, refcounted message delivery with explicit re-delivery, and
// an Engine abstraction for routing a publish to the local process, the
// whole cluster, siblings only, or an external service.
package pubsub

import (
	"sync"
	"sync/atomic"

	deferred "github.com/boazsegev/facil-go/defer"
	uuidgen "github.com/hashicorp/go-uuid"
)

// channel is one literal or pattern subscription target.
type channel struct {
	name    string
	pattern bool
	clients map[*client]struct{}
}

// Hub is the process-wide pub/sub registry. It is created once at
// "pre-start" and shared by every connection's subscribe/publish calls
// (spec.md §4.F "Lifecycle").
type Hub struct {
	queue *deferred.Queue

	mu       sync.Mutex
	literal  map[string]*channel
	patterns map[string]*channel
	clients  map[clientKey]*client

	engines map[EngineKind]Engine
}

// New builds an empty Hub that defers delivery onto q.
func New(q *deferred.Queue) *Hub {
	return &Hub{
		queue:    q,
		literal:  map[string]*channel{},
		patterns: map[string]*channel{},
		clients:  map[clientKey]*client{},
		engines:  map[EngineKind]Engine{},
	}
}

// SetEngine wires an Engine to forward publishes of a non-process kind
// (EngineCluster, EngineSiblings, EngineNATS) and channel lifecycle
// notifications. Passing nil clears it.
func (h *Hub) SetEngine(kind EngineKind, e Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e == nil {
		delete(h.engines, kind)
		return
	}
	h.engines[kind] = e
}

func (h *Hub) push(fn func()) {
	h.queue.Push(func(a1, a2 interface{}) { fn() }, nil, nil)
}

// Subscribe implements spec.md §4.F's subscribe: dedup by
// (on_message, on_unsubscribe, udata1, udata2) identity, incrementing an
// existing client's sub_count rather than registering twice; a newly
// created channel notifies every registered engine.
func (h *Hub) Subscribe(name string, pattern bool, onMessage OnMessage, onUnsubscribe OnUnsubscribe, udata1, udata2 interface{}) {
	key := newClientKey(onMessage, onUnsubscribe, udata1, udata2)

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[key]
	if !ok {
		c = &client{key: key, onMessage: onMessage, onUnsubscribe: onUnsubscribe, udata1: udata1, udata2: udata2}
		h.clients[key] = c
	}
	atomic.AddInt32(&c.subCount, 1)

	reg := h.literal
	if pattern {
		reg = h.patterns
	}
	ch, ok := reg[name]
	if !ok {
		ch = &channel{name: name, pattern: pattern, clients: map[*client]struct{}{}}
		reg[name] = ch
		for _, e := range h.engines {
			e.ChannelCreate(name, pattern)
		}
	}
	ch.clients[c] = struct{}{}
}

// Unsubscribe implements spec.md §4.F's unsubscribe: decrement sub_count,
// drop the client from the channel at zero, remove an emptied channel
// and notify engines, and defer on_unsubscribe.
func (h *Hub) Unsubscribe(name string, pattern bool, onMessage OnMessage, onUnsubscribe OnUnsubscribe, udata1, udata2 interface{}) {
	key := newClientKey(onMessage, onUnsubscribe, udata1, udata2)

	h.mu.Lock()
	c, ok := h.clients[key]
	if !ok {
		h.mu.Unlock()
		return
	}

	reg := h.literal
	if pattern {
		reg = h.patterns
	}
	ch := reg[name]
	if ch != nil {
		delete(ch.clients, c)
	}

	remaining := atomic.AddInt32(&c.subCount, -1)
	if remaining <= 0 {
		delete(h.clients, key)
	}

	channelEmpty := ch != nil && len(ch.clients) == 0
	if channelEmpty {
		delete(reg, name)
	}
	engines := make([]Engine, 0, len(h.engines))
	for _, e := range h.engines {
		engines = append(engines, e)
	}
	h.mu.Unlock()

	if channelEmpty {
		for _, e := range engines {
			e.ChannelDestroy(name, pattern)
		}
	}
	if remaining <= 0 && c.onUnsubscribe != nil {
		h.push(func() { c.onUnsubscribe(c.udata1, c.udata2) })
	}
}

// Publish implements spec.md §4.F's publish: the process-local engine
// delivers to the literal channel plus every matching pattern; the
// cluster engine additionally forwards to the bus; the siblings engine
// forwards without local delivery.
func (h *Hub) Publish(kind EngineKind, channelName string, data []byte) error {
	traceID, _ := uuidgen.GenerateUUID()

	if kind != EngineProcess {
		h.mu.Lock()
		e := h.engines[kind]
		h.mu.Unlock()
		if e != nil {
			if err := e.Forward(channelName, false, data); err != nil {
				return err
			}
		}
		if kind == EngineSiblings {
			return nil
		}
	}

	h.mu.Lock()
	targets := make([]*client, 0, 8)
	if ch, ok := h.literal[channelName]; ok {
		for c := range ch.clients {
			targets = append(targets, c)
		}
	}
	for pat, ch := range h.patterns {
		if matchGlob(pat, channelName) {
			for c := range ch.clients {
				targets = append(targets, c)
			}
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		h.deliver(c, &Message{Channel: channelName, Data: data, TraceID: traceID})
	}
	return nil
}

// deliver schedules one delivery of m to c, wiring m.redeliver so the
// subscriber's callback may call Message.Defer to reschedule the exact
// same delivery (spec.md §4.F "Message defer").
func (h *Hub) deliver(c *client, m *Message) {
	atomic.AddInt32(&m.refcount, 1)
	atomic.AddInt32(&c.inflight, 1)
	h.push(func() {
		defer func() {
			atomic.AddInt32(&m.refcount, -1)
			atomic.AddInt32(&c.inflight, -1)
		}()
		m.mu.Lock()
		m.redeliver = func() { h.deliver(c, m) }
		m.mu.Unlock()
		c.onMessage(m)
	})
}
