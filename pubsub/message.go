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

package pubsub

import "sync"

// Message is the refcounted delivery wrapper of spec.md §4.F. Publish
// builds a separate instance for each matching subscriber: the instances
// of one publish carry the same Channel, Data and TraceID, but no single
// instance is shared between subscribers. TraceID (stamped once at
// Publish) survives every pubsub_defer re-delivery for log correlation
// (SPEC_FULL.md §3's data-model addition).
type Message struct {
	Channel string
	Pattern bool
	Data    []byte
	TraceID string

	mu        sync.Mutex
	refcount  int32
	redeliver func()
}

// Defer reschedules this exact delivery to the same subscriber, the
// `pubsub_defer(msg)` primitive of spec.md §4.F's "Message defer": useful
// when a subscriber's on_message finds its downstream busy and wants the
// same message handed back later instead of dropped.
func (m *Message) Defer() {
	m.mu.Lock()
	fn := m.redeliver
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
