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

package socket

import (
	"net"
	"sync"
	"time"
)

// OnClose is invoked once a connection is torn down, after its protocol
// and hooks have been notified; it is how the reactor learns to defer a
// protocol's on_close callback (spec.md §4.B force_close).
type OnClose func(u UUID)

// slot is the per-fd record of spec.md §3: everything force_close needs
// to tear down, guarded by its own lock so callbacks on one connection
// never block the registry as a whole.
type slot struct {
	mu sync.Mutex

	conn       net.Conn
	generation uint8
	open       bool

	protocol   interface{}
	lastActive time.Time
	timeout    time.Duration
	peer       string
	hooks      Hooks
	labels     map[string]string

	out   outbound
	close bool // close-after-drain flag

	inbox    []byte
	inboxErr error
}

// Registry is the per-process fd slab described in spec.md §4.B, sized
// lazily (it grows as connections register rather than being
// pre-sized to RLIMIT_NOFILE, which Go's runtime-managed netpoller makes
// unnecessary).
type Registry struct {
	mu       sync.Mutex
	slots    []*slot
	freelist []uint32
	onClose  OnClose

	packets *packetPool
	deferFn func(task func(a1, a2 interface{}), a1, a2 interface{})
}

// NewRegistry builds an empty Registry. packetSlots bounds the pool used
// by Write (spec.md §4.B step 2); 0 selects a sensible default.
func NewRegistry(packetSlots int, onClose OnClose) *Registry {
	if packetSlots <= 0 {
		packetSlots = 4096
	}
	return &Registry{onClose: onClose, packets: newPacketPool(packetSlots)}
}

// Register assigns conn a UUID, installs default hooks, and marks the
// slot open. Equivalent to the fd-side bookkeeping performed right after
// accept/connect/listen in spec.md §4.B.
func (r *Registry) Register(conn net.Conn) UUID {
	setNoDelay(conn)

	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	var s *slot
	if n := len(r.freelist); n > 0 {
		idx = r.freelist[n-1]
		r.freelist = r.freelist[:n-1]
		s = r.slots[idx]
	} else {
		idx = uint32(len(r.slots))
		s = &slot{}
		r.slots = append(r.slots, s)
	}

	s.mu.Lock()
	s.conn = conn
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	s.open = true
	s.protocol = nil
	s.lastActive = time.Now()
	s.timeout = 0
	s.hooks = DefaultHooks()
	s.out = outbound{}
	s.close = false
	s.inbox = nil
	s.inboxErr = nil
	if conn != nil {
		s.peer = conn.RemoteAddr().String()
	}
	gen := s.generation
	s.mu.Unlock()

	return newUUID(idx, gen)
}

func (r *Registry) lookup(u UUID) (*slot, error) {
	idx := u.index()
	r.mu.Lock()
	if int(idx) >= len(r.slots) {
		r.mu.Unlock()
		return nil, ErrBadUUID
	}
	s := r.slots[idx]
	r.mu.Unlock()

	s.mu.Lock()
	if !s.open || s.generation != u.generation() {
		s.mu.Unlock()
		return nil, ErrBadUUID
	}
	return s, nil // returned locked; caller must unlock
}

// Valid reports whether u currently refers to an open connection.
func (r *Registry) Valid(u UUID) bool {
	s, err := r.lookup(u)
	if err != nil {
		return false
	}
	s.mu.Unlock()
	return true
}

// Conn returns the net.Conn behind u, or nil if u is stale.
func (r *Registry) Conn(u UUID) net.Conn {
	s, err := r.lookup(u)
	if err != nil {
		return nil
	}
	defer s.mu.Unlock()
	return s.conn
}

// SetProtocol attaches p to u. Passing nil detaches (force_close does
// this before invoking callbacks, per spec.md §3's "protocol-free state
// ⇒ no callback runs" invariant).
func (r *Registry) SetProtocol(u UUID, p interface{}) error {
	s, err := r.lookup(u)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.protocol = p
	return nil
}

// Protocol returns whatever was last attached via SetProtocol.
func (r *Registry) Protocol(u UUID) (interface{}, error) {
	s, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.protocol, nil
}

// SetTimeout sets the idle-timeout used by the reactor's timeout sweep
// (spec.md §4.C). 0 disables it.
func (r *Registry) SetTimeout(u UUID, d time.Duration) error {
	s, err := r.lookup(u)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.timeout = d
	return nil
}

// SetHooks installs a read/write interception hook for u.
func (r *Registry) SetHooks(u UUID, h Hooks) error {
	s, err := r.lookup(u)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	if h == nil {
		h = DefaultHooks()
	}
	s.hooks = h
	return nil
}

// Touch records activity now, resetting the idle-timeout clock.
func (r *Registry) Touch(u UUID) {
	s, err := r.lookup(u)
	if err != nil {
		return
	}
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// SetLabel stores an opaque string used only for metrics/log correlation
// (SPEC_FULL.md's data-model expansion); it is never read by the socket
// layer itself.
func (r *Registry) SetLabel(u UUID, key, value string) {
	s, err := r.lookup(u)
	if err != nil {
		return
	}
	if s.labels == nil {
		s.labels = map[string]string{}
	}
	s.labels[key] = value
	s.mu.Unlock()
}

// Read performs one Read through u's hooks, validating the UUID first.
func (r *Registry) Read(u UUID, buf []byte) (int, error) {
	s, err := r.lookup(u)
	if err != nil {
		return 0, err
	}
	conn, hooks := s.conn, s.hooks
	s.mu.Unlock()
	n, rerr := hooks.Read(conn, buf)
	if n > 0 {
		r.Touch(u)
	}
	return n, rerr
}

// bufferInbox appends data read by the reactor's reader goroutine so a
// protocol's on_data callback can later pull it via Consume. This is
// the Go-idiomatic stand-in for the source's on_data handler calling
// sock_read itself: Go's net.Conn has no "readable without consuming"
// peek, so the reader goroutine consumes first and on_data drains the
// buffer it left behind.
func (r *Registry) bufferInbox(u UUID, data []byte, err error) {
	s, lerr := r.lookup(u)
	if lerr != nil {
		return
	}
	if len(data) > 0 {
		s.inbox = append(s.inbox, data...)
	}
	if err != nil {
		s.inboxErr = err
	}
	s.mu.Unlock()
}

// PumpOnce performs one raw Read and buffers the result for Consume,
// returning the number of bytes read and any error — the primitive the
// reactor's per-connection reader goroutine drives in a loop.
func (r *Registry) PumpOnce(u UUID, scratch []byte) (int, error) {
	n, err := r.Read(u, scratch)
	if n > 0 || err != nil {
		r.bufferInbox(u, scratch[:n], err)
	}
	return n, err
}

// Consume returns and clears everything buffered for u since the last
// Consume call, along with any read error recorded alongside it.
func (r *Registry) Consume(u UUID) ([]byte, error) {
	s, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	data := s.inbox
	s.inbox = nil
	rerr := s.inboxErr
	s.inboxErr = nil
	s.mu.Unlock()
	return data, rerr
}

// PeerAddr returns the snapshot taken at registration time.
func (r *Registry) PeerAddr(u UUID) string {
	s, err := r.lookup(u)
	if err != nil {
		return ""
	}
	defer s.mu.Unlock()
	return s.peer
}

// ForceClose tears down u: close the connection, mark the slot closed so
// u fails validation (Register bumps the slot's generation when it reuses
// the slot), run the hook's OnClose, release every still-queued packet,
// and invoke the registry's
// OnClose callback so the reactor can defer the protocol's on_close
// (spec.md §4.B).
func (r *Registry) ForceClose(u UUID) {
	s, err := r.lookup(u)
	if err != nil {
		return
	}

	conn, hooks := s.conn, s.hooks
	s.open = false
	s.protocol = nil
	pkt := s.out.head
	s.out = outbound{}
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if hooks != nil {
		hooks.OnClose(conn)
	}
	for pkt != nil {
		next := pkt.next
		pkt.release()
		r.packets.put(pkt)
		pkt = next
	}

	r.mu.Lock()
	r.freelist = append(r.freelist, u.index())
	r.mu.Unlock()

	if r.onClose != nil {
		r.onClose(u)
	}
}

// Count returns the number of currently-open connections. O(n) in the
// slab size; intended for monitoring, not the hot path.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.slots {
		s.mu.Lock()
		if s.open {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

// ForEachTimedOut calls fn(u) for every open connection whose idle
// timeout has elapsed, implementing the per-sweep-pass body of spec.md
// §4.C's timeout sweep. start/count let the reactor chunk a large slab
// across several deferred invocations instead of blocking the cycle.
func (r *Registry) ForEachTimedOut(start, count int, now time.Time, fn func(u UUID)) (next int, wrapped bool) {
	r.mu.Lock()
	total := len(r.slots)
	r.mu.Unlock()
	if total == 0 {
		return 0, true
	}

	i := start
	scanned := 0
	for scanned < count {
		r.mu.Lock()
		if i >= len(r.slots) {
			r.mu.Unlock()
			i = 0
			wrapped = true
			if total == 0 {
				break
			}
			continue
		}
		s := r.slots[i]
		r.mu.Unlock()

		s.mu.Lock()
		if s.open && s.timeout > 0 && now.Sub(s.lastActive) >= s.timeout {
			gen := s.generation
			idx := uint32(i)
			s.mu.Unlock()
			fn(newUUID(idx, gen))
		} else {
			s.mu.Unlock()
		}

		i++
		scanned++
		if i >= total {
			i = 0
			wrapped = true
		}
	}
	return i, wrapped
}
