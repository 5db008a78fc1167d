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
	"errors"
	"io"
	"os"
	"syscall"
)

// WriteRequest describes one outbound payload. Exactly one of Buf,
// (File,Offset,Length) should be set; Dealloc/FileRef classify the
// ownership mode (spec.md §3's source kinds).
type WriteRequest struct {
	Buf     []byte
	Dealloc func() // non-nil ⇒ sourceOwned: Buf is caller-owned, released via Dealloc once sent
	File    *os.File
	Offset  int64
	Length  int64
	FileRef *refCounted // non-nil ⇒ sourceFileRef: shared fd, released via refcount
	Urgent  bool
}

func (r WriteRequest) toPacket(p *packet) {
	switch {
	case r.File != nil && r.FileRef != nil:
		p.kind = sourceFileRef
		p.file = r.File
		p.offset = r.Offset
		p.length = r.Length
		p.fileRef = r.FileRef
	case r.File != nil:
		p.kind = sourceFile
		p.file = r.File
		p.offset = r.Offset
		p.length = r.Length
		p.fileOnce = func() { _ = r.File.Close() }
	case r.Dealloc != nil:
		p.kind = sourceOwned
		p.buf = r.Buf
		p.dealloc = r.Dealloc
	default:
		p.kind = sourceInline
		p.buf = append([]byte(nil), r.Buf...)
	}
}

// Write implements sock_write2: validate u, obtain a packet from the
// pool (synchronously draining every connection's queue once via
// flushAll and retrying on exhaustion), classify and enqueue the
// payload under u's own lock (urgent packets jump the queue per
// spec.md §3), then schedule an asynchronous flush.
func (r *Registry) Write(u UUID, req WriteRequest) error {
	if len(req.Buf) == 0 && req.File == nil {
		return nil
	}

	s, err := r.lookup(u)
	if err != nil {
		return err
	}
	s.mu.Unlock()

	pkt := r.packets.get()
	if pkt == nil {
		r.flushAll()
		pkt = r.packets.get()
		if pkt == nil {
			return ErrQueueExhausted
		}
	}
	req.toPacket(pkt)

	s, err = r.lookup(u)
	if err != nil {
		pkt.release()
		r.packets.put(pkt)
		return err
	}
	if req.Urgent {
		s.out.insertUrgent(pkt)
	} else {
		s.out.append(pkt)
	}
	s.mu.Unlock()

	r.scheduleFlush(u)
	return nil
}

// scheduleFlush defers u's Flush onto the process-wide deferred queue,
// exactly the "defer flush(uuid)" step spec.md §4.B prescribes so a
// slow peer's backpressure never blocks the caller of Write.
func (r *Registry) scheduleFlush(u UUID) {
	if r.deferFn == nil {
		r.Flush(u)
		return
	}
	r.deferFn(func(arg1, arg2 interface{}) {
		r.Flush(u)
	}, nil, nil)
}

// SetDeferFunc installs the function used to schedule flushes
// asynchronously (normally deferred.Defer); tests may leave it nil to
// exercise Flush synchronously.
func (r *Registry) SetDeferFunc(fn func(task func(a1, a2 interface{}), a1, a2 interface{})) {
	r.deferFn = fn
}

// isTransient classifies a write error the way spec.md §7 does: EAGAIN,
// EWOULDBLOCK, EINTR, ENOTCONN, and ENOSPC mean "try again later",
// everything else is fatal and triggers force_close.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, syscall.EAGAIN),
		errors.Is(err, syscall.EWOULDBLOCK),
		errors.Is(err, syscall.EINTR),
		errors.Is(err, syscall.ENOTCONN),
		errors.Is(err, syscall.ENOSPC):
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EWOULDBLOCK, syscall.EINTR, syscall.ENOTCONN, syscall.ENOSPC:
			return true
		}
	}
	return false
}

// Flush drains u's outbound queue as far as the socket's write buffer
// allows: write the head packet's next slice, release and recycle it
// once fully sent, stop cleanly on EAGAIN, and force_close on any other
// error (spec.md §4.B Flush, §7).
func (r *Registry) Flush(u UUID) error {
	s, err := r.lookup(u)
	if err != nil {
		return err
	}

	scratch := make([]byte, 32*1024)
	for {
		if s.out.empty() {
			s.mu.Unlock()
			return nil
		}
		conn, hooks := s.conn, s.hooks
		head := s.out.head
		s.mu.Unlock()

		_, werr := head.writeSlice(conn, hooks, scratch)

		s, err = r.lookup(u)
		if err != nil {
			return err
		}

		if werr != nil {
			if isTransient(werr) {
				s.mu.Unlock()
				return nil
			}
			if werr == io.EOF {
				s.mu.Unlock()
				r.ForceClose(u)
				return werr
			}
			s.mu.Unlock()
			r.ForceClose(u)
			return werr
		}

		if done := s.out.popHeadIfDone(); done != nil {
			done.release()
			r.packets.put(done)
		}
	}
}

// HasPending reports whether u still has unsent outbound data.
func (r *Registry) HasPending(u UUID) bool {
	s, err := r.lookup(u)
	if err != nil {
		return false
	}
	defer s.mu.Unlock()
	return !s.out.empty()
}

// flushAll synchronously flushes every open connection once; it backs
// Write's pool-exhaustion retry (spec.md §4.B step 2) and is cheap
// enough to call from that path because it never blocks — each Flush
// call stops at the first EAGAIN.
func (r *Registry) flushAll() {
	r.mu.Lock()
	n := len(r.slots)
	r.mu.Unlock()

	for i := 0; i < n; i++ {
		r.mu.Lock()
		if i >= len(r.slots) {
			r.mu.Unlock()
			break
		}
		s := r.slots[i]
		r.mu.Unlock()

		s.mu.Lock()
		open := s.open
		gen := s.generation
		s.mu.Unlock()
		if !open {
			continue
		}
		_ = r.Flush(newUUID(uint32(i), gen))
	}
}
