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
	"io"
	"net"
	"os"
)

// sourceKind distinguishes a packet's payload, the Go sum-type stand-in
// for the C implementation's is_fd/is_pfd/move boolean flags (spec.md §9
// design note).
type sourceKind uint8

const (
	sourceInline sourceKind = iota
	sourceOwned
	sourceFile
	sourceFileRef
)

// refCounted closes an underlying resource only once its reference count
// reaches zero — the Go analogue of the C "pointer-to-fd" (is_pfd) mode,
// where several packets may share one fd and only the last closes it.
type refCounted struct {
	n     int32
	close func()
}

func (r *refCounted) release() {
	r.n--
	if r.n <= 0 && r.close != nil {
		r.close()
	}
}

// packet is one node of a connection's outbound queue (spec.md §3).
type packet struct {
	kind sourceKind

	buf      []byte
	dealloc  func()
	file     *os.File
	offset   int64
	length   int64
	fileRef  *refCounted
	fileOnce func()

	sent int64
	next *packet
}

func (p *packet) remaining() int64 {
	switch p.kind {
	case sourceFile, sourceFileRef:
		return p.length - p.sent
	default:
		return int64(len(p.buf)) - p.sent
	}
}

func (p *packet) done() bool { return p.remaining() <= 0 }

// release frees whatever resource this packet owns exactly once, per
// spec.md §4.B's "guaranteeing the caller's resource is released exactly
// once" contract.
func (p *packet) release() {
	switch p.kind {
	case sourceOwned:
		if p.dealloc != nil {
			p.dealloc()
			p.dealloc = nil
		}
	case sourceFile:
		if p.fileOnce != nil {
			p.fileOnce()
			p.fileOnce = nil
		}
	case sourceFileRef:
		if p.fileRef != nil {
			p.fileRef.release()
			p.fileRef = nil
		}
	}
}

// writeSlice pushes one "slice" of the packet to conn through hooks,
// advancing p.sent on success. It returns the same transient/fatal error
// classification that Flush uses to decide between "yield" and
// "force_close" (spec.md §4.B Flush / §7).
func (p *packet) writeSlice(conn net.Conn, hooks Hooks, scratch []byte) (int, error) {
	switch p.kind {
	case sourceInline, sourceOwned:
		n, err := hooks.Write(conn, p.buf[p.sent:])
		if n > 0 {
			p.sent += int64(n)
		}
		return n, err
	case sourceFile, sourceFileRef:
		return p.writeFileSlice(conn, hooks, scratch)
	default:
		return 0, io.ErrClosedPipe
	}
}

// writeFileSlice implements spec.md §4.B's file-sending path: a raw
// sendfile syscall when hooks are the unintercepted default (see
// sendfileUnix in syscall_unix.go), falling back to pread into scratch
// and a hook-mediated write otherwise.
func (p *packet) writeFileSlice(conn net.Conn, hooks Hooks, scratch []byte) (int, error) {
	if isDefault(hooks) && supportsRawControl(conn) {
		n, err := sendfileUnix(conn, p.file, p.offset+p.sent, p.remaining())
		if n > 0 {
			p.sent += int64(n)
		}
		return n, err
	}

	want := p.remaining()
	if want > int64(len(scratch)) {
		want = int64(len(scratch))
	}
	if want <= 0 {
		return 0, nil
	}
	rn, rerr := p.file.ReadAt(scratch[:want], p.offset+p.sent)
	if rn <= 0 {
		if rerr == io.EOF {
			return 0, io.EOF
		}
		return 0, rerr
	}
	wn, werr := hooks.Write(conn, scratch[:rn])
	if wn > 0 {
		p.sent += int64(wn)
	}
	return wn, werr
}

// outbound is one connection's strictly-FIFO outbound packet queue, with
// a single "urgent" exception: an urgent packet is inserted at the head,
// but after the current head if it has already made progress (spec.md
// §3, §4.B).
type outbound struct {
	head *packet
	tail *packet
}

func (o *outbound) append(p *packet) {
	if o.tail == nil {
		o.head, o.tail = p, p
		return
	}
	o.tail.next = p
	o.tail = p
}

func (o *outbound) insertUrgent(p *packet) {
	if o.head == nil {
		o.head, o.tail = p, p
		return
	}
	if o.head.sent > 0 {
		p.next = o.head.next
		o.head.next = p
		if o.tail == o.head {
			o.tail = p
		}
		return
	}
	p.next = o.head
	o.head = p
}

func (o *outbound) empty() bool { return o.head == nil }

// popHeadIfDone unlinks and returns the head packet if it has finished
// sending, so its resources can be released and its slot returned to the
// pool.
func (o *outbound) popHeadIfDone() *packet {
	if o.head == nil || !o.head.done() {
		return nil
	}
	p := o.head
	o.head = p.next
	if o.head == nil {
		o.tail = nil
	}
	p.next = nil
	return p
}
