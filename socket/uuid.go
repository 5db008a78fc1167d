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

// Package socket implements facil-go's socket layer (spec.md §4.B): a
// UUID-validated connection registry, an outbound packet queue that
// accepts heterogeneous sources (inline memory, owned memory, files), and
// pluggable read/write hooks.
//
// A UUID here is not a kernel file descriptor: it is a slab index plus a
// generation counter, exactly the shape spec.md §3 asks for ("a dense
// slab indexed by fd with a generation-counted handle type"), but the
// slab holds a net.Conn rather than a raw fd number so the registry is
// portable across platforms without calling into the kernel for fd
// bookkeeping itself (the kernel fd underlying a net.Conn is still used,
// via golang.org/x/sys/unix, for TCP_NODELAY and sendfile — see
// syscall_unix.go).
package socket

import "fmt"

const (
	generationBits = 8
	generationMask = (1 << generationBits) - 1
)

// UUID is a 64-bit (index, generation) handle, predictable and
// process-local only — it must never be exposed to a remote peer
// (spec.md §3).
type UUID uint64

func newUUID(index uint32, generation uint8) UUID {
	return UUID(uint64(index)<<generationBits | uint64(generation))
}

func (u UUID) index() uint32 {
	return uint32(uint64(u) >> generationBits)
}

func (u UUID) generation() uint8 {
	return uint8(uint64(u) & generationMask)
}

// Invalid is the zero UUID; no registered connection ever receives it,
// since index 0's first generation is 1 (see Registry.Register).
const Invalid UUID = 0

// String renders the UUID for logs; it intentionally does not try to
// look like an address, to discourage treating it as anything but an
// opaque local handle.
func (u UUID) String() string {
	return fmt.Sprintf("uuid:%d.%d", u.index(), u.generation())
}
