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

// packetPool is the bounded, reusable packet-node pool spec.md §4.B
// calls for in Write/sock_write2: "grab a packet from a pool of size N;
// if the pool is empty, call flush_all() and retry" — mirroring the
// static-block reuse strategy the deferred-task queue already applies.
type packetPool struct {
	ch chan *packet
}

func newPacketPool(n int) *packetPool {
	p := &packetPool{ch: make(chan *packet, n)}
	for i := 0; i < n; i++ {
		p.ch <- &packet{}
	}
	return p
}

// get returns a free packet, or nil if the pool is currently exhausted.
func (p *packetPool) get() *packet {
	select {
	case pkt := <-p.ch:
		return pkt
	default:
		return nil
	}
}

// put resets and returns pkt to the pool. A pool that is unexpectedly
// full (more puts than the original capacity) silently drops pkt rather
// than blocking or panicking.
func (p *packetPool) put(pkt *packet) {
	*pkt = packet{}
	select {
	case p.ch <- pkt:
	default:
	}
}

// size reports the pool's total capacity.
func (p *packetPool) size() int { return cap(p.ch) }
