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

package cluster

import (
	"github.com/boazsegev/facil-go/reactor"
	"github.com/boazsegev/facil-go/socket"
)

// clusterProtocol is the reactor.Protocol bound to every bus connection
// (the root's accepted children and the worker's one root connection).
// It accumulates raw bytes per UUID and decodes as many complete frames
// as are available each time on_data fires, mirroring http1.Parser's
// restartable-consume contract over a length-prefixed instead of a
// textual wire format.
type clusterProtocol struct {
	reactor.BaseProtocol
	bus *Bus
}

func (p *clusterProtocol) OnData(u socket.UUID) {
	data, _ := p.bus.reg.Consume(u)
	if len(data) == 0 {
		return
	}
	p.bus.recvMu.Lock()
	p.bus.recvBuf[u] = append(p.bus.recvBuf[u], data...)
	p.bus.recvMu.Unlock()
	p.bus.drain(u)
}

func (p *clusterProtocol) OnClose(u socket.UUID) {
	b := p.bus
	b.recvMu.Lock()
	delete(b.recvBuf, u)
	b.recvMu.Unlock()

	if b.rl == roleRoot {
		b.mu.Lock()
		delete(b.children, u)
		b.mu.Unlock()
		if b.OnChildLost != nil {
			b.OnChildLost(u)
		}
		return
	}
	if b.OnShutdown != nil {
		b.OnShutdown()
	}
}

// drain decodes and dispatches every complete frame currently buffered
// for u, leaving any trailing partial frame in place for the next
// OnData call (spec.md §4.E's framing is a byte stream, not
// message-boundary-preserving, so the same restart discipline as http1
// applies here).
func (b *Bus) drain(u socket.UUID) {
	for {
		b.recvMu.Lock()
		buf := b.recvBuf[u]
		frame, n, ok, err := decodeFrame(buf)
		if err != nil {
			b.recvBuf[u] = nil
			b.recvMu.Unlock()
			b.logWarn("cluster: malformed frame, closing connection", err)
			b.reg.ForceClose(u)
			return
		}
		if !ok {
			b.recvMu.Unlock()
			return
		}
		rest := append([]byte(nil), buf[n:]...)
		b.recvBuf[u] = rest
		b.recvMu.Unlock()

		b.handleFrame(u, frame)
	}
}

func (b *Bus) handleFrame(u socket.UUID, f Frame) {
	switch f.Type {
	case FrameShutdown:
		if b.OnShutdown != nil {
			b.OnShutdown()
		}
	case FramePing:
		// keep-alive only; no payload dispatch.
	default:
		b.dispatchLocal(f.Channel, f.Data, f.Filter)
		if b.rl == roleRoot {
			b.rebroadcast(u, f)
		}
	}
}
