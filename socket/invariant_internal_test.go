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
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// stallAfterOneByte is a Hooks implementation for white-box testing: it
// writes at most one real byte through the underlying conn, then always
// reports syscall.EAGAIN, simulating a peer whose receive buffer is
// permanently full after the first byte.
type stallAfterOneByte struct{}

func (stallAfterOneByte) Read(conn net.Conn, buf []byte) (int, error) { return conn.Read(buf) }

func (stallAfterOneByte) Write(conn net.Conn, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := conn.Write(buf[:1])
	if err != nil {
		return n, err
	}
	return n, syscall.EAGAIN
}

func (stallAfterOneByte) Flush(net.Conn) error { return nil }
func (stallAfterOneByte) OnClose(net.Conn)     {}

var _ = Describe("outbound queue invariant", func() {
	It("keeps sent > 0 on at most the head packet", func() {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()

		go func() {
			buf := make([]byte, 1)
			for {
				if _, err := client.Read(buf); err != nil {
					return
				}
			}
		}()

		reg := NewRegistry(4, nil)
		u := reg.Register(server)
		Expect(reg.SetHooks(u, stallAfterOneByte{})).To(Succeed())

		Expect(reg.Write(u, WriteRequest{Buf: []byte("abcd")})).To(Succeed())
		Expect(reg.Write(u, WriteRequest{Buf: []byte("efgh")})).To(Succeed())

		s, err := reg.lookup(u)
		Expect(err).NotTo(HaveOccurred())
		nonZero := 0
		for p := s.out.head; p != nil; p = p.next {
			if p.sent > 0 {
				nonZero++
			}
		}
		s.mu.Unlock()

		Expect(nonZero).To(Equal(1))
	})
})
