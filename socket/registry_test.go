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

package socket_test

import (
	"context"
	"net"
	"time"

	sock "github.com/boazsegev/facil-go/socket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var (
		reg        *sock.Registry
		client     net.Conn
		serverConn net.Conn
		closed     []sock.UUID
	)

	BeforeEach(func() {
		closed = nil
		reg = sock.NewRegistry(8, func(u sock.UUID) {
			closed = append(closed, u)
		})
		client, serverConn = net.Pipe()
	})

	AfterEach(func() {
		_ = client.Close()
		_ = serverConn.Close()
	})

	It("registers a connection and validates its UUID", func() {
		u := reg.Register(serverConn)
		Expect(u).NotTo(Equal(sock.Invalid))
		Expect(reg.Valid(u)).To(BeTrue())
	})

	It("rejects an out-of-range UUID", func() {
		Expect(reg.Valid(sock.UUID(999999))).To(BeFalse())
	})

	Context("invariant: after ForceClose, the UUID is permanently stale", func() {
		It("fails every subsequent operation on that UUID", func() {
			u := reg.Register(serverConn)
			reg.ForceClose(u)

			Expect(reg.Valid(u)).To(BeFalse())
			Expect(reg.Conn(u)).To(BeNil())

			_, err := reg.Protocol(u)
			Expect(err).To(Equal(sock.ErrBadUUID))

			err = reg.Write(u, sock.WriteRequest{Buf: []byte("x")})
			Expect(err).To(Equal(sock.ErrBadUUID))

			err = reg.Flush(u)
			Expect(err).To(Equal(sock.ErrBadUUID))

			Expect(closed).To(ContainElement(u))
		})

		It("never reuses the UUID for the next connection on the same slot", func() {
			u1 := reg.Register(serverConn)
			reg.ForceClose(u1)

			c2, s2 := net.Pipe()
			defer c2.Close()
			defer s2.Close()

			u2 := reg.Register(s2)
			Expect(u2).NotTo(Equal(u1))
			Expect(reg.Valid(u1)).To(BeFalse())
			Expect(reg.Valid(u2)).To(BeTrue())
		})
	})

	Context("Write/Flush round trip", func() {
		It("delivers an inline buffer to the peer", func() {
			u := reg.Register(serverConn)
			reg.SetDeferFunc(nil) // synchronous flush for this test

			done := make(chan []byte, 1)
			go func() {
				buf := make([]byte, 5)
				n, _ := client.Read(buf)
				done <- buf[:n]
			}()

			Expect(reg.Write(u, sock.WriteRequest{Buf: []byte("hello")})).To(Succeed())

			Eventually(done).Should(Receive(Equal([]byte("hello"))))
		})

		It("rejects writes on an invalid UUID without panicking", func() {
			err := reg.Write(sock.Invalid, sock.WriteRequest{Buf: []byte("x")})
			Expect(err).To(Equal(sock.ErrBadUUID))
		})
	})

	Context("Connect", func() {
		It("fails cleanly against a closed port", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			_, err := reg.Connect(ctx, "tcp", "127.0.0.1:1")
			Expect(err).To(HaveOccurred())
		})
	})
})
