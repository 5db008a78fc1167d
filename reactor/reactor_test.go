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

package reactor_test

import (
	"bufio"
	"net"
	"time"

	deferred "github.com/boazsegev/facil-go/defer"
	"github.com/boazsegev/facil-go/reactor"
	"github.com/boazsegev/facil-go/socket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// echoProtocol implements the end-to-end "echo over TCP" scenario
// (spec.md §8 scenario 1): echo the input, close on "bye".
type echoProtocol struct {
	reactor.BaseProtocol
	reg *socket.Registry
}

func (p *echoProtocol) OnData(u socket.UUID) {
	data, _ := p.reg.Consume(u)
	if len(data) == 0 {
		return
	}
	_ = p.reg.Write(u, socket.WriteRequest{Buf: data})
	if string(data) == "bye" {
		// ForceClose drops whatever is still queued, so push the echo
		// out before closing.
		_ = p.reg.Flush(u)
		p.reg.ForceClose(u)
	}
}

var _ = Describe("Reactor", func() {
	It("echoes input over TCP and closes after bye (spec scenario 1)", func() {
		q := deferred.NewQueue()
		reg := socket.NewRegistry(64, nil)
		re := reactor.New(reg, q, nil)
		reg.SetDeferFunc(func(task func(a1, a2 interface{}), a1, a2 interface{}) {
			q.Push(task, a1, a2)
		})

		go func() {
			for {
				q.Perform()
				time.Sleep(time.Millisecond)
			}
		}()

		ln, err := socket.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		re.Listen(ln, func() reactor.Protocol { return &echoProtocol{reg: reg} })
		defer re.Stop()

		conn, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		_, err = conn.Write([]byte("hi"))
		Expect(err).NotTo(HaveOccurred())

		reader := bufio.NewReader(conn)
		got := make([]byte, 2)
		_, err = reader.Read(got)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal("hi"))

		_, err = conn.Write([]byte("bye"))
		Expect(err).NotTo(HaveOccurred())

		got = make([]byte, 3)
		_, err = reader.Read(got)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal("bye"))

		buf := make([]byte, 1)
		Eventually(func() error {
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			_, err := reader.Read(buf)
			return err
		}, time.Second, 20*time.Millisecond).Should(HaveOccurred())
	})
})
