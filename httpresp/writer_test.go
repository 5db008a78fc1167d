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

package httpresp_test

import (
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/boazsegev/facil-go/httpresp"
	"github.com/boazsegev/facil-go/socket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func readAll(client net.Conn, done chan<- string) {
	buf, _ := io.ReadAll(client)
	done <- string(buf)
}

var _ = Describe("Writer", func() {
	var (
		reg        *socket.Registry
		u          socket.UUID
		client     net.Conn
		serverConn net.Conn
	)

	BeforeEach(func() {
		reg = socket.NewRegistry(8, nil)
		reg.SetDeferFunc(nil)
		client, serverConn = net.Pipe()
		u = reg.Register(serverConn)
	})

	It("sends a full response with an automatic Content-Length (spec scenario 2)", func() {
		w := httpresp.NewWriter(reg, u, "GET", "/", "HTTP/1.1", "127.0.0.1:1234", nil)
		w.SetHeader("Content-Type", "text/plain")

		done := make(chan string, 1)
		go readAll(client, done)

		Expect(w.Send([]byte("Hello World!"))).To(Succeed())
		reg.ForceClose(u)

		out := <-done
		Expect(out).To(ContainSubstring("HTTP/1.1 200 OK\r\n"))
		Expect(out).To(ContainSubstring("Content-Length: 12\r\n"))
		Expect(out).To(ContainSubstring("Content-Type: text/plain\r\n"))
		Expect(out).To(ContainSubstring("Connection: keep-alive\r\n"))
		Expect(out).To(HaveSuffix("Hello World!"))
	})

	It("serves a byte range with 206 Partial Content (spec scenario 3)", func() {
		f, err := os.CreateTemp("", "httpresp-range-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.Remove(f.Name())
		body := strings.Repeat("x", 1000)
		_, err = f.WriteString(body)
		Expect(err).NotTo(HaveOccurred())
		info, err := f.Stat()
		Expect(err).NotTo(HaveOccurred())
		_, err = f.Seek(0, 0)
		Expect(err).NotTo(HaveOccurred())

		w := httpresp.NewWriter(reg, u, "GET", "/f", "HTTP/1.1", "127.0.0.1:1234", nil)

		done := make(chan string, 1)
		go readAll(client, done)

		Expect(w.SendFile(f, info.Size(), info.ModTime(), "bytes=100-199", "")).To(Succeed())
		reg.ForceClose(u)

		out := <-done
		Expect(out).To(ContainSubstring("206 Partial Content"))
		Expect(out).To(ContainSubstring("Content-Range: bytes 100-199/1000\r\n"))
		Expect(out).To(ContainSubstring("Content-Length: 100\r\n"))
		Expect(out).To(HaveSuffix(strings.Repeat("x", 100)))
	})

	It("replies 304 when If-None-Match matches the computed ETag", func() {
		f, err := os.CreateTemp("", "httpresp-etag-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.Remove(f.Name())
		_, err = f.WriteString("abc")
		Expect(err).NotTo(HaveOccurred())
		info, err := f.Stat()
		Expect(err).NotTo(HaveOccurred())
		_, err = f.Seek(0, 0)
		Expect(err).NotTo(HaveOccurred())

		tag := httpresp.ComputeETag(info.Size(), info.ModTime().UnixNano())

		w := httpresp.NewWriter(reg, u, "GET", "/f", "HTTP/1.1", "127.0.0.1:1234", nil)
		done := make(chan string, 1)
		go readAll(client, done)

		Expect(w.SendFile(f, info.Size(), info.ModTime(), "", tag)).To(Succeed())
		reg.ForceClose(u)

		out := <-done
		Expect(out).To(ContainSubstring("304 Not Modified"))
	})

	It("streams a chunked response terminated by a zero-length chunk", func() {
		w := httpresp.NewWriter(reg, u, "GET", "/s", "HTTP/1.1", "127.0.0.1:1234", nil)
		done := make(chan string, 1)
		go readAll(client, done)

		Expect(w.BeginChunked()).To(Succeed())
		Expect(w.WriteChunk([]byte("hello"))).To(Succeed())
		Expect(w.WriteChunk([]byte(" world"))).To(Succeed())
		Expect(w.Close()).To(Succeed())
		reg.ForceClose(u)

		out := <-done
		Expect(out).To(ContainSubstring("Transfer-Encoding: chunked\r\n"))
		Expect(out).To(ContainSubstring("5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"))
	})

	It("rejects a cookie value containing a semicolon", func() {
		Expect(httpresp.Cookie{Name: "a", Value: "b;c"}.String()).NotTo(BeEmpty()) // String never validates
		w := httpresp.NewWriter(reg, u, "GET", "/", "HTTP/1.1", "127.0.0.1:1234", nil)
		err := w.AddCookie(httpresp.Cookie{Name: "a", Value: "b;c"})
		Expect(err).To(HaveOccurred())
	})

	AfterEach(func() {
		_ = client.Close()
		_ = serverConn.Close()
	})
})

var _ = Describe("cached date", func() {
	It("formats as RFC 7231 IMF-fixdate and round-trips", func() {
		t, err := httpresp.ParseTime(httpresp.FormatTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Year()).To(Equal(2024))
	})
})
