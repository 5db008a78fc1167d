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

package http1_test

import (
	"github.com/boazsegev/facil-go/http1"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type capture struct {
	method, path, query, version string
	headers                      map[string]string
	body                         []byte
	requests                     int
	errs                         []error
}

func newCapture() (*capture, http1.Callbacks) {
	c := &capture{headers: map[string]string{}}
	cb := http1.Callbacks{
		OnMethod:      func(m string) error { c.method = m; return nil },
		OnPath:        func(p string) error { c.path = p; return nil },
		OnQuery:       func(q string) error { c.query = q; return nil },
		OnHTTPVersion: func(v string) error { c.version = v; return nil },
		OnHeader: func(name, value string) error {
			c.headers[name] = value
			return nil
		},
		OnBodyChunk: func(b []byte) error { c.body = append(c.body, b...); return nil },
		OnRequest:   func() error { c.requests++; return nil },
		OnError:     func(err error) { c.errs = append(c.errs, err) },
	}
	return c, cb
}

var _ = Describe("Parser", func() {
	It("parses a simple GET with no body", func() {
		c, cb := newCapture()
		p := http1.New(cb, http1.Limits{})
		req := []byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")
		n, err := p.Consume(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(len(req)))
		Expect(c.method).To(Equal("GET"))
		Expect(c.path).To(Equal("/"))
		Expect(c.headers["host"]).To(Equal("x"))
		Expect(c.requests).To(Equal(1))
	})

	It("rewrites an absolute-form URI into a path and synthetic Host", func() {
		c, cb := newCapture()
		p := http1.New(cb, http1.Limits{})
		req := []byte("GET http://example.com/a/b?q=1 HTTP/1.1\r\n\r\n")
		_, err := p.Consume(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.path).To(Equal("/a/b"))
		Expect(c.query).To(Equal("q=1"))
		Expect(c.headers["host"]).To(Equal("example.com"))
	})

	Context("invariant 4: restart-equivalence", func() {
		It("yields the same callbacks whether fed whole or split mid-stream", func() {
			full := []byte("GET /p HTTP/1.1\r\nHost: x\r\nX-A: 1\r\n\r\n")

			c1, cb1 := newCapture()
			p1 := http1.New(cb1, http1.Limits{})
			_, err := p1.Consume(full)
			Expect(err).NotTo(HaveOccurred())

			c2, cb2 := newCapture()
			p2 := http1.New(cb2, http1.Limits{})
			split := len(full) / 2
			k, err := p2.Consume(full[:split])
			Expect(err).NotTo(HaveOccurred())
			Expect(k).To(BeNumerically("<=", split))
			rest := append(append([]byte{}, full[k:split]...), full[split:]...)
			_, err = p2.Consume(rest)
			Expect(err).NotTo(HaveOccurred())

			Expect(c2.method).To(Equal(c1.method))
			Expect(c2.path).To(Equal(c1.path))
			Expect(c2.headers).To(Equal(c1.headers))
			Expect(c2.requests).To(Equal(c1.requests))
		})
	})

	Context("invariant 5 / scenario 4: chunked body round-trip", func() {
		It("emits exactly the decoded chunks and fires OnRequest", func() {
			c, cb := newCapture()
			p := http1.New(cb, http1.Limits{})
			req := []byte("POST /u HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
				"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n")
			_, err := p.Consume(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(c.body)).To(Equal("hello world"))
			Expect(c.requests).To(Equal(1))
		})
	})

	Context("Transfer-Encoding header value", func() {
		It("strips the chunked token from Transfer-Encoding before OnHeader, keeping other tokens", func() {
			c, cb := newCapture()
			p := http1.New(cb, http1.Limits{})
			req := []byte("POST /u HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: gzip, chunked\r\n\r\n" +
				"5\r\nhello\r\n0\r\n\r\n")
			_, err := p.Consume(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.headers["transfer-encoding"]).To(Equal("gzip"))
		})

		It("delivers an empty Transfer-Encoding value when chunked was the only token", func() {
			c, cb := newCapture()
			p := http1.New(cb, http1.Limits{})
			req := []byte("POST /u HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
				"0\r\n\r\n")
			_, err := p.Consume(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.headers["transfer-encoding"]).To(Equal(""))
		})
	})

	Context("pipelining", func() {
		It("parses two back-to-back requests from one buffer", func() {
			c, cb := newCapture()
			p := http1.New(cb, http1.Limits{})
			req := []byte("GET /a HTTP/1.1\r\nHost: x\r\n\r\nGET /b HTTP/1.1\r\nHost: x\r\n\r\n")
			n, err := p.Consume(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(len(req)))
			Expect(c.requests).To(Equal(2))
			Expect(c.path).To(Equal("/b"))
		})
	})

	It("lowercases header names", func() {
		c, cb := newCapture()
		p := http1.New(cb, http1.Limits{})
		req := []byte("GET / HTTP/1.1\r\nX-Custom-Header: V\r\n\r\n")
		_, err := p.Consume(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.headers).To(HaveKey("x-custom-header"))
	})

	It("parses a response status line", func() {
		c, cb := newCapture()
		var gotCode int
		cb.OnStatus = func(code int, reason string) error { gotCode = code; return nil }
		cb.OnResponse = func() error { c.requests++; return nil }
		p := http1.New(cb, http1.Limits{})
		resp := []byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
		_, err := p.Consume(resp)
		Expect(err).NotTo(HaveOccurred())
		Expect(gotCode).To(Equal(200))
		Expect(c.requests).To(Equal(1))
	})
})
