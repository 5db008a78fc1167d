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

// Package httpresp implements the HTTP/1.1 response writer of
// spec.md §4.H: status line, header assembly, cookies, a sendfile-aware
// body path, range handling, ETag, and access logging.
package httpresp

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/boazsegev/facil-go/logger"
	"github.com/boazsegev/facil-go/socket"
)

type headerKV struct{ name, value string }

// Writer assembles and sends one HTTP/1.1 response over a socket
// registry connection.
type Writer struct {
	reg *socket.Registry
	u   socket.UUID
	log logger.Logger

	method, path, proto, remoteAddr string
	start                           time.Time

	status  int
	headers []headerKV
	hasCL   bool
	hasConn bool
	cookies []Cookie

	headerSent bool
	chunked    bool
}

// NewWriter builds a Writer for one response on u. method/path/proto/
// remoteAddr feed the access log line (spec.md §4.H); log may be nil to
// skip access logging.
func NewWriter(reg *socket.Registry, u socket.UUID, method, path, proto, remoteAddr string, log logger.Logger) *Writer {
	return &Writer{
		reg: reg, u: u, log: log,
		method: method, path: path, proto: proto, remoteAddr: remoteAddr,
		start:  time.Now(),
		status: http.StatusOK,
	}
}

// SetStatus sets the response status code (default 200).
func (w *Writer) SetStatus(code int) { w.status = code }

// SetHeader appends a header; it does not deduplicate, matching how
// repeated headers (e.g. Set-Cookie, Vary) are meant to be written.
func (w *Writer) SetHeader(name, value string) {
	lname := strings.ToLower(name)
	switch lname {
	case "content-length":
		w.hasCL = true
	case "connection":
		w.hasConn = true
	}
	w.headers = append(w.headers, headerKV{name: name, value: value})
}

// AddCookie validates and queues a Set-Cookie header.
func (w *Writer) AddCookie(c Cookie) error {
	if err := c.validate(); err != nil {
		return err
	}
	w.cookies = append(w.cookies, c)
	return nil
}

func (w *Writer) writeHead(contentLength int64, extra ...headerKV) error {
	if w.headerSent {
		return errHeadersWritten
	}
	w.headerSent = true

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s\r\n", firstNonEmpty(w.proto, "HTTP/1.1"), w.status, http.StatusText(w.status))
	fmt.Fprintf(&b, "Date: %s\r\n", cachedDate())

	for _, h := range w.headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h.name, h.value)
	}
	for _, h := range extra {
		fmt.Fprintf(&b, "%s: %s\r\n", h.name, h.value)
	}
	if !w.hasCL && contentLength >= 0 {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", contentLength)
	}
	if !w.hasConn {
		b.WriteString("Connection: keep-alive\r\n")
	}
	for _, c := range w.cookies {
		fmt.Fprintf(&b, "Set-Cookie: %s\r\n", c.String())
	}
	b.WriteString("\r\n")

	err := w.reg.Write(w.u, socket.WriteRequest{Buf: []byte(b.String())})
	return err
}

// Send writes a complete response body of a known length in one shot
// (spec.md §4.H's common case: "Content-Length emitted automatically
// unless the user wrote it").
func (w *Writer) Send(body []byte) error {
	if err := w.writeHead(int64(len(body))); err != nil {
		return err
	}
	if len(body) > 0 {
		if err := w.reg.Write(w.u, socket.WriteRequest{Buf: body}); err != nil {
			return err
		}
	}
	w.logAccess(int64(len(body)))
	return nil
}

// SendFile serves the body from file, honoring Range and If-None-Match
// the way spec.md §4.H describes. size/mtime describe file; rangeHeader
// and ifNoneMatch are the request's raw header values (empty if absent).
func (w *Writer) SendFile(file *os.File, size int64, mtime time.Time, rangeHeader, ifNoneMatch string) error {
	tag := ComputeETag(size, mtime.UnixNano())
	w.SetHeader("ETag", tag)
	w.SetHeader("Last-Modified", FormatTime(mtime))

	if ifNoneMatch != "" && ifNoneMatch == tag {
		w.status = http.StatusNotModified
		_ = file.Close()
		return w.writeHead(0)
	}

	if rangeHeader != "" {
		if rng, ok := parseRange(rangeHeader, size); ok {
			w.status = http.StatusPartialContent
			extra := []headerKV{
				{"Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.start, rng.end, size)},
				{"Accept-Ranges", "bytes"},
			}
			length := rng.end - rng.start + 1
			if err := w.writeHead(length, extra...); err != nil {
				_ = file.Close()
				return err
			}
			err := w.reg.Write(w.u, socket.WriteRequest{
				File: file, Offset: rng.start, Length: length,
			})
			w.logAccess(length)
			return err
		}
	}

	w.SetHeader("Accept-Ranges", "bytes")
	if err := w.writeHead(size); err != nil {
		_ = file.Close()
		return err
	}
	err := w.reg.Write(w.u, socket.WriteRequest{File: file, Offset: 0, Length: size})
	w.logAccess(size)
	return err
}

// BeginChunked starts a chunked-transfer response (the SPEC_FULL
// response-writer extension grounded on the source's chunked *request*
// decoding logic, mirrored for the write side). Use WriteChunk/Close to
// stream the body.
func (w *Writer) BeginChunked() error {
	w.chunked = true
	w.hasCL = true // never emit Content-Length for a chunked response
	return w.writeHead(-1, headerKV{"Transfer-Encoding", "chunked"})
}

// WriteChunk writes one chunk of a chunked response body.
func (w *Writer) WriteChunk(data []byte) error {
	if !w.chunked {
		return errHeadersWritten
	}
	if len(data) == 0 {
		return nil
	}
	frame := []byte(strconv.FormatInt(int64(len(data)), 16) + "\r\n")
	frame = append(frame, data...)
	frame = append(frame, "\r\n"...)
	return w.reg.Write(w.u, socket.WriteRequest{Buf: frame})
}

// Close finalizes a chunked response with the terminating zero-chunk.
func (w *Writer) Close() error {
	if !w.chunked {
		return nil
	}
	err := w.reg.Write(w.u, socket.WriteRequest{Buf: []byte("0\r\n\r\n")})
	w.logAccess(0)
	return err
}

func (w *Writer) logAccess(size int64) {
	if w.log == nil {
		return
	}
	w.log.Access(w.remoteAddr, "", w.start, time.Since(w.start), w.method, w.path, w.proto, w.status, size)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
