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

// Package httpserver wires the HTTP/1.1 parser (http1) and response
// writer (httpresp) onto one reactor.Protocol per connection, the
// "listener protocol" spec.md §2 assigns to component D: attach a
// protocol to every accepted UUID, let http1.Parser's restartable
// Consume drive pipelined requests off the same connection, and hand
// each completed request to a user Handler holding an httpresp.Writer.
package httpserver

import (
	"sync"

	"github.com/boazsegev/facil-go/http1"
	"github.com/boazsegev/facil-go/httpresp"
	"github.com/boazsegev/facil-go/logger"
	loglvl "github.com/boazsegev/facil-go/logger/level"
	"github.com/boazsegev/facil-go/reactor"
	"github.com/boazsegev/facil-go/socket"
)

// Request is one fully-parsed HTTP/1.1 request, assembled from
// http1.Callbacks as they fire.
type Request struct {
	Method, Path, Query, Proto string
	Headers                    map[string][]string
	Body                       []byte
}

// Header returns the first value for name (case-insensitive), or "".
func (r *Request) Header(name string) string {
	for _, v := range r.Headers[lower(name)] {
		return v
	}
	return ""
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Handler answers one Request on w. Handlers that want to stream a
// chunked body call w.BeginChunked/WriteChunk/Close themselves instead
// of w.Send.
type Handler func(w *httpresp.Writer, req *Request)

// Server binds a Handler to every connection the reactor accepts.
type Server struct {
	Reg     *socket.Registry
	React   *reactor.Reactor
	Log     logger.Logger
	Limits  http1.Limits
	Handler Handler
}

// Factory returns the per-connection reactor.Protocol constructor
// reactor.Reactor.Listen expects.
func (s *Server) Factory() func() reactor.Protocol {
	return func() reactor.Protocol {
		return &connProtocol{srv: s}
	}
}

// connProtocol is the reactor.Protocol attached to one accepted HTTP
// connection. It lazily builds its http1.Parser on first OnData, once
// the UUID (and therefore the registry's peer-address lookup) exists.
type connProtocol struct {
	reactor.BaseProtocol
	srv *Server

	once   sync.Once
	parser *http1.Parser
	u      socket.UUID

	method, path, query, proto string
	headers                    map[string][]string
	body                       []byte
}

func (p *connProtocol) ensure(u socket.UUID) {
	p.once.Do(func() {
		p.u = u
		cb := http1.Callbacks{
			OnMethod:      func(m string) error { p.method = m; return nil },
			OnPath:        func(path string) error { p.path = path; return nil },
			OnQuery:       func(q string) error { p.query = q; return nil },
			OnHTTPVersion: func(v string) error { p.proto = v; return nil },
			OnHeader: func(name, value string) error {
				if p.headers == nil {
					p.headers = map[string][]string{}
				}
				k := lower(name)
				p.headers[k] = append(p.headers[k], value)
				return nil
			},
			OnBodyChunk: func(chunk []byte) error {
				p.body = append(p.body, chunk...)
				return nil
			},
			OnRequest: func() error {
				p.dispatch()
				return nil
			},
			OnError: func(err error) {
				if p.srv.Log != nil {
					p.srv.Log.CheckError(loglvl.WarnLevel, loglvl.NilLevel, "http1: parse error, closing connection", err)
				}
				p.srv.Reg.ForceClose(p.u)
			},
		}
		p.parser = http1.New(cb, p.srv.Limits)
	})
}

func (p *connProtocol) dispatch() {
	req := &Request{
		Method: p.method, Path: p.path, Query: p.query, Proto: p.proto,
		Headers: p.headers, Body: p.body,
	}
	w := httpresp.NewWriter(p.srv.Reg, p.u, p.method, p.path, p.proto, p.srv.Reg.PeerAddr(p.u), p.srv.Log)
	p.method, p.path, p.query, p.proto, p.headers, p.body = "", "", "", "", nil, nil
	if p.srv.Handler != nil {
		p.srv.Handler(w, req)
	} else {
		w.SetStatus(404)
		_ = w.Send(nil)
	}
}

// OnData feeds every byte the reactor's reader goroutine already pulled
// off the wire into the parser; http1.Parser's own restart contract
// takes care of pipelined requests sharing one connection.
func (p *connProtocol) OnData(u socket.UUID) {
	p.ensure(u)
	data, err := p.srv.Reg.Consume(u)
	if err != nil || len(data) == 0 {
		return
	}
	for len(data) > 0 {
		n, err := p.parser.Consume(data)
		if err != nil {
			// OnError callback already force-closed the connection.
			return
		}
		if n <= 0 {
			return
		}
		data = data[n:]
	}
}
