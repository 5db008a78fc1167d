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

// Package http1 implements the byte-driven HTTP/1.1 request/response
// parser of spec.md §4.G: a restartable, callback-driven state machine
// with chunked transfer decoding, trailer handling, and absolute-URI
// normalization.
package http1

import (
	"bytes"
	"strconv"
	"strings"
)

// state is one of the four top-level parser states (spec.md §4.G).
type state uint8

const (
	stateLine state = iota
	stateHeaders
	stateBody
	stateComplete
)

// chunkPhase sub-states the BODY state while chunked is set.
type chunkPhase uint8

const (
	chunkPhaseSize chunkPhase = iota
	chunkPhaseData
	chunkPhaseDataCRLF
	chunkPhaseTrailer
)

const (
	maxChunkSize = 1 << 32 // overflow guard; spec.md §4.G "size > configured maximum"
)

// Callbacks mirrors spec.md §4.G's callback set. Any callback may be
// left nil; a nil callback is simply skipped. Returning a non-nil
// error from any callback aborts parsing and routes to OnError
// (spec.md §7 "user callback errors").
type Callbacks struct {
	OnMethod      func(method string) error
	OnPath        func(path string) error
	OnQuery       func(query string) error
	OnHTTPVersion func(version string) error
	OnStatus      func(code int, reason string) error
	OnHeader      func(name, value string) error
	OnBodyChunk   func(chunk []byte) error
	OnRequest     func() error
	OnResponse    func() error
	OnError       func(err error)
}

// Limits bounds the parser the way spec.md §6 calls for (max header
// section ~16 KiB, max header count 64, max body 512 KiB by default).
type Limits struct {
	MaxHeaderBytes int
	MaxHeaderCount int
	MaxBodyBytes   int64
}

// DefaultLimits returns the defaults named in spec.md §6.
func DefaultLimits() Limits {
	return Limits{MaxHeaderBytes: 16 * 1024, MaxHeaderCount: 64, MaxBodyBytes: 512 * 1024}
}

// Parser is one request-or-response parser instance. It is restartable
// across calls to Consume and self-resets after each complete message
// so the remaining buffer bytes belong to the next pipelined message
// (spec.md §4.G "Completion").
type Parser struct {
	cb     Callbacks
	limits Limits

	state      state
	isResponse bool

	headerBytes int
	headerCount int

	contentLength    int64
	bodyRead         int64
	chunked          bool
	trailerExpected  bool
	chunkPhase       chunkPhase
	chunkRemaining   int64
	sawAnyChunk      bool
}

// New builds a Parser using lim (zero-value Limits selects
// DefaultLimits()).
func New(cb Callbacks, lim Limits) *Parser {
	if lim.MaxHeaderBytes == 0 && lim.MaxHeaderCount == 0 && lim.MaxBodyBytes == 0 {
		lim = DefaultLimits()
	}
	return &Parser{cb: cb, limits: lim}
}

func (p *Parser) fail(err error) {
	if p.cb.OnError != nil {
		p.cb.OnError(err)
	}
	p.resetForNextMessage()
}

// resetForNextMessage restores LINE state, the transition spec.md §4.G
// describes for both normal completion and on_error recovery.
func (p *Parser) resetForNextMessage() {
	p.state = stateLine
	p.headerBytes = 0
	p.headerCount = 0
	p.contentLength = 0
	p.bodyRead = 0
	p.chunked = false
	p.trailerExpected = false
	p.chunkPhase = chunkPhaseSize
	p.chunkRemaining = 0
	p.sawAnyChunk = false
}

// findLine locates the next line terminator (LF or CRLF, spec.md §4.G
// "Both LF and CRLF terminate lines"), returning the line's content
// length and the terminator's length, or ok=false if no terminator is
// present yet in buf.
func findLine(buf []byte) (contentLen, termLen int, ok bool) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		return 0, 0, false
	}
	if idx > 0 && buf[idx-1] == '\r' {
		return idx - 1, 2, true
	}
	return idx, 1, true
}

// Consume feeds buf to the parser and returns the number of bytes
// accepted (k ≤ len(buf)); the caller slides buf[k:] to the front and
// appends more data before calling again (spec.md §4.G, invariant 4).
func (p *Parser) Consume(buf []byte) (int, error) {
	i := 0
	for {
		prevState := p.state
		switch p.state {
		case stateLine:
			n, err := p.consumeLine(buf[i:])
			i += n
			if err != nil {
				return i, err
			}
			if n == 0 && p.state == prevState {
				return i, nil
			}
		case stateHeaders:
			n, err := p.consumeHeaderLine(buf[i:])
			i += n
			if err != nil {
				return i, err
			}
			if n == 0 && p.state == prevState {
				return i, nil
			}
		case stateBody:
			n, err := p.consumeBody(buf[i:])
			i += n
			if err != nil {
				return i, err
			}
			if n == 0 && p.state == prevState {
				return i, nil
			}
		case stateComplete:
			if p.isResponse {
				if p.cb.OnResponse != nil {
					if err := p.cb.OnResponse(); err != nil {
						p.fail(err)
						return i, err
					}
				}
			} else if p.cb.OnRequest != nil {
				if err := p.cb.OnRequest(); err != nil {
					p.fail(err)
					return i, err
				}
			}
			p.resetForNextMessage()
		}
	}
	return i, nil
}

func (p *Parser) consumeLine(buf []byte) (int, error) {
	contentLen, termLen, ok := findLine(buf)
	if !ok {
		return 0, nil
	}
	line := buf[:contentLen]
	total := contentLen + termLen

	if bytes.HasPrefix(line, []byte("HTTP/")) {
		p.isResponse = true
		if err := p.parseStatusLine(line); err != nil {
			p.fail(err)
			return total, err
		}
	} else {
		p.isResponse = false
		if err := p.parseRequestLine(line); err != nil {
			p.fail(err)
			return total, err
		}
	}
	p.state = stateHeaders
	return total, nil
}

func (p *Parser) parseRequestLine(line []byte) error {
	parts := strings.SplitN(string(line), " ", 3)
	if len(parts) != 3 {
		return errMalformedLine
	}
	method, uri, version := parts[0], parts[1], parts[2]

	if p.cb.OnMethod != nil {
		if err := p.cb.OnMethod(method); err != nil {
			return err
		}
	}

	path, query, hostHeader := normalizeURI(uri)
	if hostHeader != "" && p.cb.OnHeader != nil {
		if err := p.cb.OnHeader("host", hostHeader); err != nil {
			return err
		}
	}
	if p.cb.OnPath != nil {
		if err := p.cb.OnPath(path); err != nil {
			return err
		}
	}
	if query != "" && p.cb.OnQuery != nil {
		if err := p.cb.OnQuery(query); err != nil {
			return err
		}
	}
	if p.cb.OnHTTPVersion != nil {
		return p.cb.OnHTTPVersion(version)
	}
	return nil
}

// normalizeURI implements spec.md §4.G's absolute-URI rewrite: if uri
// starts with "http://" or "https://", split off the authority as a
// synthetic Host header and rewrite uri to begin at the path. The
// remaining (possibly rewritten) path is then split on '?' into
// path+query.
func normalizeURI(uri string) (path, query, hostHeader string) {
	rest := uri
	if strings.HasPrefix(uri, "http://") {
		rest = uri[len("http://"):]
		hostHeader, rest = splitAuthority(rest)
	} else if strings.HasPrefix(uri, "https://") {
		rest = uri[len("https://"):]
		hostHeader, rest = splitAuthority(rest)
	}
	if rest == "" {
		rest = "/"
	}
	if idx := strings.IndexByte(rest, '?'); idx >= 0 {
		return rest[:idx], rest[idx+1:], hostHeader
	}
	return rest, "", hostHeader
}

func splitAuthority(s string) (authority, pathAndQuery string) {
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return s, "/"
	}
	return s[:idx], s[idx:]
}

func (p *Parser) parseStatusLine(line []byte) error {
	parts := strings.SplitN(string(line), " ", 3)
	if len(parts) < 2 {
		return errMalformedLine
	}
	version := parts[0]
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return errMalformedLine
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}
	if p.cb.OnHTTPVersion != nil {
		if err := p.cb.OnHTTPVersion(version); err != nil {
			return err
		}
	}
	if p.cb.OnStatus != nil {
		return p.cb.OnStatus(code, reason)
	}
	return nil
}

func (p *Parser) consumeHeaderLine(buf []byte) (int, error) {
	contentLen, termLen, ok := findLine(buf)
	if !ok {
		return 0, nil
	}
	total := contentLen + termLen
	p.headerBytes += total
	if p.limits.MaxHeaderBytes > 0 && p.headerBytes > p.limits.MaxHeaderBytes {
		err := errHeaderTooLarge
		p.fail(err)
		return total, err
	}

	line := buf[:contentLen]
	if len(line) == 0 {
		// empty line ⇒ transition to BODY (spec.md §4.G)
		if p.trailerExpected && p.chunked && p.bodyFullyReadChunked() {
			p.trailerExpected = false
			p.state = stateComplete
			return total, nil
		}
		p.state = stateBody
		p.chunkPhase = chunkPhaseSize
		return total, nil
	}

	p.headerCount++
	if p.limits.MaxHeaderCount > 0 && p.headerCount > p.limits.MaxHeaderCount {
		err := errTooManyHeaders
		p.fail(err)
		return total, err
	}

	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		err := errMalformedHeader
		p.fail(err)
		return total, err
	}
	name := strings.ToLower(string(line[:idx]))
	value := string(line[idx+1:])
	value = strings.TrimPrefix(value, " ")

	value = p.recognizeHeader(name, value)

	if p.cb.OnHeader != nil {
		if err := p.cb.OnHeader(name, value); err != nil {
			p.fail(err)
			return total, err
		}
	}
	return total, nil
}

// recognizeHeader implements the specially-handled header names of
// spec.md §4.G: content-length (decimal, overflow-saturating),
// transfer-encoding (chunked token detection, with the "chunked" token
// stripped from the value delivered to OnHeader — it is a framing detail
// the callback has no use for, not a content encoding), trailer (sets
// the expect-trailer flag). Returns the value to hand to OnHeader.
func (p *Parser) recognizeHeader(name, value string) string {
	switch name {
	case "content-length":
		p.contentLength = parseContentLength(value)
	case "transfer-encoding":
		toks := strings.Split(value, ",")
		kept := toks[:0]
		for _, tok := range toks {
			trimmed := strings.TrimSpace(tok)
			if strings.EqualFold(trimmed, "chunked") {
				p.chunked = true
				continue
			}
			kept = append(kept, trimmed)
		}
		value = strings.Join(kept, ", ")
	case "trailer":
		p.trailerExpected = true
	}
	return value
}

func parseContentLength(value string) int64 {
	value = strings.TrimSpace(value)
	var n int64
	for _, c := range []byte(value) {
		if c < '0' || c > '9' {
			return n
		}
		d := int64(c - '0')
		if n > (1<<62)/10 {
			return 1 << 62 // saturate, spec.md §4.G overflow saturation
		}
		n = n*10 + d
	}
	return n
}

func (p *Parser) bodyFullyReadChunked() bool {
	return p.chunked && p.chunkPhase == chunkPhaseTrailer
}
