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

package http1

// consumeBody dispatches to the chunked or content-length body readers
// (spec.md §4.G "BODY").
func (p *Parser) consumeBody(buf []byte) (int, error) {
	if p.chunked {
		return p.consumeChunkedBody(buf)
	}
	return p.consumeFixedBody(buf)
}

// consumeFixedBody streams up to content_length bytes to OnBodyChunk,
// then transitions to COMPLETE.
func (p *Parser) consumeFixedBody(buf []byte) (int, error) {
	remaining := p.contentLength - p.bodyRead
	if remaining <= 0 {
		p.state = stateComplete
		return 0, nil
	}
	if p.limits.MaxBodyBytes > 0 && p.contentLength > p.limits.MaxBodyBytes {
		err := errBodyTooLarge
		p.fail(err)
		return 0, err
	}
	if len(buf) == 0 {
		return 0, nil
	}
	n := int64(len(buf))
	if n > remaining {
		n = remaining
	}
	if p.cb.OnBodyChunk != nil {
		if err := p.cb.OnBodyChunk(buf[:n]); err != nil {
			p.fail(err)
			return int(n), err
		}
	}
	p.bodyRead += n
	if p.bodyRead >= p.contentLength {
		p.state = stateComplete
	}
	return int(n), nil
}

// consumeChunkedBody implements spec.md §4.G's chunked sub-machine:
// repeatedly "hex_len CRLF" then exactly hex_len bytes then CRLF; a
// zero-length chunk finalizes the body (optionally followed by
// trailers), rewriting content_length to the assembled total.
func (p *Parser) consumeChunkedBody(buf []byte) (int, error) {
	switch p.chunkPhase {
	case chunkPhaseSize:
		return p.consumeChunkSizeLine(buf)
	case chunkPhaseData:
		return p.consumeChunkData(buf)
	case chunkPhaseDataCRLF:
		return p.consumeChunkDataCRLF(buf)
	default:
		p.state = stateComplete
		return 0, nil
	}
}

func (p *Parser) consumeChunkSizeLine(buf []byte) (int, error) {
	contentLen, termLen, ok := findLine(buf)
	if !ok {
		if len(buf) > 32 {
			// a chunk-size line this long without a terminator can never
			// be valid; fail fast instead of buffering forever.
			err := errMissingChunkCRLF
			p.fail(err)
			return 0, err
		}
		return 0, nil
	}
	total := contentLen + termLen
	line := buf[:contentLen]

	size, err := parseChunkSize(line)
	if err != nil {
		p.fail(err)
		return total, err
	}
	if size > maxChunkSize {
		e := errChunkTooLarge
		p.fail(e)
		return total, e
	}

	p.sawAnyChunk = true
	if size == 0 {
		p.contentLength = p.bodyRead
		if !p.trailerExpected {
			// the last chunk is followed by the empty line that closes the
			// (empty) trailer section; consume it along with "0\r\n".
			lineLen, endLen, found := findLine(buf[total:])
			if !found {
				return 0, nil
			}
			if lineLen == 0 {
				p.state = stateComplete
				return total + endLen, nil
			}
			p.trailerExpected = true
		}
		p.chunkPhase = chunkPhaseTrailer
		p.state = stateHeaders
		return total, nil
	}

	p.chunkRemaining = size
	p.chunkPhase = chunkPhaseData
	return total, nil
}

// parseChunkSize parses a hex chunk-size line, ignoring any
// ";extension" suffix.
func parseChunkSize(line []byte) (int64, error) {
	if idx := indexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	if len(line) == 0 {
		return 0, errMalformedLine
	}
	var n int64
	for _, c := range line {
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		case c >= 'a' && c <= 'f':
			d = int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int64(c-'A') + 10
		default:
			return 0, errMalformedLine
		}
		if n > (1<<60)/16 {
			return 0, errChunkTooLarge
		}
		n = n*16 + d
	}
	return n, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func (p *Parser) consumeChunkData(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n := int64(len(buf))
	if n > p.chunkRemaining {
		n = p.chunkRemaining
	}
	if p.limits.MaxBodyBytes > 0 && p.bodyRead+n > p.limits.MaxBodyBytes {
		err := errBodyTooLarge
		p.fail(err)
		return 0, err
	}
	if p.cb.OnBodyChunk != nil {
		if err := p.cb.OnBodyChunk(buf[:n]); err != nil {
			p.fail(err)
			return int(n), err
		}
	}
	p.bodyRead += n
	p.chunkRemaining -= n
	if p.chunkRemaining == 0 {
		p.chunkPhase = chunkPhaseDataCRLF
	}
	return int(n), nil
}

func (p *Parser) consumeChunkDataCRLF(buf []byte) (int, error) {
	contentLen, termLen, ok := findLine(buf)
	if !ok {
		if len(buf) > 2 {
			err := errMissingChunkCRLF
			p.fail(err)
			return 0, err
		}
		return 0, nil
	}
	if contentLen != 0 {
		err := errMissingChunkCRLF
		p.fail(err)
		return contentLen + termLen, err
	}
	p.chunkPhase = chunkPhaseSize
	return contentLen + termLen, nil
}
