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

import liberr "github.com/boazsegev/facil-go/errors"

var (
	errMalformedLine    = liberr.Wrap(liberr.CodeConnectionFatal, "http1: malformed request/status line", nil)
	errMalformedHeader  = liberr.Wrap(liberr.CodeConnectionFatal, "http1: malformed header line", nil)
	errHeaderTooLarge   = liberr.Wrap(liberr.CodeConnectionFatal, "http1: header section exceeds limit", nil)
	errTooManyHeaders   = liberr.Wrap(liberr.CodeConnectionFatal, "http1: too many headers", nil)
	errBodyTooLarge     = liberr.Wrap(liberr.CodeConnectionFatal, "http1: body exceeds limit", nil)
	errChunkTooLarge    = liberr.Wrap(liberr.CodeConnectionFatal, "http1: chunk size exceeds limit", nil)
	errMissingChunkCRLF = liberr.Wrap(liberr.CodeConnectionFatal, "http1: missing CRLF after chunk data", nil)
)
