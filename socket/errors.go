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

import liberr "github.com/boazsegev/facil-go/errors"

// ErrBadUUID is returned whenever a UUID fails validation: out of range,
// unregistered, or stale-generation (spec.md §3 invariant 1, §4.B
// "UUID validation").
var ErrBadUUID = liberr.Wrap(liberr.CodeConnectionFatal, "socket: invalid or stale UUID", nil)

// ErrQueueExhausted is returned by Write when the packet pool stays
// empty even after a synchronous flush_all() pass — spec.md §4.B's
// backpressure signal to the caller.
var ErrQueueExhausted = liberr.Wrap(liberr.CodeResourceExhausted, "socket: outbound packet pool exhausted", nil)
