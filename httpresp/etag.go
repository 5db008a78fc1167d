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

package httpresp

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/dchest/siphash"
)

// etagKey0/etagKey1 are fixed SipHash keys. The source derives its key
// from process entropy at startup; a fixed key is used here so ETags
// computed across restarts of the same process stay stable, which is
// what callers comparing If-None-Match actually rely on.
const (
	etagKey0 uint64 = 0x6f6e6574616774ff
	etagKey1 uint64 = 0xc00117170e7a6731
)

// ComputeETag implements spec.md §4.H: a 64-bit SipHash of (size,
// mtimeUnixNano), base64-encoded to a 12-character tag.
func ComputeETag(size int64, mtimeUnixNano int64) string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(size))
	binary.BigEndian.PutUint64(buf[8:16], uint64(mtimeUnixNano))
	sum := siphash.Hash(etagKey0, etagKey1, buf[:])

	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], sum)
	// 8 bytes base64-encodes to exactly 12 characters (including the
	// trailing '=' pad), matching spec.md §4.H's 12-character tag.
	return base64.StdEncoding.EncodeToString(raw[:])
}
