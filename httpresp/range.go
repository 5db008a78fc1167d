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
	"strconv"
	"strings"
)

// byteRange is an inclusive [start, end] slice of a file, already
// clamped to the file's size.
type byteRange struct {
	start, end int64
}

// parseRange implements spec.md §4.H's "Range: bytes=a-b" handling:
// clamp b to size-1; an invalid range reports ok=false so the caller
// falls through to a full-file 200 OK.
func parseRange(header string, size int64) (byteRange, bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) || size <= 0 {
		return byteRange{}, false
	}
	spec := header[len(prefix):]
	if strings.Contains(spec, ",") {
		return byteRange{}, false // multi-range not supported; fall through to 200
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return byteRange{}, false
	}

	var start, end int64
	var err error
	switch {
	case parts[0] == "" && parts[1] != "":
		// suffix range: last N bytes
		n, perr := strconv.ParseInt(parts[1], 10, 64)
		if perr != nil || n <= 0 {
			return byteRange{}, false
		}
		if n > size {
			n = size
		}
		start = size - n
		end = size - 1
	case parts[0] != "":
		start, err = strconv.ParseInt(parts[0], 10, 64)
		if err != nil || start < 0 || start >= size {
			return byteRange{}, false
		}
		if parts[1] == "" {
			end = size - 1
		} else {
			end, err = strconv.ParseInt(parts[1], 10, 64)
			if err != nil || end < start {
				return byteRange{}, false
			}
		}
	default:
		return byteRange{}, false
	}

	if end > size-1 {
		end = size - 1
	}
	if start > end {
		return byteRange{}, false
	}
	return byteRange{start: start, end: end}, true
}
