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

//go:build !linux

package socket

import (
	"io"
	"net"
)

// sendfileUnix falls back to a buffered pread+write copy on every
// platform other than Linux (sendfile_linux.go, the raw sendfile(2)
// path, builds only on Linux because of its file-name suffix) — spec.md
// §4.B names this fallback
// explicitly for the non-default-hook case; here it is also the only
// path available on these platforms regardless of hook.
func sendfileUnix(conn net.Conn, file interface {
	Fd() uintptr
	ReadAt([]byte, int64) (int, error)
}, offset, length int64) (int, error) {
	if length <= 0 {
		return 0, nil
	}
	buf := make([]byte, 32*1024)
	if int64(len(buf)) > length {
		buf = buf[:length]
	}
	n, err := file.ReadAt(buf, offset)
	if n <= 0 {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, err
	}
	return conn.Write(buf[:n])
}
