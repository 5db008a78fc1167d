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
	"sync"
	"time"
)

// httpDateFormat is RFC 7231 §7.1.1.1's IMF-fixdate.
const httpDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

var dateCache struct {
	mu        sync.Mutex
	value     string
	refreshed time.Time
}

// cachedDate returns the current Date header value, recomputed at most
// once per second (spec.md §4.H "Date header ~1s caching").
func cachedDate() string {
	dateCache.mu.Lock()
	defer dateCache.mu.Unlock()
	now := time.Now().UTC()
	if now.Sub(dateCache.refreshed) >= time.Second || dateCache.value == "" {
		dateCache.value = now.Format(httpDateFormat)
		dateCache.refreshed = now
	}
	return dateCache.value
}

// FormatTime renders t the way a Date/Last-Modified header would.
func FormatTime(t time.Time) string { return t.UTC().Format(httpDateFormat) }

// ParseTime is the inverse of FormatTime.
func ParseTime(s string) (time.Time, error) { return time.Parse(httpDateFormat, s) }
