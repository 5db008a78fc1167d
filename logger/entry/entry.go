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

// Package entry models a single log record before it is handed to logrus,
// including the pre-formatted access-log line described in spec.md §4.H.
package entry

import (
	"fmt"
	"strings"
	"time"

	loglvl "github.com/boazsegev/facil-go/logger/level"
)

// Entry is one pending log record.
type Entry struct {
	Level   loglvl.Level
	Message string
	Data    interface{}
	Errors  []error
	Fields  map[string]interface{}
}

// truncate shortens s to max bytes, appending "..." when it overflows, per
// spec.md §4.H's access-log truncation rule.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// Access builds the access-log Entry in the exact layout spec.md §4.H
// requires:
//
//	IP - - [date] "method path version" status bytes Xms
func Access(remoteAddr, remoteUser string, at time.Time, latency time.Duration, method, path, proto string, status int, size int64) Entry {
	if remoteUser == "" {
		remoteUser = "-"
	}
	line := fmt.Sprintf("%s - %s [%s] %q %d %d %dms",
		remoteAddr,
		remoteUser,
		at.Format("02/Jan/2006:15:04:05 -0700"),
		fmt.Sprintf("%s %s %s", truncate(method, 10), truncate(path, 24), truncate(proto, 10)),
		status,
		size,
		latency.Milliseconds(),
	)
	return Entry{
		Level:   loglvl.InfoLevel,
		Message: line,
		Fields: map[string]interface{}{
			"remote_addr": remoteAddr,
			"method":      method,
			"path":        path,
			"proto":       proto,
			"status":      status,
			"size":        size,
			"latency_ms":  latency.Milliseconds(),
		},
	}
}

// String renders a plain-text version of the entry for writers that don't
// understand structured fields.
func (e Entry) String() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}
