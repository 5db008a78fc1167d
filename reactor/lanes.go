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

package reactor

import "sync"

// lane identifies one of the three independent locks spec.md §4.D
// assigns to a protocol: TASK serializes on_data and deferred user
// tasks, WRITE serializes on_ready/ping, STATE is for fast
// identity/liveness checks.
type lane uint8

const (
	laneTask lane = iota
	laneWrite
	laneState
)

// lanes holds the three lock lanes for one attached protocol. Go's
// sync.Mutex exposes TryLock (Go ≥1.18), which is exactly the
// "try_lock(uuid, lane)" primitive spec.md §4.D calls for.
type lanes struct {
	task  sync.Mutex
	write sync.Mutex
	state sync.Mutex
}

func (l *lanes) tryLock(ln lane) bool {
	switch ln {
	case laneTask:
		return l.task.TryLock()
	case laneWrite:
		return l.write.TryLock()
	default:
		return l.state.TryLock()
	}
}

func (l *lanes) unlock(ln lane) {
	switch ln {
	case laneTask:
		l.task.Unlock()
	case laneWrite:
		l.write.Unlock()
	default:
		l.state.Unlock()
	}
}
