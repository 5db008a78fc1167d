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

package deferred

// Default is the process-wide deferred queue, the Go analogue of the C
// implementation's single static `deferred` state machine. A reactor (or
// any other component) may build a private Queue instead when isolation
// is wanted, but most callers use these package-level functions exactly
// as the C API's `defer`/`defer_perform` free functions were used.
var Default = NewQueue()

// Defer enqueues fn(arg1, arg2) on the default queue. Returns false iff
// fn is nil.
func Defer(fn func(arg1, arg2 interface{}), arg1, arg2 interface{}) bool {
	return Default.Push(fn, arg1, arg2)
}

// PerformAll drains the default queue, executing every task (and every
// task it schedules) until empty.
func PerformAll() { Default.Perform() }

// HasQueue reports whether the default queue has pending work.
func HasQueue() bool { return Default.HasQueue() }

// ClearQueue drops all pending tasks on the default queue without running
// them.
func ClearQueue() { Default.Clear() }
