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

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// envWorkerIndex is how a re-executed child discovers its own worker
// index. The Go runtime cannot safely `fork()` a multi-threaded process
// (goroutines and their OS threads do not survive a bare fork — see the
// well-known warning in package syscall's docs), so PerformInFork uses
// re-exec instead: the parent spawns copies of its own binary with this
// variable set, and each child re-enters PerformInFork, recognizes the
// variable, and runs its pool directly instead of forking again. This is
// the documented resolution of spec.md §9's "fork-driven concurrency"
// design note for a Go target.
const envWorkerIndex = "FACIL_WORKER_INDEX"

// WorkerIndex returns the current process's worker index: 0 for the
// parent/root, 1..N for a re-exec'd child.
func WorkerIndex() int {
	v, ok := os.LookupEnv(envWorkerIndex)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return i
}

var forkMu sync.Mutex
var forkPool *Pool

// ForkIsActive reports whether the current process's forked pool hasn't
// been signaled to stop.
func ForkIsActive() bool {
	forkMu.Lock()
	defer forkMu.Unlock()
	return forkPool != nil && forkPool.IsActive()
}

func reapZombies(stop <-chan struct{}) {
	t := time.NewTicker(200 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			for {
				var ws unix.WaitStatus
				pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
				if pid <= 0 || err != nil {
					break
				}
			}
		}
	}
}

// PerformInFork implements spec.md §4.A's worker-process supervisor.
//
// In the root process it: installs SIGINT/SIGTERM handlers that stop the
// pool, ignores SIGPIPE, reaps zombie children, spawns processCount-1
// copies of the current executable (each becoming a child with its own
// thread pool), runs its own thread pool, and on pool exit signals every
// child with SIGINT and waits for them.
//
// A re-exec'd child recognizes envWorkerIndex, runs its own pool of
// threadsPerProcess workers, drains the queue twice on the way out (as
// the C implementation does after defer_pool_wait), and returns its
// worker index.
//
// Returns 0 for parent success, a positive worker index for a child,
// -1 on error (including re-entrant calls while a pool is already
// active — the C source's "we're already running inside an active
// fork" guard).
func PerformInFork(q *Queue, processCount, threadsPerProcess uint, strategy Strategy) (int, error) {
	forkMu.Lock()
	if forkPool != nil {
		forkMu.Unlock()
		return -1, fmt.Errorf("deferred: fork supervisor already active in this process")
	}
	forkMu.Unlock()

	if idx := WorkerIndex(); idx != 0 {
		pool := StartPool(q, threadsPerProcess, strategy)
		forkMu.Lock()
		forkPool = pool
		forkMu.Unlock()

		sigc := make(chan os.Signal, 2)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		signal.Ignore(syscall.SIGPIPE)
		go func() {
			for range sigc {
				pool.Stop()
			}
		}()

		pool.Wait()
		signal.Stop(sigc)
		forkMu.Lock()
		forkPool = nil
		forkMu.Unlock()
		q.Perform()
		q.Perform()
		return idx, nil
	}

	sigc := make(chan os.Signal, 2)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	signal.Ignore(syscall.SIGPIPE)

	reapStop := make(chan struct{})
	go reapZombies(reapStop)
	defer close(reapStop)

	if processCount == 0 {
		processCount = 1
	}
	childCount := processCount - 1

	children := make([]*exec.Cmd, 0, childCount)
	var spawnErr error
	for i := uint(0); i < childCount; i++ {
		cmd := exec.Command(os.Args[0], os.Args[1:]...)
		cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%d", envWorkerIndex, i+1))
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			spawnErr = err
			break
		}
		children = append(children, cmd)
	}

	var ret int
	var retErr error
	if spawnErr != nil {
		ret, retErr = -1, spawnErr
	} else {
		pool := StartPool(q, threadsPerProcess, strategy)
		forkMu.Lock()
		forkPool = pool
		forkMu.Unlock()

		stopOnSignal := make(chan struct{})
		go func() {
			select {
			case <-sigc:
				pool.Stop()
			case <-stopOnSignal:
			}
		}()

		pool.Wait()
		close(stopOnSignal)
		forkMu.Lock()
		forkPool = nil
		forkMu.Unlock()
		q.Perform()
	}

	for _, c := range children {
		if c.Process != nil {
			_ = c.Process.Signal(syscall.SIGINT)
		}
	}
	for _, c := range children {
		_ = c.Wait()
	}
	signal.Stop(sigc)
	return ret, retErr
}
