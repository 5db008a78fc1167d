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

import (
	"context"
	"net"
	"sync"
	"time"

	deferred "github.com/boazsegev/facil-go/defer"
	"github.com/boazsegev/facil-go/logger"
	loglvl "github.com/boazsegev/facil-go/logger/level"
	"github.com/boazsegev/facil-go/socket"
)

const (
	// timeoutSweepChunk bounds how many slots one sweep pass inspects
	// before re-deferring itself, so a large connection count never
	// blocks the cycle (spec.md §4.C).
	timeoutSweepChunk = 256
	// idlePoll is the cycle's blocking-poll analogue (spec.md §4.C:
	// "else poll blocking (~512 ms)"); here it paces the timeout-sweep
	// and on_idle ticker instead of a real poll(2) timeout.
	idlePoll = 512 * time.Millisecond
)

// entry is what the reactor tracks per attached UUID: the protocol
// vtable and its three lane locks (spec.md §3's per-fd protocol
// pointer plus lanes).
type entry struct {
	protocol Protocol
	lanes    lanes
}

// Reactor runs the cycle described in spec.md §4.C/§4.D on top of one
// socket.Registry and one deferred.Queue.
type Reactor struct {
	Registry *socket.Registry
	Queue    *deferred.Queue
	Log      logger.Logger

	OnIdle func()

	mu         sync.Mutex
	protocols  map[socket.UUID]*entry
	listeners  []net.Listener
	stop       chan struct{}
	stopOnce   sync.Once
	sweepIndex int
	wg         sync.WaitGroup
}

// New builds a Reactor bound to reg and q. If q is nil, the
// process-wide deferred.Default queue is used.
func New(reg *socket.Registry, q *deferred.Queue, log logger.Logger) *Reactor {
	if q == nil {
		q = deferred.Default
	}
	return &Reactor{
		Registry:  reg,
		Queue:     q,
		Log:       log,
		protocols: make(map[socket.UUID]*entry),
		stop:      make(chan struct{}),
	}
}

// Attach binds p to u, the reactor-side counterpart of the socket
// layer's SetProtocol (spec.md §4.C: "attaches protocols to UUIDs").
func (r *Reactor) Attach(u socket.UUID, p Protocol) {
	r.mu.Lock()
	r.protocols[u] = &entry{protocol: p}
	r.mu.Unlock()
	_ = r.Registry.SetProtocol(u, p)
	r.Registry.SetDeferFunc(func(task func(a1, a2 interface{}), a1, a2 interface{}) {
		r.Queue.Push(task, a1, a2)
	})
	r.startReader(u)
}

func (r *Reactor) entryFor(u socket.UUID) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.protocols[u]
}

func (r *Reactor) detach(u socket.UUID) {
	r.mu.Lock()
	delete(r.protocols, u)
	r.mu.Unlock()
}

// tryLock implements spec.md §4.D's try_lock(uuid, lane): resolve the
// protocol under the registry's fd-equivalent bookkeeping, then try the
// requested lane. Contention returns ok=false so the caller re-defers.
func (r *Reactor) tryLock(u socket.UUID, ln lane) (*entry, bool) {
	e := r.entryFor(u)
	if e == nil || !r.Registry.Valid(u) {
		return nil, false
	}
	if !e.lanes.tryLock(ln) {
		return nil, false
	}
	return e, true
}

// startReader launches the per-connection read loop. Every Read that
// yields bytes defers an on_data dispatch (lane-locked); EOF or a fatal
// read error force_closes the connection, which in turn calls the onClose
// callback the Registry was built with; the reactor itself does not route
// it to Protocol.OnClose.
func (r *Reactor) startReader(u socket.UUID) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		buf := make([]byte, 64*1024)
		for {
			select {
			case <-r.stop:
				return
			default:
			}
			n, err := r.Registry.PumpOnce(u, buf)
			if n > 0 {
				r.deferOnData(u)
			}
			if err != nil {
				r.Registry.ForceClose(u)
				return
			}
		}
	}()
}

func (r *Reactor) deferOnData(u socket.UUID) {
	r.Queue.Push(func(a1, a2 interface{}) {
		uu := a1.(socket.UUID)
		e, ok := r.tryLock(uu, laneTask)
		if !ok {
			// either gone, or contended — re-defer per spec.md §4.D
			if r.Registry.Valid(uu) {
				r.deferOnData(uu)
			}
			return
		}
		defer e.lanes.unlock(laneTask)
		e.protocol.OnData(uu)
	}, u, nil)
}

// DeferOnReady schedules a protocol's on_ready alongside a Flush, the
// pairing spec.md §4.C's "writable → defer both flush and on_ready"
// rule describes.
func (r *Reactor) DeferOnReady(u socket.UUID) {
	r.Queue.Push(func(a1, a2 interface{}) {
		uu := a1.(socket.UUID)
		_ = r.Registry.Flush(uu)
		e, ok := r.tryLock(uu, laneWrite)
		if !ok {
			return
		}
		defer e.lanes.unlock(laneWrite)
		e.protocol.OnReady(uu)
	}, u, nil)
}

// Ping defers a protocol's keep-alive callback, the action a timeout
// sweep hit triggers (spec.md §4.C timeout sweep).
func (r *Reactor) Ping(u socket.UUID) {
	r.Queue.Push(func(a1, a2 interface{}) {
		uu := a1.(socket.UUID)
		e, ok := r.tryLock(uu, laneWrite)
		if !ok {
			return
		}
		defer e.lanes.unlock(laneWrite)
		e.protocol.Ping(uu)
	}, u, nil)
}

// Listen accepts connections on ln in a background goroutine, attaching
// factory()'s protocol to each one (the "listener protocol" of
// spec.md §2's component D).
func (r *Reactor) Listen(ln net.Listener, factory func() Protocol) {
	r.mu.Lock()
	r.listeners = append(r.listeners, ln)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			u, _, err := r.Registry.Accept(ln)
			if err != nil {
				select {
				case <-r.stop:
					return
				default:
				}
				if r.Log != nil {
					r.Log.CheckError(loglvl.WarnLevel, loglvl.NilLevel, "accept failed", err)
				}
				return
			}
			r.Attach(u, factory())
		}
	}()
}

// Connect dials addr and attaches p to the resulting connection, the
// "connect protocol" of component D.
func (r *Reactor) Connect(ctx context.Context, network, addr string, p Protocol) (socket.UUID, error) {
	u, err := r.Registry.Connect(ctx, network, addr)
	if err != nil {
		return socket.Invalid, err
	}
	r.Attach(u, p)
	return u, nil
}

// Run starts the timeout-sweep/idle ticker and blocks until Stop is
// called. It is the long-lived counterpart of spec.md §4.C's cycle().
func (r *Reactor) Run() {
	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()
	idleSince := time.Now()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			moved := r.sweepOnce()
			if !moved {
				if r.OnIdle != nil && time.Since(idleSince) >= idlePoll {
					r.OnIdle()
				}
			} else {
				idleSince = time.Now()
			}
		}
	}
}

// sweepOnce runs one chunk of the timeout sweep (spec.md §4.C) and
// reports whether any connection had pending work.
func (r *Reactor) sweepOnce() bool {
	moved := false
	next, _ := r.Registry.ForEachTimedOut(r.sweepIndex, timeoutSweepChunk, time.Now(), func(u socket.UUID) {
		moved = true
		r.Ping(u)
	})
	r.sweepIndex = next
	return moved
}

// Stop halts the reader loops and Run's ticker, then waits for
// in-flight goroutines to exit.
func (r *Reactor) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.mu.Lock()
	listeners := append([]net.Listener(nil), r.listeners...)
	r.mu.Unlock()
	for _, ln := range listeners {
		_ = ln.Close()
	}
	r.wg.Wait()
}
