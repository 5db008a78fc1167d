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

package cluster

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/boazsegev/facil-go/logger"
	loglvl "github.com/boazsegev/facil-go/logger/level"
	"github.com/boazsegev/facil-go/reactor"
	"github.com/boazsegev/facil-go/socket"
)

type role uint8

const (
	roleRoot role = iota
	roleWorker
)

// SocketPath implements spec.md §6's "<tmpdir>/facil-io-sock-<pid-in-
// base-8>" derivation.
func SocketPath(pid int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("facil-io-sock-%s", strconv.FormatInt(int64(pid), 8)))
}

// Handler is a filter-dispatched cluster message handler (spec.md §4.E
// "Handler registry").
type Handler func(channel, data []byte)

// Bus is one process's side of the cluster: either the root's
// listening socket, fanning out to every connected worker, or a
// worker's single client connection to the root.
type Bus struct {
	reg *socket.Registry
	re  *reactor.Reactor
	log logger.Logger
	rl  role

	path string
	ln   net.Listener // root only

	mu       sync.Mutex
	children map[socket.UUID]bool
	rootConn socket.UUID

	recvMu  sync.Mutex
	recvBuf map[socket.UUID][]byte

	handlersMu sync.Mutex
	handlers   map[int32]Handler

	// OnShutdown is invoked worker-side when a SHUTDOWN frame arrives
	// from the root, or when the root connection is lost (spec.md §4.E
	// "the child must exit gracefully").
	OnShutdown func()
	// OnChildLost is invoked root-side whenever a connected worker's
	// connection drops (spec.md §4.E "worker death detected").
	OnChildLost func(u socket.UUID)
}

// NewRootAt creates the root side of the bus, listening at path (spec.md
// §4.E "Root ... creates a Unix-domain listening socket"). Children are
// tracked from the moment they're accepted rather than from their first
// frame, so Publish can fan out to a silent worker immediately.
func NewRootAt(reg *socket.Registry, re *reactor.Reactor, log logger.Logger, path string) (*Bus, error) {
	_ = os.Remove(path)
	ln, err := socket.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	b := &Bus{
		reg: reg, re: re, log: log, rl: roleRoot,
		path: path, ln: ln,
		children: map[socket.UUID]bool{},
		recvBuf:  map[socket.UUID][]byte{},
		handlers: map[int32]Handler{},
	}
	go b.acceptLoop()
	return b, nil
}

// NewRoot is NewRootAt using the PID-derived path of spec.md §6.
func NewRoot(reg *socket.Registry, re *reactor.Reactor, log logger.Logger, pid int) (*Bus, error) {
	return NewRootAt(reg, re, log, SocketPath(pid))
}

func (b *Bus) acceptLoop() {
	for {
		u, _, err := b.reg.Accept(b.ln)
		if err != nil {
			return
		}
		b.mu.Lock()
		b.children[u] = true
		b.mu.Unlock()
		b.re.Attach(u, &clusterProtocol{bus: b})
	}
}

// NewWorkerAt dials the root's listening socket at path (spec.md §4.E
// "Each worker connects to it after fork").
func NewWorkerAt(ctx context.Context, reg *socket.Registry, re *reactor.Reactor, log logger.Logger, path string) (*Bus, error) {
	b := &Bus{
		reg: reg, re: re, log: log, rl: roleWorker,
		path:     path,
		recvBuf:  map[socket.UUID][]byte{},
		handlers: map[int32]Handler{},
	}
	u, err := re.Connect(ctx, "unix", path, &clusterProtocol{bus: b})
	if err != nil {
		return nil, err
	}
	b.rootConn = u
	return b, nil
}

// NewWorker is NewWorkerAt using the root PID's derived path.
func NewWorker(ctx context.Context, reg *socket.Registry, re *reactor.Reactor, log logger.Logger, rootPID int) (*Bus, error) {
	return NewWorkerAt(ctx, reg, re, log, SocketPath(rootPID))
}

// RegisterHandler binds fn to filter, spec.md §4.E's "hash from filter:
// i32 to (channel, data) → ()".
func (b *Bus) RegisterHandler(filter int32, fn Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[filter] = fn
}

func (b *Bus) dispatchLocal(channel, data []byte, filter int32) {
	b.handlersMu.Lock()
	fn := b.handlers[filter]
	b.handlersMu.Unlock()
	if fn != nil {
		fn(channel, data)
	}
}

// ForwardOnly sends frame to the bus's peers without touching the local
// handler registry: root fans out to every connected child, a worker
// sends to the root. It is split out from Publish for callers (like a
// pubsub cluster Engine) that perform their own local delivery and would
// otherwise see it twice — once from their own Hub, once from the bus's
// root-side self-dispatch.
func (b *Bus) ForwardOnly(typ FrameType, filter int32, channel, data []byte) error {
	frame := Frame{Type: typ, Filter: filter, Channel: channel, Data: data}
	wire := frame.Encode()

	if b.rl != roleRoot {
		return b.reg.Write(b.rootConn, socket.WriteRequest{Buf: wire})
	}

	b.mu.Lock()
	targets := make([]socket.UUID, 0, len(b.children))
	for u := range b.children {
		targets = append(targets, u)
	}
	b.mu.Unlock()
	for _, u := range targets {
		if err := b.reg.Write(u, socket.WriteRequest{Buf: append([]byte(nil), wire...)}); err != nil {
			b.logWarn("cluster: write to child failed", err)
		}
	}
	return nil
}

// Publish sends a message per spec.md §4.E's root/worker behavior: the
// root fans out to every connected child and dispatches locally via the
// handler registry; a worker forwards to the root, which then
// rebroadcasts it to every other worker.
func (b *Bus) Publish(typ FrameType, filter int32, channel, data []byte) error {
	if err := b.ForwardOnly(typ, filter, channel, data); err != nil {
		return err
	}
	if b.rl == roleRoot {
		b.dispatchLocal(channel, data, filter)
	}
	return nil
}

// rebroadcast forwards a frame received from sender to every other
// connected child, the root-side fan-out half of Publish's contract
// when the message originates from a worker instead of the root.
func (b *Bus) rebroadcast(sender socket.UUID, f Frame) {
	wire := f.Encode()
	b.mu.Lock()
	targets := make([]socket.UUID, 0, len(b.children))
	for u := range b.children {
		if u != sender {
			targets = append(targets, u)
		}
	}
	b.mu.Unlock()
	for _, u := range targets {
		if err := b.reg.Write(u, socket.WriteRequest{Buf: append([]byte(nil), wire...)}); err != nil {
			b.logWarn("cluster: rebroadcast to child failed", err)
		}
	}
}

// Shutdown sends a SHUTDOWN frame to every connected child (root only),
// then closes the listener and unlinks the Unix path (spec.md §4.E
// "On root exit, the Unix path is unlinked").
func (b *Bus) Shutdown() error {
	if b.rl != roleRoot {
		return errNotRoot
	}
	_ = b.Publish(FrameShutdown, 0, nil, nil)
	if b.ln != nil {
		_ = b.ln.Close()
	}
	return os.Remove(b.path)
}

func (b *Bus) logWarn(msg string, err error) {
	if b.log != nil {
		b.log.CheckError(loglvl.WarnLevel, loglvl.NilLevel, msg, err)
	}
}
