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

// Package cluster adapts the cluster bus into a pubsub.Engine, the
// "cluster" and "siblings" EngineKind's wire transport (spec.md §4.E/§4.F
// wired together per SPEC_FULL.md §4's expansion note).
package cluster

import (
	clusterbus "github.com/boazsegev/facil-go/cluster"
	"github.com/boazsegev/facil-go/pubsub"
)

// Reserved filters for the three message kinds this engine puts on the
// bus; arbitrary app-level cluster users should pick filters outside
// this small reserved range.
const (
	filterForward          int32 = -1
	filterChannelCreated   int32 = -2
	filterChannelDestroyed int32 = -3
)

// Engine forwards publishes and channel lifecycle events over a
// cluster.Bus, and feeds frames arriving from peers back into hub as
// process-local publishes (EngineProcess never re-forwards, so this
// can't loop).
type Engine struct {
	bus *clusterbus.Bus
	hub *pubsub.Hub
}

// New binds bus to hub: incoming FORWARD frames on the reserved filter
// become local publishes; channel create/destroy frames are accepted and
// ignored, so remote subscription state is not mirrored.
func New(bus *clusterbus.Bus, hub *pubsub.Hub) *Engine {
	e := &Engine{bus: bus, hub: hub}
	bus.RegisterHandler(filterForward, func(channel, data []byte) {
		_ = hub.Publish(pubsub.EngineProcess, string(channel), data)
	})
	bus.RegisterHandler(filterChannelCreated, func(channel, data []byte) {})
	bus.RegisterHandler(filterChannelDestroyed, func(channel, data []byte) {})
	return e
}

func (e *Engine) Forward(channel string, pattern bool, data []byte) error {
	return e.bus.ForwardOnly(clusterbus.FrameForward, filterForward, []byte(channel), data)
}

func (e *Engine) ChannelCreate(channel string, pattern bool) {
	_ = e.bus.ForwardOnly(clusterbus.FrameForward, filterChannelCreated, []byte(channel), nil)
}

func (e *Engine) ChannelDestroy(channel string, pattern bool) {
	_ = e.bus.ForwardOnly(clusterbus.FrameForward, filterChannelDestroyed, []byte(channel), nil)
}
