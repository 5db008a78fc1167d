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

// Package siblings adapts the cluster bus for EngineSiblings: the
// publishing process forwards without delivering locally (its Hub
// already skips local delivery for this EngineKind per spec.md §4.F),
// while every *other* process's Engine turns the arriving frame into a
// local publish so siblings actually receive it.
package siblings

import (
	clusterbus "github.com/boazsegev/facil-go/cluster"
	"github.com/boazsegev/facil-go/pubsub"
)

// Engine forwards a publish to the bus, and feeds frames arriving from
// peers into hub as process-local publishes.
type Engine struct {
	bus *clusterbus.Bus
}

// New binds bus to hub for sibling-only delivery.
func New(bus *clusterbus.Bus, hub *pubsub.Hub) *Engine {
	e := &Engine{bus: bus}
	bus.RegisterHandler(filterSiblingForward, func(channel, data []byte) {
		_ = hub.Publish(pubsub.EngineProcess, string(channel), data)
	})
	return e
}

const filterSiblingForward int32 = -4

func (e *Engine) Forward(channel string, pattern bool, data []byte) error {
	return e.bus.ForwardOnly(clusterbus.FrameForward, filterSiblingForward, []byte(channel), data)
}

func (e *Engine) ChannelCreate(channel string, pattern bool)  {}
func (e *Engine) ChannelDestroy(channel string, pattern bool) {}
