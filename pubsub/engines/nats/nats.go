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

// Package nats wraps a NATS connection behind pubsub.Engine, the
// GLOSSARY's "external service" engine kind (SPEC_FULL.md §4 expansion:
// "a fourth engine, engines/nats, wrapping a nats.go connection behind
// the same Engine interface"). It uses core NATS pub/sub only — no
// JetStream — since message persistence is explicitly out of scope.
package nats

import (
	"github.com/boazsegev/facil-go/pubsub"
	natsgo "github.com/nats-io/nats.go"
)

// subjectPrefix namespaces every channel this engine touches so a shared
// NATS deployment can host more than one facil-go cluster.
const subjectPrefix = "facil-go.pubsub."

// Engine forwards publishes to NATS subjects and mirrors inbound NATS
// messages back into hub as process-local publishes.
type Engine struct {
	conn *natsgo.Conn
	hub  *pubsub.Hub
	subs map[string]*natsgo.Subscription
}

// New binds conn to hub. The caller owns conn's lifecycle (Close it when
// done); New only subscribes to channels as they're created via
// ChannelCreate.
func New(conn *natsgo.Conn, hub *pubsub.Hub) *Engine {
	return &Engine{conn: conn, hub: hub, subs: map[string]*natsgo.Subscription{}}
}

func subject(channel string) string { return subjectPrefix + channel }

func (e *Engine) Forward(channel string, pattern bool, data []byte) error {
	return e.conn.Publish(subject(channel), data)
}

// ChannelCreate subscribes to channel's NATS subject so messages other
// cluster members publish externally reach this process's Hub.
func (e *Engine) ChannelCreate(channel string, pattern bool) {
	if pattern {
		return // NATS subjects aren't facil-go glob patterns; literal channels only.
	}
	if _, ok := e.subs[channel]; ok {
		return
	}
	sub, err := e.conn.Subscribe(subject(channel), func(m *natsgo.Msg) {
		_ = e.hub.Publish(pubsub.EngineProcess, channel, m.Data)
	})
	if err == nil {
		e.subs[channel] = sub
	}
}

func (e *Engine) ChannelDestroy(channel string, pattern bool) {
	if sub, ok := e.subs[channel]; ok {
		_ = sub.Unsubscribe()
		delete(e.subs, channel)
	}
}
