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

package pubsub

// EngineKind selects where a Publish is delivered, the GLOSSARY's
// "Engine (pub/sub)" concept: the current process only, the whole
// cluster, siblings only, or an external service.
type EngineKind uint8

const (
	// EngineProcess delivers to this process's local subscribers only.
	EngineProcess EngineKind = iota
	// EngineCluster forwards to the cluster bus AND delivers locally
	// (spec.md §4.F: "forward a FORWARD frame ... and ALSO publish
	// locally").
	EngineCluster
	// EngineSiblings forwards to the bus but does NOT deliver locally.
	EngineSiblings
	// EngineNATS forwards to an external NATS subject AND delivers
	// locally, mirroring EngineCluster's "forward and also publish
	// locally" rule for an engine that fronts a service outside this
	// cluster's own bus rather than the bus itself.
	EngineNATS
)

// Engine is the forwarding half of a non-local EngineKind: something that
// can carry a publish (and channel create/destroy notifications) to
// peers outside this process. Hub.Publish calls Forward for every kind
// other than EngineProcess (EngineCluster, EngineSiblings, EngineNATS);
// EngineProcess never touches an Engine.
type Engine interface {
	// Forward carries a publish to whatever this engine fronts (cluster
	// bus, NATS subject, ...). It never delivers locally itself — that
	// remains the Hub's job for EngineCluster and EngineNATS.
	Forward(channel string, pattern bool, data []byte) error

	// ChannelCreate/ChannelDestroy notify the engine that the first
	// subscriber arrived / the last one left, per spec.md §4.F's
	// "call engines-of-channel-create for each registered engine".
	ChannelCreate(channel string, pattern bool)
	ChannelDestroy(channel string, pattern bool)
}
