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

import "reflect"

// OnMessage is a subscriber's delivery callback.
type OnMessage func(msg *Message)

// OnUnsubscribe is called once a client's last subscription drops,
// scheduled as a deferred task per spec.md §4.F "Unsubscribe".
type OnUnsubscribe func(udata1, udata2 interface{})

// clientKey identifies a subscription's identity per spec.md §4.F step 1:
// "client_hash = f(on_message, on_unsubscribe, udata1, udata2)". Two
// subscribe calls with the same four values are the same client and share
// a single sub_count, rather than registering twice.
type clientKey struct {
	onMessage     uintptr
	onUnsubscribe uintptr
	udata1        interface{}
	udata2        interface{}
}

func funcPointer(fn interface{}) uintptr {
	if fn == nil {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

func newClientKey(onMessage OnMessage, onUnsubscribe OnUnsubscribe, udata1, udata2 interface{}) clientKey {
	return clientKey{
		onMessage:     funcPointer(onMessage),
		onUnsubscribe: funcPointer(onUnsubscribe),
		udata1:        udata1,
		udata2:        udata2,
	}
}

// client is one subscriber, potentially linked into several channels
// (literal and/or pattern) since a single (on_message, udata) identity
// may subscribe more than once.
type client struct {
	key           clientKey
	onMessage     OnMessage
	onUnsubscribe OnUnsubscribe
	udata1        interface{}
	udata2        interface{}
	subCount      int32
	inflight      int32
}
