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

// Package cluster implements the inter-process cluster bus of
// spec.md §4.E: one Unix-domain socket per worker, a length-prefixed
// framed protocol, and filter-indexed handler dispatch.
package cluster

import "encoding/binary"

// FrameType is the message kind carried by a Frame (spec.md §4.E
// "Types").
type FrameType uint32

const (
	FrameForward  FrameType = 0
	FrameJSON     FrameType = 1
	FrameShutdown FrameType = 2
	FramePing     FrameType = 4
)

const (
	headerLen     = 16
	maxChannelLen = 16 * 1024 * 1024 // spec.md §4.E "channel_len < 16 MiB"
	maxDataLen    = 64 * 1024 * 1024 // spec.md §4.E "data_len < 64 MiB"
)

// Frame is one cluster-bus message: "| channel_len | data_len | type |
// filter_i32 | channel bytes | data bytes |", all four fixed fields
// big-endian 32-bit (spec.md §4.E).
type Frame struct {
	Type    FrameType
	Filter  int32
	Channel []byte
	Data    []byte
}

// Encode serializes f into its wire form.
func (f Frame) Encode() []byte {
	buf := make([]byte, headerLen+len(f.Channel)+len(f.Data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(f.Channel)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(f.Data)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(f.Type))
	binary.BigEndian.PutUint32(buf[12:16], uint32(f.Filter))
	copy(buf[headerLen:], f.Channel)
	copy(buf[headerLen+len(f.Channel):], f.Data)
	return buf
}

// decodeFrame attempts to decode one frame from the front of buf. It
// returns the frame, the number of bytes consumed, and ok=false if buf
// does not yet hold a complete frame (the caller should wait for more
// data, mirroring http1's restartable-consume contract).
func decodeFrame(buf []byte) (Frame, int, bool, error) {
	if len(buf) < headerLen {
		return Frame{}, 0, false, nil
	}
	channelLen := binary.BigEndian.Uint32(buf[0:4])
	dataLen := binary.BigEndian.Uint32(buf[4:8])
	typ := binary.BigEndian.Uint32(buf[8:12])
	filter := int32(binary.BigEndian.Uint32(buf[12:16]))

	if channelLen >= maxChannelLen || dataLen >= maxDataLen {
		return Frame{}, 0, false, errFrameTooLarge
	}

	total := headerLen + int(channelLen) + int(dataLen)
	if len(buf) < total {
		return Frame{}, 0, false, nil
	}

	channel := append([]byte(nil), buf[headerLen:headerLen+int(channelLen)]...)
	data := append([]byte(nil), buf[headerLen+int(channelLen):total]...)
	return Frame{Type: FrameType(typ), Filter: filter, Channel: channel, Data: data}, total, true, nil
}
