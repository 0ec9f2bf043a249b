// go-multidrop
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-multidrop.
//
// go-multidrop is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-multidrop is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-multidrop; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package multidrop

import (
	"fmt"

	"github.com/ZaparooProject/go-multidrop/internal/frame"
)

// Frame size limits
const (
	MaxPayloadLength = frame.MaxPayloadLength // Largest payload a receiver accepts
	MaxSendLength    = frame.MaxSendLength    // Largest payload Send frames
	BufferCapacity   = frame.BufferCapacity   // Size of the accumulation buffer
)

// Frame is one decoded unit of application data. A frame is well-formed when
// Checksum equals the CRC-16/USB of Payload; frames returned by the slow path
// are not filtered on that, so check Valid before acting on one.
type Frame struct {
	Payload  []byte
	Checksum uint16
	Address  Address
}

// NewFrame builds a frame for dst, copying payload and computing its checksum.
func NewFrame(dst Address, payload []byte) *Frame {
	p := make([]byte, len(payload))
	copy(p, payload)
	return &Frame{
		Address:  dst,
		Payload:  p,
		Checksum: frame.Checksum(p),
	}
}

// ParseFrame decodes a frame from the front of buf and copies its payload.
// It returns the bytes that follow the frame. ErrIncomplete means buf holds
// only a prefix of a frame.
func ParseFrame(buf []byte) (*Frame, []byte, error) {
	fields, rest, err := frame.ParseBorrowed(buf)
	if err != nil {
		return nil, buf, err
	}
	return frameFromFields(fields), rest, nil
}

func frameFromFields(fields frame.Fields) *Frame {
	p := make([]byte, len(fields.Payload))
	copy(p, fields.Payload)
	return &Frame{
		Address:  Address(fields.Address),
		Payload:  p,
		Checksum: fields.Checksum,
	}
}

// Len returns the payload length.
func (f *Frame) Len() int {
	return len(f.Payload)
}

// Valid reports whether the checksum matches the payload.
func (f *Frame) Valid() bool {
	return frame.ValidChecksum(f.Payload, f.Checksum)
}

// Validate returns ErrChecksumMismatch when the checksum does not match.
func (f *Frame) Validate() error {
	if !f.Valid() {
		return fmt.Errorf("%w: frame carries %#04x, payload sums to %#04x",
			ErrChecksumMismatch, f.Checksum, frame.Checksum(f.Payload))
	}
	return nil
}

// IsBroadcast reports whether the frame was sent to every node.
func (f *Frame) IsBroadcast() bool {
	return f.Address.IsBroadcast()
}

// WireSize returns the number of bytes the frame occupies on the bus.
func (f *Frame) WireSize() int {
	return frame.OverheadSize + len(f.Payload)
}

// AppendWire appends the wire encoding of f to dst:
// address, length, payload, checksum low, checksum high.
func (f *Frame) AppendWire(dst []byte) []byte {
	dst = append(dst, f.Address.WireByte(), byte(len(f.Payload)))
	dst = append(dst, f.Payload...)
	return frame.AppendChecksum(dst, f.Checksum)
}

// Words returns the frame as bus words with the address marker on the first.
func (f *Frame) Words() []Word {
	words := make([]Word, 0, f.WireSize())
	words = append(words, NewAddressWord(f.Address.WireByte()), NewDataWord(byte(len(f.Payload))))
	for _, b := range f.Payload {
		words = append(words, NewDataWord(b))
	}
	return append(words, NewDataWord(byte(f.Checksum)), NewDataWord(byte(f.Checksum>>8)))
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame to %s, %d bytes, crc %#04x", f.Address, len(f.Payload), f.Checksum)
}
