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

package frame

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrIncomplete means the buffer ends before the field does. It is the
	// normal state while a frame is still arriving, not corruption.
	ErrIncomplete = errors.New("frame: incomplete")
	// ErrInvalidLength means the length byte is above MaxPayloadLength.
	ErrInvalidLength = errors.New("frame: invalid payload length")
)

// Fields holds the decoded parts of one frame. Payload aliases the buffer
// that was parsed.
type Fields struct {
	Payload  []byte
	Checksum uint16
	Address  byte
}

// Size returns the number of wire bytes the frame occupied.
func (f Fields) Size() int {
	return OverheadSize + len(f.Payload)
}

// ReadAddress consumes one byte and returns the address value from its upper nibble.
func ReadAddress(buf []byte) (addr byte, rest []byte, err error) {
	if len(buf) < AddressSize {
		return 0, buf, ErrIncomplete
	}
	return DecodeAddress(buf[0]), buf[AddressSize:], nil
}

// ReadLength consumes one byte verbatim.
func ReadLength(buf []byte) (length byte, rest []byte, err error) {
	if len(buf) < LengthSize {
		return 0, buf, ErrIncomplete
	}
	return buf[0], buf[LengthSize:], nil
}

// ReadPayload consumes exactly n bytes without copying them.
func ReadPayload(buf []byte, n int) (payload, rest []byte, err error) {
	if len(buf) < n {
		return nil, buf, ErrIncomplete
	}
	return buf[:n:n], buf[n:], nil
}

// ReadChecksum consumes two bytes as a little-endian uint16.
func ReadChecksum(buf []byte) (sum uint16, rest []byte, err error) {
	if len(buf) < ChecksumSize {
		return 0, buf, ErrIncomplete
	}
	return binary.LittleEndian.Uint16(buf), buf[ChecksumSize:], nil
}

// ParseHeader decodes the address and length fields. It lets the caller learn
// how many payload bytes to expect without touching the payload.
func ParseHeader(buf []byte) (addr, length byte, rest []byte, err error) {
	addr, rest, err = ReadAddress(buf)
	if err != nil {
		return 0, 0, buf, err
	}
	length, rest, err = ReadLength(rest)
	if err != nil {
		return 0, 0, buf, err
	}
	if length > MaxPayloadLength {
		return 0, 0, buf, ErrInvalidLength
	}
	return addr, length, rest, nil
}

// ParseBorrowed decodes a complete frame from the front of buf. The returned
// payload aliases buf and nothing is allocated. On error rest is buf.
func ParseBorrowed(buf []byte) (fields Fields, rest []byte, err error) {
	addr, length, rest, err := ParseHeader(buf)
	if err != nil {
		return Fields{}, buf, err
	}
	payload, rest, err := ReadPayload(rest, int(length))
	if err != nil {
		return Fields{}, buf, err
	}
	sum, rest, err := ReadChecksum(rest)
	if err != nil {
		return Fields{}, buf, err
	}
	return Fields{Address: addr, Payload: payload, Checksum: sum}, rest, nil
}
