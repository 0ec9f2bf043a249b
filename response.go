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

import "github.com/ZaparooProject/go-multidrop/internal/frame"

// Response is the acknowledgement a slave returns for a received frame.
type Response uint8

const (
	// ResponseNone means nothing has to be transmitted.
	ResponseNone Response = iota
	// ResponseAck acknowledges a frame whose checksum matched.
	ResponseAck
	// ResponseNack rejects a corrupted or overflowing frame.
	ResponseNack
)

// Bytes returns the fixed four byte code to transmit. ResponseNone yields a
// zero value with ok false.
func (r Response) Bytes() (code [frame.ResponseSize]byte, ok bool) {
	switch r {
	case ResponseAck:
		return frame.AckFrame, true
	case ResponseNack:
		return frame.NackFrame, true
	default:
		return code, false
	}
}

func (r Response) String() string {
	switch r {
	case ResponseAck:
		return "ACK"
	case ResponseNack:
		return "NACK"
	default:
		return "none"
	}
}

// ParseResponse decodes a four byte code received from a slave.
func ParseResponse(b []byte) (Response, error) {
	if len(b) < frame.ResponseSize {
		return ResponseNone, ErrIncomplete
	}
	var code [frame.ResponseSize]byte
	copy(code[:], b)
	switch code {
	case frame.AckFrame:
		return ResponseAck, nil
	case frame.NackFrame:
		return ResponseNack, nil
	default:
		return ResponseNone, ErrUnknownResponse
	}
}
