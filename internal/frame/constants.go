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

// Package frame provides the wire layout, checksum and field parsers for
// multidrop bus frames
package frame

// Frame field sizes
const (
	AddressSize  = 1 // Address byte, value in the upper nibble
	LengthSize   = 1 // Payload length byte
	ChecksumSize = 2 // CRC-16/USB, little-endian
	HeaderSize   = AddressSize + LengthSize
	OverheadSize = HeaderSize + ChecksumSize
)

// Frame size limits
const (
	MaxPayloadLength = 254                             // Largest length byte accepted by the parser
	MaxSendLength    = 253                             // Largest payload a sender may frame
	MaxFrameLength   = OverheadSize + MaxPayloadLength // 258 bytes
	BufferCapacity   = 260                             // Accumulation buffer size, one maximal frame plus headroom
	AddressShift     = 4                               // Address value lives in the upper nibble
	AddressMask      = 0x0F                            // Valid bits of an address value
)

// Response codes. Each is transmitted as a fixed four byte payload.
const (
	AckCode  = 0x11
	NackCode = 0x12
	// ResponseSize is the length of an ACK or NACK on the wire
	ResponseSize = 4
)

// ACK and NACK replies sent by a slave right after the word that completes a frame
var (
	AckFrame  = [ResponseSize]byte{AckCode, 0x00, 0x00, 0x00}
	NackFrame = [ResponseSize]byte{NackCode, 0x00, 0x00, 0x00}
)

// EncodeAddress places an address value in the upper nibble of a wire byte.
func EncodeAddress(addr byte) byte {
	return (addr & AddressMask) << AddressShift
}

// DecodeAddress extracts the address value from a wire byte.
func DecodeAddress(b byte) byte {
	return b >> AddressShift
}
