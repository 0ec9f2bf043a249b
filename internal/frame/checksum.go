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

import "github.com/sigurn/crc16"

var crcTable = crc16.MakeTable(crc16.CRC16_USB)

// Checksum returns the CRC-16/USB of a payload. Address and length bytes are
// not covered.
func Checksum(payload []byte) uint16 {
	return crc16.Checksum(payload, crcTable)
}

// ValidChecksum reports whether sum is the CRC-16/USB of payload.
func ValidChecksum(payload []byte, sum uint16) bool {
	return Checksum(payload) == sum
}

// AppendChecksum appends the little-endian checksum bytes to dst.
func AppendChecksum(dst []byte, sum uint16) []byte {
	return append(dst, byte(sum), byte(sum>>8))
}
