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

// Address identifies a node or a group of nodes on the bus. Only the low four
// bits are meaningful; on the wire they occupy the upper nibble of the
// address byte.
type Address uint8

const (
	// Master is the reserved address of the bus controller.
	Master Address = 0x00
	// Broadcast has every address bit set and is accepted by all nodes.
	Broadcast Address = frame.AddressMask
	// MaxAddress is the largest encodable address value.
	MaxAddress Address = frame.AddressMask
)

// Valid reports whether the address fits in the address field.
func (a Address) Valid() bool {
	return a <= MaxAddress
}

// IsBroadcast reports whether a is the broadcast address.
func (a Address) IsBroadcast() bool {
	return a == Broadcast
}

// Matches reports whether a node configured with address a must accept a
// frame sent to received. Every bit set in a must also be set in received,
// so a node answers its own address and any group address that is a
// superset of its bits. Broadcast always matches.
func (a Address) Matches(received Address) bool {
	return a&received == a || received == Broadcast
}

// WireByte returns the address byte as transmitted.
func (a Address) WireByte() byte {
	return frame.EncodeAddress(byte(a))
}

func (a Address) String() string {
	switch a {
	case Master:
		return "master"
	case Broadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("0x%X", uint8(a))
	}
}

// validSlaveAddress checks a slave's configured address. The reserved values
// would make the node match every frame on the bus.
func validSlaveAddress(a Address) error {
	if !a.Valid() || a == Master || a == Broadcast {
		return fmt.Errorf("%w: %#x", ErrInvalidAddress, uint8(a))
	}
	return nil
}
