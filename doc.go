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

/*
Package multidrop implements the framing layer of a 9-bit multidrop serial
bus: one master, up to fourteen slaves and a broadcast address sharing a
single RS-485 pair.

Every frame starts with an address word, a word whose ninth bit is set. The
rest of the frame is data words:

	address | length | payload (0-254 bytes) | CRC-16/USB low | high

The address value sits in the upper nibble of the first byte. The checksum
covers the payload only.

A Transport reconstructs frames one word at a time. Ingest is the fast path
and runs for every received word. It never allocates and returns the
response a slave must put on the bus straight away:

	t, err := multidrop.NewSlave(0x02, multidrop.WithQueueCapacity(8))
	if err != nil {
	    return err
	}

	for w := range words {
	    if code, ok := t.Ingest(w).Bytes(); ok {
	        send(code[:])
	    }
	}

AssembleFrame and Poll are the slow path. They copy completed frames out of
the accumulation buffer and are meant to run from a lower priority loop, such
as the one polling.Assembler provides.

Address Matching:

A node accepts a frame when every bit of its own address is set in the
destination, or when the destination is Broadcast. The master has address
zero and therefore sees all traffic, but never answers.

Links:

Serve connects a Transport to anything implementing WordReader and
ResponseWriter; transport/uart provides one for Linux serial ports.

Error Handling:

No error is fatal to a Transport. Malformed frames are answered with NACK
and dropped; errors returned by the API can be inspected with errors.Is:

	if errors.Is(err, multidrop.ErrPayloadTooLarge) {
	    // split the payload
	}
*/
package multidrop
