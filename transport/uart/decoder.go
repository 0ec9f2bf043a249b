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

package uart

import multidrop "github.com/ZaparooProject/go-multidrop"

// The kernel marks bytes received with a parity error as 0xFF 0x00 <byte>
// and escapes a literal 0xFF as 0xFF 0xFF (termios PARMRK). With the line in
// space parity the only bytes that fail the check are the ones sent with the
// ninth bit set, which are exactly the address words.
const (
	markPrefix  = 0xFF
	markPadding = 0x00
)

type decoderState int

const (
	stateData decoderState = iota
	statePrefix
	stateMarked
)

// Decoder turns a PARMRK byte stream back into bus words. It keeps state
// between calls so escape sequences may be split across reads.
type Decoder struct {
	state decoderState
}

// Decode writes the words contained in src to dst and returns how many were
// written. A prefix left over from the previous call can add one word, so
// dst must hold len(src)+1 words.
func (d *Decoder) Decode(dst []multidrop.Word, src []byte) int {
	n := 0
	for _, b := range src {
		switch d.state {
		case stateData:
			if b == markPrefix {
				d.state = statePrefix
				continue
			}
			dst[n] = multidrop.NewDataWord(b)
			n++
		case statePrefix:
			switch b {
			case markPrefix:
				dst[n] = multidrop.NewDataWord(markPrefix)
				n++
				d.state = stateData
			case markPadding:
				d.state = stateMarked
			default:
				// not a sequence the kernel produces; keep both bytes as data
				dst[n] = multidrop.NewDataWord(markPrefix)
				dst[n+1] = multidrop.NewDataWord(b)
				n += 2
				d.state = stateData
			}
		case stateMarked:
			dst[n] = multidrop.NewAddressWord(b)
			n++
			d.state = stateData
		}
	}
	return n
}

// Reset drops any partial escape sequence
func (d *Decoder) Reset() {
	d.state = stateData
}
