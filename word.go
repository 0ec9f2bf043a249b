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

// Word is one unit of bus traffic: eight data bits plus the out-of-band
// address marker that a 9-bit UART delivers alongside each byte.
type Word uint16

// AddressMarker is the bit of a Word that flags the start of a frame.
const AddressMarker Word = 1 << 8

// NewAddressWord returns a word carrying b with the address marker set.
func NewAddressWord(b byte) Word {
	return Word(b) | AddressMarker
}

// NewDataWord returns a word carrying b with the address marker clear.
func NewDataWord(b byte) Word {
	return Word(b)
}

// Byte returns the eight data bits.
func (w Word) Byte() byte {
	return byte(w)
}

// IsAddress reports whether the address marker is set.
func (w Word) IsAddress() bool {
	return w&AddressMarker != 0
}

// WordsFromBytes converts a wire frame into words, marking only the first.
func WordsFromBytes(b []byte) []Word {
	words := make([]Word, len(b))
	for i, v := range b {
		words[i] = NewDataWord(v)
	}
	if len(words) > 0 {
		words[0] = NewAddressWord(b[0])
	}
	return words
}
