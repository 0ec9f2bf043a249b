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

// Package testing provides an in-memory multidrop bus for tests and
// simulations that run without serial hardware.
package testing

import (
	"errors"
	"fmt"
	"sync"

	multidrop "github.com/ZaparooProject/go-multidrop"
)

// ErrUnknownNode is returned for a transport that was never attached
var ErrUnknownNode = errors.New("node not attached to bus")

// Reply is a response produced by one node while words were on the bus
type Reply struct {
	Node     string
	Response multidrop.Response
	Address  multidrop.Address
	Word     int // index of the word that triggered the response
}

type busNode struct {
	transport *multidrop.Transport
	name      string
	replies   []Reply
}

// VirtualBus delivers every transmitted word to every attached node in
// attachment order, the way a shared RS-485 pair does.
type VirtualBus struct {
	filter func(i int, w multidrop.Word) (multidrop.Word, bool)
	nodes  []*busNode
	mu     sync.Mutex
}

// NewVirtualBus creates an empty bus
func NewVirtualBus() *VirtualBus {
	return &VirtualBus{}
}

// Attach connects t to the bus under name
func (b *VirtualBus) Attach(name string, t *multidrop.Transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = append(b.nodes, &busNode{name: name, transport: t})
}

// SetFilter installs a function that may rewrite or drop each word before
// it reaches the nodes, to simulate line noise. Nil removes the filter.
func (b *VirtualBus) SetFilter(filter func(i int, w multidrop.Word) (multidrop.Word, bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = filter
}

// Transmit puts words on the bus and returns the responses they caused
func (b *VirtualBus) Transmit(words []multidrop.Word) []Reply {
	b.mu.Lock()
	defer b.mu.Unlock()

	var replies []Reply
	for i, w := range words {
		if b.filter != nil {
			var keep bool
			if w, keep = b.filter(i, w); !keep {
				continue
			}
		}
		for _, n := range b.nodes {
			r := n.transport.Ingest(w)
			if r == multidrop.ResponseNone {
				continue
			}
			reply := Reply{Node: n.name, Address: n.transport.Address(), Response: r, Word: i}
			n.replies = append(n.replies, reply)
			replies = append(replies, reply)
		}
	}
	return replies
}

// Send frames payload for dst through from and transmits it
func (b *VirtualBus) Send(from *multidrop.Transport, dst multidrop.Address, payload []byte) ([]Reply, error) {
	words, err := from.SendTo(dst, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to frame payload: %w", err)
	}
	return b.Transmit(words), nil
}

// Replies returns every response t has produced on this bus
func (b *VirtualBus) Replies(t *multidrop.Transport) ([]Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.nodes {
		if n.transport == t {
			return append([]Reply(nil), n.replies...), nil
		}
	}
	return nil, ErrUnknownNode
}

// Nodes returns the attached node names in attachment order
func (b *VirtualBus) Nodes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.nodes))
	for _, n := range b.nodes {
		names = append(names, n.name)
	}
	return names
}

// CorruptWord returns a filter that flips mask in the byte of word index
func CorruptWord(index int, mask byte) func(int, multidrop.Word) (multidrop.Word, bool) {
	return func(i int, w multidrop.Word) (multidrop.Word, bool) {
		if i != index {
			return w, true
		}
		if w.IsAddress() {
			return multidrop.NewAddressWord(w.Byte() ^ mask), true
		}
		return multidrop.NewDataWord(w.Byte() ^ mask), true
	}
}

// DropWord returns a filter that removes word index from the stream
func DropWord(index int) func(int, multidrop.Word) (multidrop.Word, bool) {
	return func(i int, w multidrop.Word) (multidrop.Word, bool) {
		return w, i != index
	}
}
