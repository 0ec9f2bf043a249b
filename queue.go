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
	"sync"
	"sync/atomic"

	"github.com/ZaparooProject/go-multidrop/internal/frame"
)

type queueSlot struct {
	payload  [frame.MaxPayloadLength]byte
	length   int
	checksum uint16
	address  Address
}

// Queue is a bounded FIFO of received frames handed from a Transport to the
// application. All storage is allocated by NewQueue, so enqueueing from the
// ingestion path never allocates. When the queue is full new frames are
// dropped and counted.
type Queue struct {
	slots   []queueSlot
	dropped atomic.Uint64
	mu      sync.Mutex
	head    int
	count   int
}

// NewQueue creates a queue holding up to capacity frames
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{slots: make([]queueSlot, capacity)}
}

func (q *Queue) push(fields frame.Fields) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.slots) {
		q.dropped.Add(1)
		return false
	}
	slot := &q.slots[(q.head+q.count)%len(q.slots)]
	slot.length = copy(slot.payload[:], fields.Payload)
	slot.checksum = fields.Checksum
	slot.address = Address(fields.Address)
	q.count++
	return true
}

func (q *Queue) full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count == len(q.slots)
}

// Push adds a frame to the back of the queue
func (q *Queue) Push(f *Frame) error {
	if len(f.Payload) > frame.MaxPayloadLength {
		return ErrInvalidLength
	}
	if !q.push(frame.Fields{Address: byte(f.Address), Payload: f.Payload, Checksum: f.Checksum}) {
		return ErrQueueFull
	}
	return nil
}

// Pop removes and returns the oldest frame
func (q *Queue) Pop() (*Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil, false
	}
	slot := &q.slots[q.head]
	f := frameFromFields(frame.Fields{
		Address:  byte(slot.address),
		Payload:  slot.payload[:slot.length],
		Checksum: slot.checksum,
	})
	q.head = (q.head + 1) % len(q.slots)
	q.count--
	return f, true
}

// Drain pops every queued frame
func (q *Queue) Drain() []*Frame {
	var frames []*Frame
	for {
		f, ok := q.Pop()
		if !ok {
			return frames
		}
		frames = append(frames, f)
	}
}

// Len returns the number of queued frames
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity
func (q *Queue) Cap() int {
	return len(q.slots)
}

// Dropped returns how many frames were discarded because the queue was full
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
