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
	"errors"
	"fmt"
	"sync"

	"github.com/ZaparooProject/go-multidrop/internal/frame"
)

// Role selects how a Transport behaves on the bus
type Role int

const (
	// RoleSlave answers every complete frame addressed to it with ACK or NACK.
	RoleSlave Role = iota
	// RoleMaster controls the bus and never acknowledges.
	RoleMaster
)

func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "master"
	case RoleSlave:
		return "slave"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Config holds the construction parameters of a Transport
type Config struct {
	Role    Role
	Address Address // Ignored for RoleMaster
}

// Transport reconstructs frames from the word stream of one bus node.
//
// Ingest is the fast path, meant to run for every received word. It never
// allocates and does a bounded amount of work. AssembleFrame is the slow
// path, meant to run periodically from a lower priority context; it copies
// the frame out and compacts the buffer. Both may run on different
// goroutines.
type Transport struct {
	queue    *Queue
	counters counters
	buf      [frame.BufferCapacity]byte
	mu       sync.Mutex
	n        int // bytes accumulated
	answered int // leading bytes already acknowledged
	address  Address
	role     Role
}

// New creates a Transport from cfg
func New(cfg Config, opts ...Option) (*Transport, error) {
	t := &Transport{role: cfg.Role}
	switch cfg.Role {
	case RoleMaster:
		t.address = Master
	case RoleSlave:
		if err := validSlaveAddress(cfg.Address); err != nil {
			return nil, err
		}
		t.address = cfg.Address
	default:
		return nil, fmt.Errorf("unknown role %d", int(cfg.Role))
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NewMaster creates the bus controller's Transport
func NewMaster(opts ...Option) (*Transport, error) {
	return New(Config{Role: RoleMaster}, opts...)
}

// NewSlave creates a slave Transport answering to addr
func NewSlave(addr Address, opts ...Option) (*Transport, error) {
	return New(Config{Role: RoleSlave, Address: addr}, opts...)
}

// Role returns the configured role
func (t *Transport) Role() Role {
	return t.role
}

// Address returns the node's own address
func (t *Transport) Address() Address {
	return t.address
}

// Queue returns the attached frame queue, or nil
func (t *Transport) Queue() *Queue {
	return t.queue
}

// Accepts reports whether a frame sent to addr belongs to this node
func (t *Transport) Accepts(addr Address) bool {
	return t.address.Matches(addr)
}

// Ingest consumes one received word and returns the response to transmit
// immediately. Only a slave ever returns ResponseAck or ResponseNack, and
// only on the word that completes or overflows a frame.
func (t *Transport) Ingest(w Word) Response {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters.words.Add(1)

	if w.IsAddress() {
		t.beginFrame(w.Byte())
		return ResponseNone
	}
	if t.n == 0 {
		// not part of a frame for this node
		return ResponseNone
	}

	if !t.push(w.Byte()) {
		t.salvage()
		t.clear()
		t.counters.overflows.Add(1)
		if t.role == RoleSlave {
			t.counters.nacked.Add(1)
			return ResponseNack
		}
		return ResponseNone
	}

	if t.role != RoleSlave {
		return ResponseNone
	}
	return t.answer()
}

// beginFrame handles an address word at a frame boundary.
func (t *Transport) beginFrame(b byte) {
	t.salvage()
	if !t.address.Matches(Address(frame.DecodeAddress(b))) {
		t.clear()
		t.counters.ignored.Add(1)
		return
	}
	t.clear()
	if !t.push(b) {
		t.clear()
		t.push(b)
	}
}

// answer checks whether the bytes after the last answered frame now hold a
// complete frame.
func (t *Transport) answer() Response {
	fields, _, err := frame.ParseBorrowed(t.buf[t.answered:t.n])
	switch {
	case errors.Is(err, frame.ErrIncomplete):
		return ResponseNone
	case err != nil:
		t.salvage()
		t.clear()
		t.counters.malformed.Add(1)
		t.counters.nacked.Add(1)
		return ResponseNack
	}

	t.answered += fields.Size()
	if frame.ValidChecksum(fields.Payload, fields.Checksum) {
		t.counters.acked.Add(1)
		return ResponseAck
	}
	t.counters.nacked.Add(1)
	return ResponseNack
}

func (t *Transport) push(b byte) bool {
	if t.n >= len(t.buf) {
		return false
	}
	t.buf[t.n] = b
	t.n++
	return true
}

func (t *Transport) clear() {
	t.n = 0
	t.answered = 0
}

// salvage moves complete frames at the front of the buffer into the queue
// before the buffer is discarded.
func (t *Transport) salvage() {
	if t.queue == nil {
		return
	}
	buf := t.buf[:t.n]
	for len(buf) > 0 {
		fields, rest, err := frame.ParseBorrowed(buf)
		if err != nil {
			return
		}
		if t.queue.push(fields) {
			t.counters.salvaged.Add(1)
		}
		buf = rest
	}
}

// consume drops the first n buffered bytes, keeping the remainder.
func (t *Transport) consume(n int) {
	t.n = copy(t.buf[:], t.buf[n:t.n])
	t.answered = max(t.answered-n, 0)
	t.counters.assembled.Add(1)
}

// AssembleFrame decodes the frame at the front of the buffer and compacts the
// buffer to the bytes that follow it. The frame is returned even when its
// checksum is wrong; check Valid. While the frame is incomplete or malformed
// the buffer is left untouched and ok is false.
//
// AssembleFrame allocates and must not be called from the ingestion path.
func (t *Transport) AssembleFrame() (f *Frame, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields, rest, err := frame.ParseBorrowed(t.buf[:t.n])
	if err != nil {
		return nil, false
	}
	f = frameFromFields(fields)
	t.consume(t.n - len(rest))
	if !f.Valid() {
		Debugf("assembled %s with checksum mismatch", f)
	}
	return f, true
}

// Poll assembles every complete frame in the buffer into the attached queue
// and returns how many were queued. Frames that do not fit stay buffered and
// ErrQueueFull is returned.
func (t *Transport) Poll() (int, error) {
	if t.queue == nil {
		return 0, ErrNoQueue
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	queued := 0
	for {
		fields, rest, err := frame.ParseBorrowed(t.buf[:t.n])
		if err != nil {
			return queued, nil
		}
		// the frame stays buffered, so it is not counted as dropped
		if t.queue.full() || !t.queue.push(fields) {
			return queued, ErrQueueFull
		}
		t.consume(t.n - len(rest))
		queued++
	}
}

// Reset discards any partially accumulated frame
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n > 0 {
		Debugf("discarding %d buffered bytes", t.n)
	}
	t.clear()
}

// Buffered returns the number of bytes accumulated for the frame in progress
func (t *Transport) Buffered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

// Stats returns a snapshot of the transport counters
func (t *Transport) Stats() Stats {
	s := t.counters.snapshot()
	s.Buffered = t.Buffered()
	if t.queue != nil {
		s.QueueDropped = t.queue.Dropped()
	}
	return s
}

// Send frames payload with the node's own address and returns the words to
// transmit, address word first. Payloads of MaxSendLength+1 bytes or more are
// rejected with a *PayloadTooLargeError and no words.
func (t *Transport) Send(payload []byte) ([]Word, error) {
	return t.SendTo(t.address, payload)
}

// SendTo frames payload for dst and returns the words to transmit
func (t *Transport) SendTo(dst Address, payload []byte) ([]Word, error) {
	if len(payload) > frame.MaxSendLength {
		return nil, &PayloadTooLargeError{Length: len(payload)}
	}
	if !dst.Valid() {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidAddress, uint8(dst))
	}
	f := NewFrame(dst, payload)
	Debugf("sending %s", f)
	return f.Words(), nil
}
