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
	"context"
	"sync"
	"time"
)

// MockLink is an in-memory bus driver for tests. Words passed to Inject are
// returned by ReadWords and everything written is recorded.
type MockLink struct {
	rx          chan Word
	done        chan struct{}
	readErr     error
	writeErr    error
	written     []Word
	responses   []Response
	readTimeout time.Duration
	mu          sync.Mutex
	closed      bool
}

// NewMockLink creates a mock link with room for capacity pending words
func NewMockLink(capacity int) *MockLink {
	return &MockLink{
		rx:          make(chan Word, capacity),
		done:        make(chan struct{}),
		readTimeout: 10 * time.Millisecond,
	}
}

// Inject queues words for ReadWords. It blocks while the queue is full.
func (m *MockLink) Inject(words ...Word) {
	for _, w := range words {
		select {
		case m.rx <- w:
		case <-m.done:
			return
		}
	}
}

// ReadWords waits up to the read timeout for the first word, then returns
// every word already queued that fits in dst
func (m *MockLink) ReadWords(ctx context.Context, dst []Word) (int, error) {
	m.mu.Lock()
	readErr := m.readErr
	timeout := m.readTimeout
	m.mu.Unlock()
	if readErr != nil {
		return 0, readErr
	}
	if len(dst) == 0 {
		return 0, nil
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-m.done:
		return 0, ErrLinkClosed
	case <-time.After(timeout):
		return 0, nil
	case w := <-m.rx:
		dst[0] = w
	}

	n := 1
	for n < len(dst) {
		select {
		case w := <-m.rx:
			dst[n] = w
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// WriteWords records transmitted words
func (m *MockLink) WriteWords(words []Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrLinkClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, words...)
	return nil
}

// WriteResponse records a transmitted response
func (m *MockLink) WriteResponse(r Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrLinkClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.responses = append(m.responses, r)
	return nil
}

// Written returns a copy of all transmitted words
func (m *MockLink) Written() []Word {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Word(nil), m.written...)
}

// Responses returns a copy of all transmitted responses
func (m *MockLink) Responses() []Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Response(nil), m.responses...)
}

// Pending returns the number of injected words not yet read
func (m *MockLink) Pending() int {
	return len(m.rx)
}

// SetReadError makes every following ReadWords fail with err
func (m *MockLink) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes every following write fail with err
func (m *MockLink) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Close unblocks readers and rejects further writes
func (m *MockLink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}
