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

// Package polling runs the slow path of a multidrop transport on a timer:
// it assembles frames out of the accumulation buffer, hands them to a
// callback and discards partial frames that stopped receiving words.
package polling

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	multidrop "github.com/ZaparooProject/go-multidrop"
)

// ErrAlreadyRunning is returned by Start on a running Assembler
var ErrAlreadyRunning = errors.New("assembler is already running")

// Callbacks receive the Assembler's events. All are optional and run on the
// polling goroutine.
type Callbacks struct {
	// OnFrame receives every assembled frame, including frames whose
	// checksum does not match.
	OnFrame func(f *multidrop.Frame) error
	// OnStale is called with the number of bytes discarded by a stale reset
	OnStale func(discarded int)
}

// Metrics tracks the Assembler's activity
type Metrics struct {
	PollCycles      int64         // Total number of polls
	FramesDelivered int64         // Frames passed to OnFrame
	InvalidFrames   int64         // Delivered frames with a checksum mismatch
	CallbackErrors  int64         // OnFrame calls that returned an error
	StaleResets     int64         // Partial frames discarded after going idle
	LastPollLatency time.Duration // Duration of the last poll
}

// Assembler drives a Transport's slow path
type Assembler struct {
	transport *multidrop.Transport
	config    *Config
	callbacks Callbacks
	cancel    context.CancelFunc
	done      chan struct{}
	stopMu    sync.Mutex
	pollMu    sync.Mutex
	running   atomic.Bool

	pollCycles      atomic.Int64
	framesDelivered atomic.Int64
	invalidFrames   atomic.Int64
	callbackErrors  atomic.Int64
	staleResets     atomic.Int64
	lastPollLatency atomic.Int64

	// guarded by pollMu
	lastWords uint64
	idlePolls int
}

// NewAssembler creates an Assembler for t. A nil config uses DefaultConfig.
func NewAssembler(t *multidrop.Transport, config *Config, callbacks Callbacks) (*Assembler, error) {
	if t == nil {
		return nil, errors.New("transport cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{
		transport: t,
		config:    config,
		callbacks: callbacks,
	}, nil
}

// Start begins polling in the background until ctx is done or Stop is called
func (a *Assembler) Start(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.stopMu.Lock()
	a.cancel = cancel
	a.done = done
	a.stopMu.Unlock()

	go func() {
		defer close(done)
		defer a.running.Store(false)
		a.pollLoop(pollCtx)
	}()
	return nil
}

func (a *Assembler) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.PollOnce()
		}
	}
}

// Stop halts polling and waits for the polling goroutine to exit
func (a *Assembler) Stop() {
	a.stopMu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.stopMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsRunning returns whether the polling goroutine is active
func (a *Assembler) IsRunning() bool {
	return a.running.Load()
}

// PollOnce runs one slow-path pass and returns the number of frames
// delivered. It is safe to call while the Assembler is running.
func (a *Assembler) PollOnce() int {
	a.pollMu.Lock()
	defer a.pollMu.Unlock()

	start := time.Now()
	delivered := a.collect()
	a.checkStale(delivered)

	a.pollCycles.Add(1)
	a.lastPollLatency.Store(time.Since(start).Nanoseconds())
	return delivered
}

func (a *Assembler) collect() int {
	q := a.transport.Queue()
	if q == nil {
		delivered := 0
		for {
			f, ok := a.transport.AssembleFrame()
			if !ok {
				return delivered
			}
			a.deliver(f)
			delivered++
		}
	}

	delivered := 0
	for {
		_, err := a.transport.Poll()
		frames := q.Drain()
		for _, f := range frames {
			a.deliver(f)
		}
		delivered += len(frames)
		// the queue was full; drained now, so go again
		if !errors.Is(err, multidrop.ErrQueueFull) {
			return delivered
		}
	}
}

func (a *Assembler) deliver(f *multidrop.Frame) {
	a.framesDelivered.Add(1)
	if !f.Valid() {
		a.invalidFrames.Add(1)
	}
	if a.callbacks.OnFrame == nil {
		return
	}
	if err := a.callbacks.OnFrame(f); err != nil {
		a.callbackErrors.Add(1)
		multidrop.Debugf("frame callback failed: %v", err)
	}
}

// checkStale discards a partial frame once no word arrived for StalePolls
// consecutive polls
func (a *Assembler) checkStale(delivered int) {
	stats := a.transport.Stats()
	words := stats.WordsIngested
	progressed := words != a.lastWords || delivered > 0
	a.lastWords = words

	if progressed || stats.Buffered == 0 || a.config.StalePolls == 0 {
		a.idlePolls = 0
		return
	}
	a.idlePolls++
	if a.idlePolls < a.config.StalePolls {
		return
	}

	a.idlePolls = 0
	a.transport.Reset()
	a.staleResets.Add(1)
	multidrop.Debugf("discarded %d stale bytes after %v idle", stats.Buffered, a.config.StaleTimeout())
	if a.callbacks.OnStale != nil {
		a.callbacks.OnStale(stats.Buffered)
	}
}

// GetMetrics returns current operational metrics
func (a *Assembler) GetMetrics() Metrics {
	return Metrics{
		PollCycles:      a.pollCycles.Load(),
		FramesDelivered: a.framesDelivered.Load(),
		InvalidFrames:   a.invalidFrames.Load(),
		CallbackErrors:  a.callbackErrors.Load(),
		StaleResets:     a.staleResets.Load(),
		LastPollLatency: time.Duration(a.lastPollLatency.Load()),
	}
}
