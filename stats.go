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

import "sync/atomic"

// Stats is a snapshot of a Transport's counters
type Stats struct {
	WordsIngested   uint64 // Words passed to Ingest
	FramesAcked     uint64 // ACKs returned
	FramesNacked    uint64 // NACKs returned
	BufferOverflows uint64 // Accumulation buffer exhausted mid-frame
	FramesMalformed uint64 // Frames with an invalid length field
	FramesIgnored   uint64 // Address words that did not match this node
	FramesAssembled uint64 // Frames decoded by the slow path
	FramesSalvaged  uint64 // Complete frames moved to the queue at a frame boundary
	QueueDropped    uint64 // Frames lost because the queue was full
	Buffered        int    // Bytes currently accumulated
}

type counters struct {
	words     atomic.Uint64
	acked     atomic.Uint64
	nacked    atomic.Uint64
	overflows atomic.Uint64
	malformed atomic.Uint64
	ignored   atomic.Uint64
	assembled atomic.Uint64
	salvaged  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		WordsIngested:   c.words.Load(),
		FramesAcked:     c.acked.Load(),
		FramesNacked:    c.nacked.Load(),
		BufferOverflows: c.overflows.Load(),
		FramesMalformed: c.malformed.Load(),
		FramesIgnored:   c.ignored.Load(),
		FramesAssembled: c.assembled.Load(),
		FramesSalvaged:  c.salvaged.Load(),
	}
}
