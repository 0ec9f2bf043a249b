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

import "errors"

// Option is a functional option for configuring a Transport
type Option func(*Transport) error

// WithQueue attaches a bounded frame queue. Complete frames still buffered
// when the next frame begins are moved into it instead of being discarded,
// and Poll assembles into it.
func WithQueue(q *Queue) Option {
	return func(t *Transport) error {
		if q == nil {
			return errors.New("nil frame queue")
		}
		t.queue = q
		return nil
	}
}

// WithQueueCapacity attaches a new queue holding up to capacity frames
func WithQueueCapacity(capacity int) Option {
	return func(t *Transport) error {
		if capacity < 1 {
			return errors.New("queue capacity must be positive")
		}
		t.queue = NewQueue(capacity)
		return nil
	}
}
