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
	"errors"
	"fmt"
)

// WordReader is the receive side of a bus driver. ReadWords fills dst with
// received words and returns how many were read; zero words with a nil error
// means the read timed out without traffic.
type WordReader interface {
	ReadWords(ctx context.Context, dst []Word) (int, error)
}

// WordWriter is the transmit side of a bus driver
type WordWriter interface {
	WriteWords(words []Word) error
}

// ResponseWriter transmits an ACK or NACK back over the bus
type ResponseWriter interface {
	WriteResponse(r Response) error
}

// readChunk bounds how many words Serve ingests between context checks
const readChunk = 64

// Serve feeds every word read from r into t and writes any response to w
// before ingesting the next word. A nil w is allowed for a master, which never
// responds. Serve returns when ctx is done or r fails.
func Serve(ctx context.Context, t *Transport, r WordReader, w ResponseWriter) error {
	var words [readChunk]Word
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.ReadWords(ctx, words[:])
		for _, word := range words[:n] {
			resp := t.Ingest(word)
			if resp == ResponseNone || w == nil {
				continue
			}
			if werr := w.WriteResponse(resp); werr != nil {
				return fmt.Errorf("failed to write %s: %w", resp, werr)
			}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("failed to read words: %w", err)
		}
	}
}

// Transmit frames payload for dst on t and writes it with w
func Transmit(t *Transport, w WordWriter, dst Address, payload []byte) error {
	words, err := t.SendTo(dst, payload)
	if err != nil {
		return err
	}
	if err := w.WriteWords(words); err != nil {
		return fmt.Errorf("failed to transmit frame to %s: %w", dst, err)
	}
	return nil
}
