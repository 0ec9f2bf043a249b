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

	"github.com/ZaparooProject/go-multidrop/internal/frame"
)

// Protocol errors
var (
	ErrIncomplete       = frame.ErrIncomplete
	ErrInvalidLength    = frame.ErrInvalidLength
	ErrBufferExhausted  = errors.New("accumulation buffer exhausted")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrInvalidAddress   = errors.New("invalid node address")
	ErrUnknownResponse  = errors.New("unknown response code")
	ErrQueueFull        = errors.New("frame queue full")
	ErrNoQueue          = errors.New("no frame queue attached")
)

// Link errors
var (
	ErrLinkClosed = errors.New("link closed")
	ErrLinkRead   = errors.New("link read failed")
	ErrLinkWrite  = errors.New("link write failed")
)

// PayloadTooLargeError reports a send that was rejected before any word was
// produced.
type PayloadTooLargeError struct {
	Length int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds %d byte limit", e.Length, frame.MaxSendLength)
}

// Unwrap returns ErrPayloadTooLarge
func (*PayloadTooLargeError) Unwrap() error {
	return ErrPayloadTooLarge
}

// LinkError describes a failure of the hardware link feeding a Transport
type LinkError struct {
	Err  error
	Op   string
	Port string
}

func (e *LinkError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// NewLinkError wraps err with the operation and port it happened on
func NewLinkError(op, port string, err error) error {
	return &LinkError{Op: op, Port: port, Err: err}
}
