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

// Package retry provides the retry loop shared by bus links
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is returned when every attempt asked for a retry
var ErrRetriesExhausted = errors.New("retries exhausted")

// Operation is a function that can be retried.
// Returns: data, shouldRetry, error
//   - data: the result if successful
//   - shouldRetry: true if the operation should be retried
//   - error: the last failure; permanent when shouldRetry is false
type Operation[T any] func() (T, bool, error)

// Config configures retry behavior
type Config struct {
	OnRetry     func(attempt int, err error)
	Description string
	MaxRetries  int
	RetryDelay  time.Duration
}

// Do executes an operation with retry logic. The delay between attempts
// respects ctx.
func Do[T any](ctx context.Context, config Config, operation Operation[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if !shouldRetry {
			return result, err
		}
		lastErr = err

		// If we should retry but we're at max attempts, break
		if attempt >= config.MaxRetries {
			break
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt+1, err)
		}

		if config.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("%s: %w", config.Description, ctx.Err())
			case <-time.After(config.RetryDelay):
			}
		}
	}

	if lastErr == nil {
		return zero, fmt.Errorf("%s: %w", config.Description, ErrRetriesExhausted)
	}
	return zero, fmt.Errorf("%s: %w: %w", config.Description, ErrRetriesExhausted, lastErr)
}
