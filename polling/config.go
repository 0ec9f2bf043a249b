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

package polling

import (
	"errors"
	"time"
)

const (
	// DefaultPollInterval is how often the slow path runs
	DefaultPollInterval = 5 * time.Millisecond
	// DefaultStalePolls is how many idle polls a partial frame survives
	DefaultStalePolls = 20
)

// Config holds the Assembler's timing parameters
type Config struct {
	PollInterval time.Duration
	// StalePolls is the number of consecutive polls without a new word after
	// which a partially accumulated frame is discarded. Zero disables it.
	StalePolls int
}

// DefaultConfig returns the default polling configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval: DefaultPollInterval,
		StalePolls:   DefaultStalePolls,
	}
}

// Validate rejects configurations the Assembler cannot run with
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.StalePolls < 0 {
		return errors.New("stale polls must not be negative")
	}
	return nil
}

// StaleTimeout is the idle time after which a partial frame is discarded
func (c *Config) StaleTimeout() time.Duration {
	return c.PollInterval * time.Duration(c.StalePolls)
}
