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
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	debugEnabled atomic.Bool
	logger       atomic.Pointer[zerolog.Logger]
)

func init() {
	l := zerolog.New(os.Stderr).With().Timestamp().Str("lib", "multidrop").Logger()
	logger.Store(&l)
}

// SetDebugEnabled turns library debug output on or off
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether debug output is on
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// SetLogger replaces the logger used for debug output
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

// Logger returns the logger used for debug output
func Logger() *zerolog.Logger {
	return logger.Load()
}

// Debugf logs a formatted debug message when debug output is on
func Debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	Logger().Debug().Msgf(format, args...)
}

// Debugln logs its arguments when debug output is on
func Debugln(args ...any) {
	if !debugEnabled.Load() {
		return
	}
	msg := fmt.Sprintln(args...)
	Logger().Debug().Msg(msg[:len(msg)-1])
}
