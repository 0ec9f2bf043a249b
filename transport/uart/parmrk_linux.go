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

//go:build linux

package uart

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// enableParityMarking turns on PARMRK so bytes received with a parity error
// reach userspace prefixed by 0xFF 0x00. The serial library does not expose
// input flags, so the setting is applied through a second descriptor; termios
// state belongs to the device, not the descriptor.
func enableParityMarking(path string) error {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s for termios: %w", path, err)
	}
	defer func() { _ = unix.Close(fd) }()

	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to read termios: %w", err)
	}
	tio.Iflag |= unix.PARMRK | unix.INPCK
	tio.Iflag &^= unix.IGNPAR | unix.ISTRIP | unix.IGNBRK | unix.BRKINT
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, tio); err != nil {
		return fmt.Errorf("failed to write termios: %w", err)
	}
	return nil
}
