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

package uart

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// outputPin is the part of gpio.PinIO needed to drive DE/RE
type outputPin interface {
	Out(l gpio.Level) error
}

// driverEnable switches an RS-485 transceiver between receive (low) and
// transmit (high). A nil *driverEnable means the adapter handles direction.
type driverEnable struct {
	pin outputPin
}

func openDriverEnable(name string) (*driverEnable, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("unknown GPIO pin %q", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to drive %s low: %w", name, err)
	}
	return &driverEnable{pin: pin}, nil
}

// transmit runs fn with the transceiver driving the bus and always returns it
// to receive mode afterwards
func (d *driverEnable) transmit(fn func() error) error {
	if d == nil {
		return fn()
	}
	if err := d.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to enable bus driver: %w", err)
	}
	err := fn()
	if lowErr := d.pin.Out(gpio.Low); lowErr != nil && err == nil {
		err = fmt.Errorf("failed to release bus driver: %w", lowErr)
	}
	return err
}

func (d *driverEnable) release() {
	if d == nil {
		return
	}
	_ = d.pin.Out(gpio.Low)
}
