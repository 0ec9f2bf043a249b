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

package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

// These tests replace the package level enumerator and must not run in parallel.

func withPorts(t *testing.T, ports []*enumerator.PortDetails, err error) {
	t.Helper()
	orig := listPorts
	listPorts = func() ([]*enumerator.PortDetails, error) { return ports, err }
	t.Cleanup(func() { listPorts = orig })
}

func testPorts() []*enumerator.PortDetails {
	return []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "1a86", PID: "7523", Product: "USB Serial"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043", Product: "Arduino Uno"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", SerialNumber: "A10K"},
	}
}

func TestDetect(t *testing.T) {
	withPorts(t, testPorts(), nil)

	devices, err := Detect(context.Background(), &Options{})
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, "/dev/ttyUSB0", devices[0].Path)
	assert.Equal(t, "FTDI FT232R", devices[0].Adapter)
	assert.Equal(t, "A10K", devices[0].SerialNumber)
	assert.Equal(t, "/dev/ttyUSB1", devices[1].Path)
	assert.Equal(t, "1A86:7523", devices[1].VIDPID)
	assert.Equal(t, "/dev/ttyS0", devices[2].Path)
	assert.False(t, devices[2].USB)
	assert.Equal(t, "/dev/ttyUSB0 (FTDI FT232R, 0403:6001)", devices[0].String())
	assert.Equal(t, "/dev/ttyS0", devices[2].String())
}

func TestDetect_Filters(t *testing.T) {
	withPorts(t, testPorts(), nil)

	devices, err := Detect(context.Background(), &Options{
		KnownOnly:   true,
		IgnorePaths: []string{"/dev/ttyUSB1"},
	})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/ttyUSB0", devices[0].Path)

	devices, err = Detect(context.Background(), &Options{Blocklist: []string{}})
	require.NoError(t, err)
	assert.Len(t, devices, 4)
}

func TestDetect_NoDevices(t *testing.T) {
	withPorts(t, nil, nil)

	_, err := Detect(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoDevicesFound)
}

func TestDetect_EnumeratorError(t *testing.T) {
	boom := errors.New("boom")
	withPorts(t, nil, boom)

	_, err := Detect(context.Background(), &Options{})
	require.ErrorIs(t, err, boom)
}

func TestDetect_Canceled(t *testing.T) {
	withPorts(t, testPorts(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Detect(ctx, &Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Nil(t, opts.IgnorePaths)
	assert.True(t, opts.CheckAccess)
	assert.Equal(t, DefaultBlocklist(), opts.Blocklist)
}
