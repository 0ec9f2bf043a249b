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

// Package detection finds serial ports that can carry a multidrop bus.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
)

var (
	// ErrNoDevicesFound is returned when no candidate port survives filtering
	ErrNoDevicesFound = errors.New("no serial ports found")
	// ErrUnsupportedPlatform is returned where ports cannot be enumerated
	ErrUnsupportedPlatform = errors.New("port enumeration not supported on this platform")
)

// Options filter the detected ports
type Options struct {
	Blocklist   []string // VID:PID pairs to skip; nil uses DefaultBlocklist
	IgnorePaths []string // Device paths to skip
	// KnownOnly keeps only adapters listed in KnownAdapters
	KnownOnly bool
	// CheckAccess drops ports the process cannot open for reading and writing
	CheckAccess bool
}

// DefaultOptions returns the options used when nil is passed to Detect
func DefaultOptions() *Options {
	return &Options{
		Blocklist:   DefaultBlocklist(),
		CheckAccess: true,
	}
}

// DeviceInfo describes a detected serial port
type DeviceInfo struct {
	Path         string
	VIDPID       string
	Adapter      string // Chip name when the adapter is known
	Product      string
	SerialNumber string
	USB          bool
}

// String returns a one line description of the port
func (d DeviceInfo) String() string {
	switch {
	case d.Adapter != "":
		return fmt.Sprintf("%s (%s, %s)", d.Path, d.Adapter, d.VIDPID)
	case d.VIDPID != "":
		return fmt.Sprintf("%s (%s)", d.Path, d.VIDPID)
	default:
		return d.Path
	}
}

// listPorts is replaced in tests
var listPorts = enumerator.GetDetailedPortsList

// Detect lists serial ports that could host a bus link. Known adapters are
// sorted first.
func Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	blocklist := opts.Blocklist
	if blocklist == nil {
		blocklist = DefaultBlocklist()
	}

	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(ports))
	for _, p := range ports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := DeviceInfo{
			Path:         p.Name,
			USB:          p.IsUSB,
			Product:      p.Product,
			SerialNumber: p.SerialNumber,
		}
		if p.IsUSB {
			info.VIDPID = FormatVIDPID(p.VID, p.PID)
			info.Adapter = AdapterName(info.VIDPID)
		}

		switch {
		case IsPathIgnored(info.Path, opts.IgnorePaths):
			continue
		case IsBlocked(info.VIDPID, blocklist):
			continue
		case opts.KnownOnly && info.Adapter == "":
			continue
		case opts.CheckAccess && !canAccess(info.Path):
			continue
		}
		devices = append(devices, info)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	sort.SliceStable(devices, func(i, j int) bool {
		ki, kj := devices[i].Adapter != "", devices[j].Adapter != ""
		if ki != kj {
			return ki
		}
		return devices[i].Path < devices[j].Path
	})
	return devices, nil
}
