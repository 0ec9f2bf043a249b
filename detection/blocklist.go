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
	"path/filepath"
	"regexp"
	"strings"
)

// KnownAdapters maps VID:PID to USB serial chips commonly found on RS-485
// adapters that support mark and space parity
var KnownAdapters = map[string]string{
	"0403:6001": "FTDI FT232R",
	"0403:6010": "FTDI FT2232",
	"0403:6011": "FTDI FT4232",
	"0403:6014": "FTDI FT232H",
	"0403:6015": "FTDI FT231X",
	"10C4:EA60": "Silicon Labs CP210x",
	"1A86:7523": "WCH CH340",
	"067B:2303": "Prolific PL2303",
}

// DefaultBlocklist returns VID:PID pairs of serial devices that are never
// bus adapters and should not be opened during detection
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno, resets when its port is opened
		"2341:0001", // Arduino Uno (old bootloader)
		"1366:0105", // SEGGER J-Link virtual COM port
		"0483:374B", // ST-LINK/V2-1 virtual COM port
	}
}

// IsBlocked checks if a USB device is in the blocklist
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = normalizeVIDPID(vidpid)
	if vidpid == "" {
		return false
	}
	for _, blocked := range blocklist {
		if normalizeVIDPID(blocked) == vidpid {
			return true
		}
	}
	return false
}

// AdapterName returns the chip name of a known adapter, or ""
func AdapterName(vidpid string) string {
	return KnownAdapters[normalizeVIDPID(vidpid)]
}

func normalizeVIDPID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

var (
	vidPattern    = regexp.MustCompile(`(?:VID[:=_]|VENDOR=)([0-9A-F]{1,4})`)
	pidPattern    = regexp.MustCompile(`(?:PID[:=_]|PRODUCT=)([0-9A-F]{1,4})`)
	simplePattern = regexp.MustCompile(`^([0-9A-F]{1,4}):([0-9A-F]{1,4})$`)
)

// ParseVIDPID extracts VID:PID from descriptors such as "VID:1234 PID:5678",
// "USB\VID_1234&PID_5678", "vendor=1234 product=5678" or "1234:5678". The
// result is upper case, or "" when nothing was found.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(strings.TrimSpace(descriptor))

	vid := vidPattern.FindStringSubmatch(descriptor)
	pid := pidPattern.FindStringSubmatch(descriptor)
	if vid != nil && pid != nil {
		return vid[1] + ":" + pid[1]
	}
	if m := simplePattern.FindStringSubmatch(descriptor); m != nil {
		return m[1] + ":" + m[2]
	}
	return ""
}

// FormatVIDPID joins the hex strings reported by the port enumerator
func FormatVIDPID(vid, pid string) string {
	if vid == "" || pid == "" {
		return ""
	}
	return normalizeVIDPID(vid) + ":" + normalizeVIDPID(pid)
}

// IsPathIgnored checks if a device path should be ignored. Paths are
// compared after cleaning and case folding, so "COM2" matches "com2".
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := normalizedPath(devicePath)
	for _, ignore := range ignorePaths {
		if ignore != "" && normalizedPath(ignore) == device {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
