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

// Package config loads the TOML configuration of a bus node.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	multidrop "github.com/ZaparooProject/go-multidrop"
	"github.com/ZaparooProject/go-multidrop/polling"
	"github.com/ZaparooProject/go-multidrop/transport/uart"
	"github.com/rs/zerolog"
)

// NodeConfig is everything cmd/busnode needs to run one node
type NodeConfig struct {
	Name          string
	MetricsAddr   string
	LogLevel      zerolog.Level
	Serial        uart.Config
	Poll          polling.Config
	QueueCapacity int
	Role          multidrop.Role
	Address       multidrop.Address
	Debug         bool
}

// DefaultNodeConfig returns a slave configuration without a serial path
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Name:          "busnode",
		LogLevel:      zerolog.InfoLevel,
		Serial:        uart.DefaultConfig(""),
		Poll:          *polling.DefaultConfig(),
		QueueCapacity: 8,
		Role:          multidrop.RoleSlave,
		Address:       0x01,
	}
}

type fileConfig struct {
	Name          string `toml:"name"`
	Role          string `toml:"role"`
	Address       int    `toml:"address"`
	QueueCapacity int    `toml:"queue_capacity"`
	MetricsAddr   string `toml:"metrics_addr"`
	LogLevel      string `toml:"log_level"`
	Debug         bool   `toml:"debug"`

	Serial struct {
		Path            string `toml:"path"`
		BaudRate        int    `toml:"baud_rate"`
		ReadTimeout     string `toml:"read_timeout"`
		DriverEnablePin string `toml:"driver_enable_pin"`
		OpenRetries     int    `toml:"open_retries"`
	} `toml:"serial"`

	Poll struct {
		Interval   string `toml:"interval"`
		StalePolls int    `toml:"stale_polls"`
	} `toml:"poll"`
}

// Load reads path over DefaultNodeConfig and validates the result. Keys
// absent from the file keep their default.
func Load(path string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return NodeConfig{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := apply(&cfg, meta, &raw); err != nil {
		return NodeConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func apply(cfg *NodeConfig, meta toml.MetaData, raw *fileConfig) error {
	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("role") {
		role, err := ParseRole(raw.Role)
		if err != nil {
			return err
		}
		cfg.Role = role
	}
	if meta.IsDefined("address") {
		if raw.Address < 0 || raw.Address > 0xFF {
			return fmt.Errorf("address %d out of range", raw.Address)
		}
		cfg.Address = multidrop.Address(raw.Address)
	}
	if meta.IsDefined("queue_capacity") {
		cfg.QueueCapacity = raw.QueueCapacity
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	if meta.IsDefined("debug") {
		cfg.Debug = raw.Debug
	}

	if meta.IsDefined("serial", "path") {
		cfg.Serial.Path = strings.TrimSpace(raw.Serial.Path)
	}
	if meta.IsDefined("serial", "baud_rate") {
		cfg.Serial.BaudRate = raw.Serial.BaudRate
	}
	if meta.IsDefined("serial", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Serial.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse serial.read_timeout: %w", err)
		}
		cfg.Serial.ReadTimeout = d
	}
	if meta.IsDefined("serial", "driver_enable_pin") {
		cfg.Serial.DriverEnablePin = strings.TrimSpace(raw.Serial.DriverEnablePin)
	}
	if meta.IsDefined("serial", "open_retries") {
		cfg.Serial.OpenRetries = raw.Serial.OpenRetries
	}

	if meta.IsDefined("poll", "interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Poll.Interval))
		if err != nil {
			return fmt.Errorf("parse poll.interval: %w", err)
		}
		cfg.Poll.PollInterval = d
	}
	if meta.IsDefined("poll", "stale_polls") {
		cfg.Poll.StalePolls = raw.Poll.StalePolls
	}
	return nil
}

// ParseRole accepts "master" or "slave"
func ParseRole(s string) (multidrop.Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "master":
		return multidrop.RoleMaster, nil
	case "slave":
		return multidrop.RoleSlave, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// Validate checks a configuration regardless of where it came from
func Validate(cfg NodeConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("node config missing name")
	}
	if cfg.Role == multidrop.RoleSlave {
		if _, err := multidrop.NewSlave(cfg.Address); err != nil {
			return fmt.Errorf("slave address: %w", err)
		}
	}
	if cfg.QueueCapacity < 0 {
		return fmt.Errorf("queue_capacity must not be negative")
	}
	if cfg.Serial.BaudRate < 0 {
		return fmt.Errorf("serial.baud_rate must not be negative")
	}
	if err := cfg.Poll.Validate(); err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	return nil
}
