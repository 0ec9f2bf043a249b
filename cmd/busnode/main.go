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

// Command busnode runs one multidrop bus node on a serial port and logs the
// frames it receives.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	multidrop "github.com/ZaparooProject/go-multidrop"
	"github.com/ZaparooProject/go-multidrop/detection"
	"github.com/ZaparooProject/go-multidrop/internal/config"
	"github.com/ZaparooProject/go-multidrop/metrics"
	"github.com/ZaparooProject/go-multidrop/polling"
	"github.com/ZaparooProject/go-multidrop/transport/uart"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type flags struct {
	configPath  *string
	devicePath  *string
	role        *string
	address     *uint
	metricsAddr *string
	send        *string
	sendTo      *uint
	debug       *bool
	list        *bool
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "", "TOML node configuration file"),
		devicePath: flag.String("device", "",
			"Serial device path (e.g., /dev/ttyUSB0). Leave empty for auto-detection."),
		role:        flag.String("role", "", "Node role: master or slave (overrides config)"),
		address:     flag.Uint("address", 0, "Slave address 1-14 (overrides config)"),
		metricsAddr: flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9102"),
		send:        flag.String("send", "", "Hex payload to transmit once the link is up"),
		sendTo:      flag.Uint("to", uint(multidrop.Broadcast), "Destination address for -send"),
		debug:       flag.Bool("debug", false, "Enable debug output"),
		list:        flag.Bool("list", false, "List candidate serial ports and exit"),
	}
	flag.Parse()
	return f
}

func loadConfig(f *flags) (config.NodeConfig, error) {
	cfg := config.DefaultNodeConfig()
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			return config.NodeConfig{}, err
		}
		cfg = loaded
	}

	if *f.devicePath != "" {
		cfg.Serial.Path = *f.devicePath
	}
	if *f.role != "" {
		role, err := config.ParseRole(*f.role)
		if err != nil {
			return config.NodeConfig{}, err
		}
		cfg.Role = role
	}
	if *f.address != 0 {
		cfg.Address = multidrop.Address(*f.address)
	}
	if *f.metricsAddr != "" {
		cfg.MetricsAddr = *f.metricsAddr
	}
	if *f.debug {
		cfg.Debug = true
		cfg.LogLevel = zerolog.DebugLevel
	}
	if err := config.Validate(cfg); err != nil {
		return config.NodeConfig{}, err
	}
	return cfg, nil
}

func resolvePort(ctx context.Context, logger zerolog.Logger, cfg *config.NodeConfig) error {
	if cfg.Serial.Path != "" {
		return nil
	}
	logger.Info().Msg("auto-detecting serial ports")
	devices, err := detection.Detect(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to detect a serial port: %w", err)
	}
	cfg.Serial.Path = devices[0].Path
	logger.Info().Str("port", devices[0].String()).Msg("using detected port")
	return nil
}

func listPorts(ctx context.Context) error {
	devices, err := detection.Detect(ctx, &detection.Options{CheckAccess: false})
	if err != nil {
		return err
	}
	for _, d := range devices {
		_, _ = fmt.Println(d.String())
	}
	return nil
}

func newTransport(cfg config.NodeConfig) (*multidrop.Transport, error) {
	var opts []multidrop.Option
	if cfg.QueueCapacity > 0 {
		opts = append(opts, multidrop.WithQueueCapacity(cfg.QueueCapacity))
	}
	t, err := multidrop.New(multidrop.Config{Role: cfg.Role, Address: cfg.Address}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	return t, nil
}

func serveMetrics(ctx context.Context, logger zerolog.Logger, addr string, c *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func logFrame(logger zerolog.Logger) func(*multidrop.Frame) error {
	return func(f *multidrop.Frame) error {
		ev := logger.Info()
		if !f.Valid() {
			ev = logger.Warn()
		}
		ev.Str("dst", f.Address.String()).
			Int("len", f.Len()).
			Bool("valid", f.Valid()).
			Str("payload", hex.EncodeToString(f.Payload)).
			Msg("frame")
		return nil
	}
}

func run(ctx context.Context, logger zerolog.Logger, cfg config.NodeConfig, f *flags) error {
	if err := resolvePort(ctx, logger, &cfg); err != nil {
		return err
	}

	t, err := newTransport(cfg)
	if err != nil {
		return err
	}

	port, err := uart.Open(ctx, cfg.Serial)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	defer func() { _ = port.Close() }()

	poll := cfg.Poll
	assembler, err := polling.NewAssembler(t, &poll, polling.Callbacks{
		OnFrame: logFrame(logger),
		OnStale: func(n int) { logger.Debug().Int("bytes", n).Msg("discarded stale partial frame") },
	})
	if err != nil {
		return fmt.Errorf("failed to create assembler: %w", err)
	}
	if err := assembler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start assembler: %w", err)
	}
	defer assembler.Stop()

	if cfg.MetricsAddr != "" {
		c := metrics.NewCollector()
		c.Add(cfg.Name, t, assembler)
		serveMetrics(ctx, logger, cfg.MetricsAddr, c)
	}

	if *f.send != "" {
		payload, err := hex.DecodeString(*f.send)
		if err != nil {
			return fmt.Errorf("invalid -send payload: %w", err)
		}
		if err := multidrop.Transmit(t, port, multidrop.Address(*f.sendTo), payload); err != nil {
			return fmt.Errorf("failed to send: %w", err)
		}
		logger.Info().Int("len", len(payload)).Uint("to", *f.sendTo).Msg("sent frame")
	}

	logger.Info().
		Str("port", port.Path()).
		Str("role", t.Role().String()).
		Str("address", t.Address().String()).
		Msg("node running")

	err = multidrop.Serve(ctx, t, port, port)
	if errors.Is(err, context.Canceled) {
		stats := t.Stats()
		logger.Info().
			Uint64("words", stats.WordsIngested).
			Uint64("acks", stats.FramesAcked).
			Uint64("nacks", stats.FramesNacked).
			Msg("node stopped")
		return nil
	}
	return err
}

func main() {
	f := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *f.list {
		if err := listPorts(ctx); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to list ports: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(f)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := initLogger("busnode", cfg.LogLevel)
	if cfg.Debug {
		multidrop.SetDebugEnabled(true)
		multidrop.SetLogger(logger.With().Str("lib", "multidrop").Logger())
	}

	if err := run(ctx, logger, cfg, f); err != nil {
		logger.Error().Err(err).Msg("node failed")
		stop()
		os.Exit(1)
	}
}
