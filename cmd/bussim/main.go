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

// Command bussim runs a master and a set of slaves on an in-memory bus and
// prints what every exchange produced.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	multidrop "github.com/ZaparooProject/go-multidrop"
	testutil "github.com/ZaparooProject/go-multidrop/internal/testing"
	"github.com/ZaparooProject/go-multidrop/polling"
	"github.com/rs/zerolog"
)

type step struct {
	filter  func(int, multidrop.Word) (multidrop.Word, bool)
	name    string
	payload []byte
	dst     multidrop.Address
}

func scenario() []step {
	return []step{
		{name: "unicast to 0x1", dst: 0x01, payload: []byte("status?")},
		{name: "unicast to 0x2", dst: 0x02, payload: []byte{0x10, 0x20, 0x30}},
		{name: "broadcast", dst: multidrop.Broadcast, payload: []byte("sync")},
		{name: "corrupted payload", dst: 0x01, payload: []byte{0xAA, 0xBB}, filter: testutil.CorruptWord(2, 0x40)},
		{name: "lost checksum byte", dst: 0x02, payload: []byte{0x01}, filter: testutil.DropWord(3)},
		{name: "absent node", dst: 0x08, payload: []byte{0x00}},
		{name: "empty payload", dst: 0x02},
	}
}

func main() {
	slaves := flag.Int("slaves", 3, "Number of slaves (1-14)")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Str("app", "bussim").Logger()
	if *debug {
		multidrop.SetDebugEnabled(true)
		multidrop.SetLogger(logger)
	}

	if *slaves < 1 || *slaves > 14 {
		_, _ = fmt.Fprintln(os.Stderr, "slaves must be between 1 and 14")
		os.Exit(2)
	}

	if err := simulate(logger, *slaves); err != nil {
		logger.Error().Err(err).Msg("simulation failed")
		os.Exit(1)
	}
}

func simulate(logger zerolog.Logger, count int) error {
	bus := testutil.NewVirtualBus()

	master, err := multidrop.NewMaster()
	if err != nil {
		return err
	}
	bus.Attach("master", master)

	assemblers := make([]*polling.Assembler, 0, count)
	for i := 1; i <= count; i++ {
		addr := multidrop.Address(i)
		slave, err := multidrop.NewSlave(addr, multidrop.WithQueueCapacity(4))
		if err != nil {
			return err
		}
		name := "slave-" + addr.String()
		bus.Attach(name, slave)

		nodeLog := logger.With().Str("node", name).Logger()
		a, err := polling.NewAssembler(slave, nil, polling.Callbacks{
			OnFrame: func(f *multidrop.Frame) error {
				nodeLog.Info().
					Str("dst", f.Address.String()).
					Bool("valid", f.Valid()).
					Str("payload", hex.EncodeToString(f.Payload)).
					Msg("received")
				return nil
			},
		})
		if err != nil {
			return err
		}
		assemblers = append(assemblers, a)
	}

	for _, s := range scenario() {
		bus.SetFilter(s.filter)
		replies, err := bus.Send(master, s.dst, s.payload)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		ev := logger.Info().Str("step", s.name).Str("dst", s.dst.String()).Int("replies", len(replies))
		for _, r := range replies {
			ev = ev.Str(r.Node, r.Response.String())
		}
		ev.Msg("exchange")

		for _, a := range assemblers {
			a.PollOnce()
		}
	}
	bus.SetFilter(nil)

	if _, err := master.Send(make([]byte, multidrop.MaxSendLength+1)); err != nil {
		logger.Info().Err(err).Msg("oversized payload rejected")
	}

	stats := master.Stats()
	logger.Info().
		Uint64("words", stats.WordsIngested).
		Uint64("assembled", stats.FramesAssembled).
		Int("buffered", stats.Buffered).
		Msg("master summary")
	return nil
}
