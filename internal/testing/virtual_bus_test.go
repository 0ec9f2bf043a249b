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

package testing

import (
	"testing"

	multidrop "github.com/ZaparooProject/go-multidrop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBus struct {
	bus    *VirtualBus
	master *multidrop.Transport
	slave1 *multidrop.Transport
	slave2 *multidrop.Transport
}

func newTestBus(t *testing.T) testBus {
	t.Helper()
	master, err := multidrop.NewMaster()
	require.NoError(t, err)
	slave1, err := multidrop.NewSlave(0x01)
	require.NoError(t, err)
	slave2, err := multidrop.NewSlave(0x02)
	require.NoError(t, err)

	bus := NewVirtualBus()
	bus.Attach("master", master)
	bus.Attach("slave1", slave1)
	bus.Attach("slave2", slave2)
	return testBus{bus: bus, master: master, slave1: slave1, slave2: slave2}
}

func TestVirtualBus_UnicastAck(t *testing.T) {
	t.Parallel()
	tb := newTestBus(t)

	replies, err := tb.bus.Send(tb.master, 0x02, []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "slave2", replies[0].Node)
	assert.Equal(t, multidrop.ResponseAck, replies[0].Response)
	assert.Equal(t, 6, replies[0].Word)

	f, ok := tb.slave2.AssembleFrame()
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, f.Payload)

	_, ok = tb.slave1.AssembleFrame()
	assert.False(t, ok)
}

func TestVirtualBus_Broadcast(t *testing.T) {
	t.Parallel()
	tb := newTestBus(t)

	replies, err := tb.bus.Send(tb.master, multidrop.Broadcast, []byte("all"))
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "slave1", replies[0].Node)
	assert.Equal(t, "slave2", replies[1].Node)

	// the master sees the frame but never answers
	masterReplies, err := tb.bus.Replies(tb.master)
	require.NoError(t, err)
	assert.Empty(t, masterReplies)
	assert.Positive(t, tb.master.Buffered())
}

func TestVirtualBus_CorruptedPayloadNacked(t *testing.T) {
	t.Parallel()
	tb := newTestBus(t)
	tb.bus.SetFilter(CorruptWord(3, 0x01))

	replies, err := tb.bus.Send(tb.master, 0x01, []byte{0x10, 0x20})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, multidrop.ResponseNack, replies[0].Response)

	tb.bus.SetFilter(nil)
	replies, err = tb.bus.Send(tb.master, 0x01, []byte{0x10, 0x20})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, multidrop.ResponseAck, replies[0].Response)

	history, err := tb.bus.Replies(tb.slave1)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestVirtualBus_DroppedWordHasNoAnswer(t *testing.T) {
	t.Parallel()
	tb := newTestBus(t)
	tb.bus.SetFilter(DropWord(4))

	replies, err := tb.bus.Send(tb.master, 0x01, []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Empty(t, replies)
	assert.Equal(t, 5, tb.slave1.Buffered())
}

func TestVirtualBus_Errors(t *testing.T) {
	t.Parallel()
	tb := newTestBus(t)

	_, err := tb.bus.Send(tb.master, 0x01, make([]byte, multidrop.MaxSendLength+1))
	require.ErrorIs(t, err, multidrop.ErrPayloadTooLarge)

	other, err := multidrop.NewSlave(0x03)
	require.NoError(t, err)
	_, err = tb.bus.Replies(other)
	require.ErrorIs(t, err, ErrUnknownNode)

	assert.Equal(t, []string{"master", "slave1", "slave2"}, tb.bus.Nodes())
}
