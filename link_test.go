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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestServeWritesResponses(t *testing.T) {
	t.Parallel()
	tr := newTestSlave(t, 0x01)
	link := NewMockLink(64)
	defer func() { _ = link.Close() }()

	corrupt := scenarioWords()
	corrupt[4] = NewDataWord(0x00)
	link.Inject(scenarioWords()...)
	link.Inject(corrupt...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, tr, link, link) }()

	require.Eventually(t, func() bool {
		return len(link.Responses()) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []Response{ResponseAck, ResponseNack}, link.Responses())
}

func TestServeMasterWithoutWriter(t *testing.T) {
	t.Parallel()
	tr, err := NewMaster()
	require.NoError(t, err)
	link := NewMockLink(64)
	defer func() { _ = link.Close() }()
	link.Inject(NewFrame(Master, []byte{0x01}).Words()...)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = Serve(ctx, tr, link, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	f, ok := tr.AssembleFrame()
	require.True(t, ok)
	assert.Equal(t, []byte{0x01}, f.Payload)
}

func TestServeReadError(t *testing.T) {
	t.Parallel()
	tr := newTestSlave(t, 0x01)
	link := NewMockLink(1)
	defer func() { _ = link.Close() }()
	link.SetReadError(ErrLinkRead)

	err := Serve(context.Background(), tr, link, link)
	assert.ErrorIs(t, err, ErrLinkRead)
}

func TestServeWriteError(t *testing.T) {
	t.Parallel()
	tr := newTestSlave(t, 0x01)
	link := NewMockLink(16)
	defer func() { _ = link.Close() }()
	link.SetWriteError(ErrLinkWrite)
	link.Inject(scenarioWords()...)

	err := Serve(context.Background(), tr, link, link)
	assert.ErrorIs(t, err, ErrLinkWrite)
}

func TestServeClosedLink(t *testing.T) {
	t.Parallel()
	tr := newTestSlave(t, 0x01)
	link := NewMockLink(1)
	_ = link.Close()

	err := Serve(context.Background(), tr, link, link)
	assert.ErrorIs(t, err, ErrLinkClosed)
}

func TestTransmit(t *testing.T) {
	t.Parallel()
	tr, err := NewMaster()
	require.NoError(t, err)
	link := NewMockLink(1)
	defer func() { _ = link.Close() }()

	require.NoError(t, Transmit(tr, link, 0x01, []byte{0xFF}))
	assert.Equal(t, scenarioWords(), link.Written())

	err = Transmit(tr, link, 0x01, make([]byte, MaxSendLength+1))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Len(t, link.Written(), 5, "rejected payload must not be written")

	link.SetWriteError(errors.New("bus fault"))
	assert.Error(t, Transmit(tr, link, 0x01, []byte{0x01}))
}
