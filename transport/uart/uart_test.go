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
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	multidrop "github.com/ZaparooProject/go-multidrop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
)

// event records one call made on the fake port or pin, in order
type event struct {
	kind   string
	data   []byte
	parity serial.Parity
	level  gpio.Level
}

type recorder struct {
	events []event
	mu     sync.Mutex
}

func (r *recorder) add(e event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

type fakeSerial struct {
	rec      *recorder
	readErr  error
	writeErr error
	rx       []byte
	maxWrite int
	closed   bool
}

func (f *fakeSerial) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	return n, nil
}

func (f *fakeSerial) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	n := len(p)
	if f.maxWrite > 0 && n > f.maxWrite {
		n = f.maxWrite
	}
	f.rec.add(event{kind: "write", data: append([]byte(nil), p[:n]...)})
	return n, nil
}

func (f *fakeSerial) SetMode(mode *serial.Mode) error {
	f.rec.add(event{kind: "mode", parity: mode.Parity})
	return nil
}

func (*fakeSerial) SetReadTimeout(time.Duration) error { return nil }

func (f *fakeSerial) Drain() error {
	f.rec.add(event{kind: "drain"})
	return nil
}

func (f *fakeSerial) Close() error {
	f.closed = true
	return nil
}

type fakePin struct {
	rec *recorder
}

func (p *fakePin) Out(l gpio.Level) error {
	p.rec.add(event{kind: "pin", level: l})
	return nil
}

func newTestPort(withPin bool) (*Port, *fakeSerial, *recorder) {
	rec := &recorder{}
	sp := &fakeSerial{rec: rec}
	var de *driverEnable
	if withPin {
		de = &driverEnable{pin: &fakePin{rec: rec}}
	}
	return newPort(sp, de, "/dev/ttyTEST", DefaultBaudRate), sp, rec
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("/dev/ttyS1")
	assert.Equal(t, "/dev/ttyS1", cfg.Path)
	assert.Equal(t, DefaultBaudRate, cfg.BaudRate)
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	assert.Empty(t, cfg.DriverEnablePin)

	zero := Config{Path: "x"}.withDefaults()
	assert.Equal(t, DefaultBaudRate, zero.BaudRate)
	assert.Equal(t, DefaultReadTimeout, zero.ReadTimeout)
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestPort_ReadWords(t *testing.T) {
	t.Parallel()

	p, sp, _ := newTestPort(false)
	sp.rx = []byte{0xFF, 0x00, 0x10, 0x03, 0xFF, 0xFF}

	dst := make([]multidrop.Word, 16)
	n, err := p.ReadWords(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, []multidrop.Word{
		multidrop.NewAddressWord(0x10),
		multidrop.NewDataWord(0x03),
		multidrop.NewDataWord(0xFF),
	}, dst[:n])

	n, err = p.ReadWords(context.Background(), dst)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPort_ReadWordsErrors(t *testing.T) {
	t.Parallel()

	p, sp, _ := newTestPort(false)

	_, err := p.ReadWords(context.Background(), make([]multidrop.Word, 1))
	require.ErrorIs(t, err, io.ErrShortBuffer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.ReadWords(ctx, make([]multidrop.Word, 8))
	require.ErrorIs(t, err, context.Canceled)

	sp.readErr = errors.New("unplugged")
	_, err = p.ReadWords(context.Background(), make([]multidrop.Word, 8))
	require.ErrorIs(t, err, multidrop.ErrLinkRead)
	var linkErr *multidrop.LinkError
	require.ErrorAs(t, err, &linkErr)
	assert.Equal(t, "/dev/ttyTEST", linkErr.Port)
}

func TestPort_WriteWordsSwitchesParity(t *testing.T) {
	t.Parallel()

	p, _, rec := newTestPort(false)
	words := []multidrop.Word{
		multidrop.NewAddressWord(0x20),
		multidrop.NewDataWord(0x01),
		multidrop.NewDataWord(0xAA),
	}
	require.NoError(t, p.WriteWords(words))

	assert.Equal(t, []event{
		{kind: "drain"},
		{kind: "mode", parity: serial.MarkParity},
		{kind: "write", data: []byte{0x20}},
		{kind: "drain"},
		{kind: "mode", parity: serial.SpaceParity},
		{kind: "write", data: []byte{0x01, 0xAA}},
	}, rec.all())
}

func TestPort_WriteWordsDriverEnable(t *testing.T) {
	t.Parallel()

	p, _, rec := newTestPort(true)
	require.NoError(t, p.WriteWords([]multidrop.Word{multidrop.NewDataWord(0x05)}))

	assert.Equal(t, []event{
		{kind: "pin", level: gpio.High},
		{kind: "write", data: []byte{0x05}},
		{kind: "pin", level: gpio.Low},
	}, rec.all())
}

func TestPort_WriteHandlesShortWrites(t *testing.T) {
	t.Parallel()

	p, sp, rec := newTestPort(false)
	sp.maxWrite = 1
	require.NoError(t, p.WriteResponse(multidrop.ResponseAck))

	var got []byte
	for _, e := range rec.all() {
		if e.kind == "write" {
			got = append(got, e.data...)
		}
	}
	assert.Equal(t, []byte{0x11, 0x00, 0x00, 0x00}, got)
}

func TestPort_WriteResponse(t *testing.T) {
	t.Parallel()

	p, _, rec := newTestPort(false)
	require.NoError(t, p.WriteResponse(multidrop.ResponseNone))
	assert.Empty(t, rec.all())

	require.NoError(t, p.WriteResponse(multidrop.ResponseNack))
	assert.Equal(t, []event{{kind: "write", data: []byte{0x12, 0x00, 0x00, 0x00}}}, rec.all())
}

func TestPort_WriteError(t *testing.T) {
	t.Parallel()

	p, sp, rec := newTestPort(true)
	sp.writeErr = errors.New("broken pipe")
	err := p.WriteWords([]multidrop.Word{multidrop.NewDataWord(0x01)})
	require.ErrorIs(t, err, multidrop.ErrLinkWrite)

	// the transceiver goes back to receive even after a failed write
	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, event{kind: "pin", level: gpio.Low}, events[len(events)-1])
}

func TestPort_Close(t *testing.T) {
	t.Parallel()

	p, sp, _ := newTestPort(false)
	assert.True(t, p.IsOpen())
	assert.Equal(t, "/dev/ttyTEST", p.Path())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, sp.closed)
	assert.False(t, p.IsOpen())

	require.ErrorIs(t, p.WriteWords(nil), multidrop.ErrLinkClosed)
	require.ErrorIs(t, p.WriteResponse(multidrop.ResponseAck), multidrop.ErrLinkClosed)
}

func TestIsBusy(t *testing.T) {
	t.Parallel()

	assert.False(t, isBusy(errors.New("other")))
	assert.False(t, isBusy(nil))
}
