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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameCopiesPayload(t *testing.T) {
	t.Parallel()
	payload := []byte{0x01, 0x02}
	f := NewFrame(0x04, payload)
	payload[0] = 0xEE

	assert.Equal(t, []byte{0x01, 0x02}, f.Payload)
	assert.Equal(t, 2, f.Len())
	assert.True(t, f.Valid())
	assert.NoError(t, f.Validate())
}

func TestFrameAppendWire(t *testing.T) {
	t.Parallel()
	f := NewFrame(0x01, []byte{0xFF})
	assert.Equal(t, []byte{0x10, 0x01, 0xFF, 0x00, 0xFF}, f.AppendWire(nil))
	assert.Equal(t, 5, f.WireSize())
}

func TestParseFrame(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wantErr  error
		name     string
		buf      []byte
		payload  []byte
		rest     []byte
		addr     Address
		checksum uint16
	}{
		{
			name:     "single byte payload",
			buf:      []byte{0x10, 0x01, 0xFF, 0x00, 0xFF},
			addr:     0x01,
			payload:  []byte{0xFF},
			checksum: 0xFF00,
		},
		{
			name:     "two byte payload with trailing data",
			buf:      []byte{0x10, 0x02, 0xFF, 0xFE, 0x12, 0x34, 0x99},
			addr:     0x01,
			payload:  []byte{0xFF, 0xFE},
			checksum: 0x3412,
			rest:     []byte{0x99},
		},
		{
			name:     "empty payload",
			buf:      []byte{0xF0, 0x00, 0x00, 0x00},
			addr:     Broadcast,
			payload:  []byte{},
			checksum: 0x0000,
		},
		{
			name:    "single byte",
			buf:     []byte{0x00},
			wantErr: ErrIncomplete,
		},
		{
			name:    "invalid length",
			buf:     []byte{0x10, 0xFF, 0x00, 0x00},
			wantErr: ErrInvalidLength,
		},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, rest, err := ParseFrame(tt.buf)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, f)
				assert.Equal(t, tt.buf, rest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, f.Address)
			assert.Equal(t, tt.payload, f.Payload)
			assert.Equal(t, tt.checksum, f.Checksum)
			if len(tt.rest) == 0 {
				assert.Empty(t, rest)
			} else {
				assert.Equal(t, tt.rest, rest)
			}
		})
	}
}

func TestParseFrameOwnsPayload(t *testing.T) {
	t.Parallel()
	buf := []byte{0x10, 0x01, 0xFF, 0x00, 0xFF}
	f, _, err := ParseFrame(buf)
	require.NoError(t, err)
	buf[2] = 0x00
	assert.Equal(t, []byte{0xFF}, f.Payload)
}

func TestWords(t *testing.T) {
	t.Parallel()

	w := NewAddressWord(0x10)
	assert.True(t, w.IsAddress())
	assert.Equal(t, byte(0x10), w.Byte())
	assert.Equal(t, Word(0x110), w)

	d := NewDataWord(0xFF)
	assert.False(t, d.IsAddress())
	assert.Equal(t, byte(0xFF), d.Byte())

	words := WordsFromBytes([]byte{0x10, 0x01})
	assert.Equal(t, []Word{NewAddressWord(0x10), NewDataWord(0x01)}, words)
	assert.Empty(t, WordsFromBytes(nil))
}

func TestResponseBytes(t *testing.T) {
	t.Parallel()

	code, ok := ResponseAck.Bytes()
	require.True(t, ok)
	assert.Equal(t, [4]byte{0x11, 0x00, 0x00, 0x00}, code)

	code, ok = ResponseNack.Bytes()
	require.True(t, ok)
	assert.Equal(t, [4]byte{0x12, 0x00, 0x00, 0x00}, code)

	_, ok = ResponseNone.Bytes()
	assert.False(t, ok)
}

func TestParseResponse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wantErr error
		name    string
		buf     []byte
		want    Response
	}{
		{name: "ack", buf: []byte{0x11, 0, 0, 0}, want: ResponseAck},
		{name: "nack", buf: []byte{0x12, 0, 0, 0}, want: ResponseNack},
		{name: "short", buf: []byte{0x11}, wantErr: ErrIncomplete},
		{name: "unknown", buf: []byte{0x13, 0, 0, 0}, wantErr: ErrUnknownResponse},
		{name: "garbage tail", buf: []byte{0x11, 0, 1, 0}, wantErr: ErrUnknownResponse},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseResponse(tt.buf)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddressString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "master", Master.String())
	assert.Equal(t, "broadcast", Broadcast.String())
	assert.Equal(t, "0x3", Address(0x03).String())
	assert.Equal(t, byte(0x30), Address(0x03).WireByte())
}
