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

// Package uart provides a 9-bit multidrop link over a serial port. Address
// words are sent with mark parity and data words with space parity; on
// receive the kernel marks parity errors so address words can be told apart.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	multidrop "github.com/ZaparooProject/go-multidrop"
	"github.com/ZaparooProject/go-multidrop/internal/retry"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the line rate used when Config.BaudRate is zero
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds a single ReadWords call
	DefaultReadTimeout = 20 * time.Millisecond

	readBufferSize = 256
)

// ErrParityMarkingUnsupported is returned on platforms where received parity
// errors cannot be marked in the byte stream
var ErrParityMarkingUnsupported = errors.New("parity error marking not supported on this platform")

// Config describes how to open a serial port as a bus link
type Config struct {
	Path string
	// DriverEnablePin names the GPIO driving an RS-485 transceiver's DE/RE
	// input. Leave empty when the adapter switches direction itself.
	DriverEnablePin string
	BaudRate        int
	ReadTimeout     time.Duration
	OpenRetries     int
	OpenRetryDelay  time.Duration
}

// DefaultConfig returns the configuration used for path when nothing else is set
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		BaudRate:       DefaultBaudRate,
		ReadTimeout:    DefaultReadTimeout,
		OpenRetries:    3,
		OpenRetryDelay: 250 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// serialPort is the part of serial.Port the link uses
type serialPort interface {
	io.ReadWriteCloser
	SetMode(mode *serial.Mode) error
	SetReadTimeout(t time.Duration) error
	Drain() error
}

// Port is a bus link on a serial port. It implements multidrop.WordReader,
// multidrop.WordWriter and multidrop.ResponseWriter.
type Port struct {
	port     serialPort
	de       *driverEnable
	raw      []byte
	path     string
	decoder  Decoder
	baudRate int
	writeMu  sync.Mutex
	readMu   sync.Mutex
	parity   serial.Parity
	closed   bool
}

func lineMode(baudRate int, parity serial.Parity) *serial.Mode {
	return &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   parity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens and configures the serial port described by cfg. A busy port is
// retried cfg.OpenRetries times.
func Open(ctx context.Context, cfg Config) (*Port, error) {
	cfg = cfg.withDefaults()
	if cfg.Path == "" {
		return nil, errors.New("empty serial port path")
	}

	sp, err := retry.Do(ctx, retry.Config{
		Description: "open " + cfg.Path,
		MaxRetries:  cfg.OpenRetries,
		RetryDelay:  cfg.OpenRetryDelay,
		OnRetry: func(attempt int, err error) {
			multidrop.Debugf("retrying open of %s (attempt %d): %v", cfg.Path, attempt, err)
		},
	}, func() (serial.Port, bool, error) {
		p, err := serial.Open(cfg.Path, lineMode(cfg.BaudRate, serial.SpaceParity))
		if err != nil {
			return nil, isBusy(err), err
		}
		return p, false, nil
	})
	if err != nil {
		return nil, multidrop.NewLinkError("open", cfg.Path, err)
	}

	if err := sp.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = sp.Close()
		return nil, multidrop.NewLinkError("set read timeout", cfg.Path, err)
	}
	if err := enableParityMarking(cfg.Path); err != nil {
		_ = sp.Close()
		return nil, multidrop.NewLinkError("enable parity marking", cfg.Path, err)
	}

	var de *driverEnable
	if cfg.DriverEnablePin != "" {
		de, err = openDriverEnable(cfg.DriverEnablePin)
		if err != nil {
			_ = sp.Close()
			return nil, multidrop.NewLinkError("driver enable", cfg.Path, err)
		}
	}

	multidrop.Debugf("opened %s at %d baud", cfg.Path, cfg.BaudRate)
	return newPort(sp, de, cfg.Path, cfg.BaudRate), nil
}

func newPort(sp serialPort, de *driverEnable, path string, baudRate int) *Port {
	return &Port{
		port:     sp,
		de:       de,
		path:     path,
		baudRate: baudRate,
		parity:   serial.SpaceParity,
		raw:      make([]byte, readBufferSize),
	}
}

func isBusy(err error) bool {
	var portErr *serial.PortError
	return errors.As(err, &portErr) && portErr.Code() == serial.PortBusy
}

// Path returns the serial device path
func (p *Port) Path() string {
	return p.path
}

// IsOpen returns true until Close is called
func (p *Port) IsOpen() bool {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.port != nil && !p.closed
}

// ReadWords reads whatever arrived within the read timeout. It returns zero
// words and a nil error when the line was idle.
func (p *Port) ReadWords(ctx context.Context, dst []multidrop.Word) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(dst) < 2 {
		return 0, io.ErrShortBuffer
	}

	p.readMu.Lock()
	defer p.readMu.Unlock()

	limit := min(len(dst)-1, len(p.raw))
	n, err := p.port.Read(p.raw[:limit])
	if err != nil {
		return 0, multidrop.NewLinkError("read", p.path, fmt.Errorf("%w: %w", multidrop.ErrLinkRead, err))
	}
	return p.decoder.Decode(dst, p.raw[:n]), nil
}

// WriteWords transmits words, switching to mark parity for address words
func (p *Port) WriteWords(words []multidrop.Word) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.closed {
		return multidrop.ErrLinkClosed
	}

	return p.de.transmit(func() error {
		buf := make([]byte, 0, len(words))
		for start := 0; start < len(words); {
			parity := parityFor(words[start])
			end := start
			buf = buf[:0]
			for end < len(words) && parityFor(words[end]) == parity {
				buf = append(buf, words[end].Byte())
				end++
			}
			if err := p.setParity(parity); err != nil {
				return err
			}
			if err := p.write(buf); err != nil {
				return err
			}
			start = end
		}
		return p.setParity(serial.SpaceParity)
	})
}

// WriteResponse transmits the four byte ACK or NACK code as data words
func (p *Port) WriteResponse(r multidrop.Response) error {
	code, ok := r.Bytes()
	if !ok {
		return nil
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.closed {
		return multidrop.ErrLinkClosed
	}

	return p.de.transmit(func() error {
		if err := p.setParity(serial.SpaceParity); err != nil {
			return err
		}
		return p.write(code[:])
	})
}

func parityFor(w multidrop.Word) serial.Parity {
	if w.IsAddress() {
		return serial.MarkParity
	}
	return serial.SpaceParity
}

// setParity changes the line parity once everything queued has left the UART
func (p *Port) setParity(parity serial.Parity) error {
	if parity == p.parity {
		return nil
	}
	if err := p.port.Drain(); err != nil {
		return multidrop.NewLinkError("drain", p.path, err)
	}
	if err := p.port.SetMode(lineMode(p.baudRate, parity)); err != nil {
		return multidrop.NewLinkError("set parity", p.path, err)
	}
	p.parity = parity
	return nil
}

func (p *Port) write(b []byte) error {
	for len(b) > 0 {
		n, err := p.port.Write(b)
		if err != nil {
			return multidrop.NewLinkError("write", p.path, fmt.Errorf("%w: %w", multidrop.ErrLinkWrite, err))
		}
		b = b[n:]
	}
	return nil
}

// Close closes the serial port and releases the direction pin
func (p *Port) Close() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.de.release()
	if err := p.port.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", p.path, err)
	}
	return nil
}
