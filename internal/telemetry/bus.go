// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
)

// Transport is the byte-level SPI link to one chip. It is already bound to
// the chip-select port and pin; AssertCS(gpio.Low) selects the chip and
// AssertCS(gpio.High) releases it.
type Transport interface {
	AssertCS(level gpio.Level)
	Write(p []byte) error
	Read(p []byte) error
}

// tickMicrosecond blocks for one microsecond. Tests replace it.
var tickMicrosecond = func() {
	start := time.Now()
	for time.Since(start) < time.Microsecond {
	}
}

// spiBus hands the driver its write, read and delay callbacks. Each
// transaction is CS low, one address byte, the data bytes, CS high.
type spiBus struct {
	tr  Transport
	log *zap.Logger
}

func (b *spiBus) Write(addr byte, data []byte) icm20948.ReturnCode {
	if data == nil {
		return icm20948.NullPtr
	}

	b.tr.AssertCS(gpio.Low)
	// Transport failures are not reported to the driver.
	if err := b.tr.Write([]byte{addr}); err != nil {
		b.log.Debug("spi address write failed", zap.Uint8("addr", addr), zap.Error(err))
	}
	if err := b.tr.Write(data); err != nil {
		b.log.Debug("spi data write failed", zap.Uint8("addr", addr), zap.Int("len", len(data)), zap.Error(err))
	}
	b.tr.AssertCS(gpio.High)

	return icm20948.OK
}

func (b *spiBus) Read(addr byte, data []byte) icm20948.ReturnCode {
	if data == nil {
		return icm20948.NullPtr
	}

	b.tr.AssertCS(gpio.Low)
	if err := b.tr.Write([]byte{addr}); err != nil {
		b.log.Debug("spi address write failed", zap.Uint8("addr", addr), zap.Error(err))
	}
	if err := b.tr.Read(data); err != nil {
		b.log.Debug("spi data read failed", zap.Uint8("addr", addr), zap.Int("len", len(data)), zap.Error(err))
	}
	b.tr.AssertCS(gpio.High)

	return icm20948.OK
}

// DelayUS busy-waits period microseconds, one tick at a time.
func (b *spiBus) DelayUS(period uint32) {
	for ; period > 0; period-- {
		tickMicrosecond()
	}
}
