// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPITransport moves raw bytes to one chip on a spidev bus. Chip-select is
// a plain GPIO so a single register transaction can span several transfers.
type SPITransport struct {
	name string
	port spi.PortCloser
	conn spi.Conn
	cs   gpio.PinOut
	log  *zap.Logger
}

// NewSPITransport opens spiDev in mode 3 with the hardware CS disabled and
// drives csPin instead. The CS line is left released.
func NewSPITransport(name, spiDev, csPin string, speedHz int64, log *zap.Logger) (*SPITransport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("%s: CS pin %q not found", name, csPin)
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("%s: CS pin %q: %w", name, csPin, err)
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("%s: SPI open (%s): %w", name, spiDev, err)
	}

	conn, err := port.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode3|spi.NoCS, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%s: SPI connect (%s): %w", name, spiDev, err)
	}

	log.Info("SPI transport ready",
		zap.String("device", name),
		zap.String("spi", spiDev),
		zap.String("cs_pin", csPin),
		zap.Int64("speed_hz", speedHz),
	)

	return &SPITransport{
		name: name,
		port: port,
		conn: conn,
		cs:   cs,
		log:  log,
	}, nil
}

// AssertCS drives the chip-select line. gpio.Low selects the chip.
func (t *SPITransport) AssertCS(level gpio.Level) {
	if err := t.cs.Out(level); err != nil {
		t.log.Debug("CS drive failed", zap.String("device", t.name), zap.Bool("level", bool(level)), zap.Error(err))
	}
}

// Write clocks p out, discarding what comes back.
func (t *SPITransport) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return t.conn.Tx(p, nil)
}

// Read clocks len(p) zero bytes out and stores the reply in p.
func (t *SPITransport) Read(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return t.conn.Tx(make([]byte, len(p)), p)
}

// Close releases the SPI port.
func (t *SPITransport) Close() error {
	t.AssertCS(gpio.High)
	return t.port.Close()
}
