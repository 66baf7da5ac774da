// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
	"github.com/relabs-tech/icm_telemetry/internal/telemetry"
)

const (
	mockBanks = 4
	mockRegs  = 0x80

	mockRegPwrMgmt1 = 0x06
	mockRegAccel    = 0x2D
	mockRegGyro     = 0x33
)

// mockDriver generates smoothly changing samples for running without
// hardware. Its register file starts at the documented reset defaults and
// mirrors the latest samples into the data registers.
type mockDriver struct {
	start time.Time
	now   func() time.Time
	regs  [mockBanks][mockRegs]byte
}

func (m *mockDriver) Init(bus icm20948.Bus) icm20948.ReturnCode {
	if bus == nil {
		return icm20948.NullPtr
	}
	m.start = m.now()
	m.regs = [mockBanks][mockRegs]byte{}
	for _, info := range icm20948.RegisterMap() {
		addr, err := info.Addr()
		if err != nil || info.Default == "" {
			continue
		}
		v, err := strconv.ParseUint(info.Default, 0, 8)
		if err != nil {
			continue
		}
		m.regs[info.Bank][addr] = byte(v)
	}
	m.regs[0][mockRegPwrMgmt1] = 0x01 // awake, auto clock
	return icm20948.OK
}

func (m *mockDriver) ReadRegister(bank, reg byte) (byte, icm20948.ReturnCode) {
	if bank >= mockBanks || reg >= mockRegs {
		return 0, icm20948.InvalidParam
	}
	return m.regs[bank][reg], icm20948.OK
}

func (m *mockDriver) WriteRegister(bank, reg, value byte) icm20948.ReturnCode {
	if bank >= mockBanks || reg >= mockRegs-1 {
		return icm20948.InvalidParam
	}
	m.regs[bank][reg] = value
	return icm20948.OK
}

func (m *mockDriver) storeAxes(reg byte, x, y, z int16) {
	for i, v := range [3]int16{x, y, z} {
		binary.BigEndian.PutUint16(m.regs[0][int(reg)+2*i:], uint16(v))
	}
}

func (m *mockDriver) ApplySettings(icm20948.Settings) icm20948.ReturnCode {
	return icm20948.OK
}

func (m *mockDriver) GyroData(g *icm20948.Gyro) icm20948.ReturnCode {
	if g == nil {
		return icm20948.NullPtr
	}
	elapsed := m.now().Sub(m.start).Seconds()
	g.X = int16(2000 * math.Sin(elapsed))
	g.Y = int16(1500 * math.Cos(elapsed*0.7))
	g.Z = int16(500 * math.Sin(elapsed*0.3))
	m.storeAxes(mockRegGyro, g.X, g.Y, g.Z)
	return icm20948.OK
}

func (m *mockDriver) AccelData(a *icm20948.Accel) icm20948.ReturnCode {
	if a == nil {
		return icm20948.NullPtr
	}
	elapsed := m.now().Sub(m.start).Seconds()
	a.X = int16(3000 * math.Sin(elapsed*0.5))
	a.Y = int16(3000 * math.Cos(elapsed*0.5))
	a.Z = 16384 // 1 g at ±2 g full scale
	m.storeAxes(mockRegAccel, a.X, a.Y, a.Z)
	return icm20948.OK
}

type nopTransport struct{}

func (nopTransport) AssertCS(gpio.Level) {}
func (nopTransport) Write([]byte) error  { return nil }
func (nopTransport) Read([]byte) error   { return nil }

// NewMockAdapter returns an initialized adapter backed by generated data.
func NewMockAdapter(log *zap.Logger) *telemetry.Adapter {
	a := telemetry.New(&mockDriver{now: time.Now}, nopTransport{}, log.With(zap.String("device", "mock")))
	// mockDriver.Init only fails on a nil bus.
	a.Init()
	return a
}
