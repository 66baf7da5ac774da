// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry wires the ICM-20948 driver to an SPI transport and keeps
// the latest gyro and accelerometer samples.
package telemetry

import (
	"go.uber.org/zap"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
)

// Driver is the sensor driver the adapter drives. *icm20948.Device
// satisfies it.
type Driver interface {
	Init(bus icm20948.Bus) icm20948.ReturnCode
	ApplySettings(s icm20948.Settings) icm20948.ReturnCode
	GyroData(g *icm20948.Gyro) icm20948.ReturnCode
	AccelData(a *icm20948.Accel) icm20948.ReturnCode
}

// RegisterAccessor is implemented by drivers that expose raw registers.
type RegisterAccessor interface {
	ReadRegister(bank, reg byte) (byte, icm20948.ReturnCode)
	WriteRegister(bank, reg, value byte) icm20948.ReturnCode
}

// FetchStatus holds the status of each sub-fetch of one GetData call.
type FetchStatus struct {
	Gyro  icm20948.ReturnCode
	Accel icm20948.ReturnCode
}

// Combined ORs both codes: non-zero when either fetch failed, without
// saying which.
func (s FetchStatus) Combined() icm20948.ReturnCode {
	return s.Gyro | s.Accel
}

// OK reports whether both fetches succeeded.
func (s FetchStatus) OK() bool {
	return s.Gyro == icm20948.OK && s.Accel == icm20948.OK
}

// Adapter owns the latest samples of one sensor. It is not safe for
// concurrent use: callers serialize access to the chip-select line.
type Adapter struct {
	drv Driver
	bus *spiBus
	log *zap.Logger

	gyro  icm20948.Gyro
	accel icm20948.Accel
}

// New builds an adapter over a driver and the transport its callbacks use.
func New(drv Driver, tr Transport, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		drv: drv,
		bus: &spiBus{tr: tr, log: log},
		log: log,
	}
}

// Init registers the bus callbacks with the driver and enables the gyro and
// accelerometer. The driver's code is returned verbatim; settings are not
// applied when registration fails.
func (a *Adapter) Init() icm20948.ReturnCode {
	ret := a.drv.Init(a.bus)
	if ret != icm20948.OK {
		a.log.Warn("sensor driver init failed", zap.Stringer("status", ret))
		return ret
	}

	ret = a.drv.ApplySettings(icm20948.Settings{
		GyroEnable:  true,
		AccelEnable: true,
	})
	if ret != icm20948.OK {
		a.log.Warn("sensor settings rejected", zap.Stringer("status", ret))
	}
	return ret
}

// GetData fetches one gyro and one accelerometer sample and returns the
// OR of both statuses. A failed fetch leaves its buffer as it was.
func (a *Adapter) GetData() icm20948.ReturnCode {
	return a.Fetch().Combined()
}

// Fetch is GetData with the two statuses kept apart.
func (a *Adapter) Fetch() FetchStatus {
	return FetchStatus{
		Gyro:  a.drv.GyroData(&a.gyro),
		Accel: a.drv.AccelData(&a.accel),
	}
}

// Gyro returns the latest gyro sample.
func (a *Adapter) Gyro() icm20948.Gyro {
	return a.gyro
}

// Accel returns the latest accelerometer sample.
func (a *Adapter) Accel() icm20948.Accel {
	return a.accel
}

// ReadRegister reads a raw register when the driver supports it.
func (a *Adapter) ReadRegister(bank, reg byte) (byte, icm20948.ReturnCode) {
	ra, ok := a.drv.(RegisterAccessor)
	if !ok {
		return 0, icm20948.InvalidConfig
	}
	return ra.ReadRegister(bank, reg)
}

// WriteRegister writes a raw register when the driver supports it.
func (a *Adapter) WriteRegister(bank, reg, value byte) icm20948.ReturnCode {
	ra, ok := a.drv.(RegisterAccessor)
	if !ok {
		return icm20948.InvalidConfig
	}
	return ra.WriteRegister(bank, reg, value)
}
