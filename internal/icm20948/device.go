// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package icm20948 is a minimal register-level driver for the InvenSense
// ICM-20948. It does not own a transport: the caller hands it a Bus whose
// Write/Read/DelayUS callbacks carry one register transaction each.
package icm20948

const (
	// Bank 0.
	regWhoAmI     = 0x00
	regPwrMgmt1   = 0x06
	regPwrMgmt2   = 0x07
	regAccelXoutH = 0x2D
	regGyroXoutH  = 0x33
	regBankSel    = 0x7F

	whoAmIVal = 0xEA

	bitReset     = 0x80
	clkAuto      = 0x01
	disableAccel = 0x38
	disableGyro  = 0x07

	spiRead   = 0x80
	bankCount = 4
	noBank    = 0xFF

	resetDelayUS = 100_000
	wakeDelayUS  = 10_000
)

// Bus carries register transactions to the chip. addr is the raw address
// byte placed on the wire; the driver sets the read bit itself.
type Bus interface {
	Write(addr byte, data []byte) ReturnCode
	Read(addr byte, data []byte) ReturnCode
	DelayUS(period uint32)
}

// Settings selects which sensor blocks are powered.
type Settings struct {
	GyroEnable  bool
	AccelEnable bool
}

// Gyro is one raw 3-axis angular-rate sample.
type Gyro struct {
	X, Y, Z int16
}

// Accel is one raw 3-axis acceleration sample.
type Accel struct {
	X, Y, Z int16
}

// Device is an ICM-20948 reached through a Bus.
type Device struct {
	bus     Bus
	curBank byte
	ready   bool
}

// New returns a Device with no bus; call Init before use.
func New() *Device {
	return &Device{curBank: noBank}
}

// Init binds the bus, checks WHO_AM_I, resets the chip and wakes it on the
// auto-selected clock.
func (d *Device) Init(bus Bus) ReturnCode {
	if bus == nil {
		return NullPtr
	}
	d.bus = bus
	d.curBank = noBank
	d.ready = false

	if rc := d.setBank(0); rc != OK {
		return rc
	}

	var who [1]byte
	if rc := d.read(regWhoAmI, who[:]); rc != OK {
		return rc
	}
	if who[0] != whoAmIVal {
		return Err
	}

	if rc := d.write(regPwrMgmt1, bitReset); rc != OK {
		return rc
	}
	d.bus.DelayUS(resetDelayUS)
	// Reset returns the chip to bank 0.
	d.curBank = 0

	if rc := d.write(regPwrMgmt1, clkAuto); rc != OK {
		return rc
	}
	d.bus.DelayUS(wakeDelayUS)

	d.ready = true
	return OK
}

// ApplySettings powers the gyro and accelerometer blocks on or off.
func (d *Device) ApplySettings(s Settings) ReturnCode {
	if !d.ready {
		return InvalidConfig
	}
	if rc := d.setBank(0); rc != OK {
		return rc
	}

	var pwr byte
	if !s.AccelEnable {
		pwr |= disableAccel
	}
	if !s.GyroEnable {
		pwr |= disableGyro
	}
	return d.write(regPwrMgmt2, pwr)
}

// GyroData reads the latest gyro sample into g.
func (d *Device) GyroData(g *Gyro) ReturnCode {
	if g == nil {
		return NullPtr
	}
	x, y, z, rc := d.readAxes(regGyroXoutH)
	if rc != OK {
		return rc
	}
	g.X, g.Y, g.Z = x, y, z
	return OK
}

// AccelData reads the latest accelerometer sample into a.
func (d *Device) AccelData(a *Accel) ReturnCode {
	if a == nil {
		return NullPtr
	}
	x, y, z, rc := d.readAxes(regAccelXoutH)
	if rc != OK {
		return rc
	}
	a.X, a.Y, a.Z = x, y, z
	return OK
}

// ReadRegister reads a single register in the given bank.
func (d *Device) ReadRegister(bank, reg byte) (byte, ReturnCode) {
	if d.bus == nil {
		return 0, InvalidConfig
	}
	if bank >= bankCount || reg&spiRead != 0 {
		return 0, InvalidParam
	}
	if rc := d.setBank(bank); rc != OK {
		return 0, rc
	}
	var v [1]byte
	if rc := d.read(reg, v[:]); rc != OK {
		return 0, rc
	}
	return v[0], OK
}

// WriteRegister writes a single register in the given bank. Writes to
// REG_BANK_SEL are refused since the driver tracks the active bank.
func (d *Device) WriteRegister(bank, reg, value byte) ReturnCode {
	if d.bus == nil {
		return InvalidConfig
	}
	if bank >= bankCount || reg&spiRead != 0 || reg == regBankSel {
		return InvalidParam
	}
	if rc := d.setBank(bank); rc != OK {
		return rc
	}
	return d.write(reg, value)
}

func (d *Device) readAxes(reg byte) (x, y, z int16, rc ReturnCode) {
	if !d.ready {
		return 0, 0, 0, InvalidConfig
	}
	if rc = d.setBank(0); rc != OK {
		return 0, 0, 0, rc
	}
	var buf [6]byte
	if rc = d.read(reg, buf[:]); rc != OK {
		return 0, 0, 0, rc
	}
	x = int16(uint16(buf[0])<<8 | uint16(buf[1]))
	y = int16(uint16(buf[2])<<8 | uint16(buf[3]))
	z = int16(uint16(buf[4])<<8 | uint16(buf[5]))
	return x, y, z, OK
}

func (d *Device) setBank(bank byte) ReturnCode {
	if d.curBank == bank {
		return OK
	}
	if rc := d.write(regBankSel, bank<<4); rc != OK {
		return rc
	}
	d.curBank = bank
	return OK
}

func (d *Device) read(reg byte, dst []byte) ReturnCode {
	return d.bus.Read(reg|spiRead, dst)
}

func (d *Device) write(reg, value byte) ReturnCode {
	return d.bus.Write(reg&^spiRead, []byte{value})
}
