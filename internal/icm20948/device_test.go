package icm20948

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// regFile emulates the chip's banked register file behind the SPI framing.
type regFile struct {
	bank    byte
	regs    [bankCount][128]byte
	writes  []byte // register addresses written, in order
	delays  []uint32
	failOn  byte
	failErr ReturnCode
}

func newRegFile() *regFile {
	f := &regFile{}
	f.regs[0][regWhoAmI] = whoAmIVal
	return f
}

func (f *regFile) Write(addr byte, data []byte) ReturnCode {
	if addr&spiRead != 0 {
		return InvalidParam
	}
	if f.failErr != OK && addr == f.failOn {
		return f.failErr
	}
	f.writes = append(f.writes, addr)
	if addr == regBankSel {
		f.bank = data[0] >> 4
		return OK
	}
	copy(f.regs[f.bank][addr:], data)
	return OK
}

func (f *regFile) Read(addr byte, data []byte) ReturnCode {
	if addr&spiRead == 0 {
		return InvalidParam
	}
	reg := addr &^ spiRead
	if f.failErr != OK && reg == f.failOn {
		return f.failErr
	}
	copy(data, f.regs[f.bank][reg:])
	return OK
}

func (f *regFile) DelayUS(period uint32) {
	f.delays = append(f.delays, period)
}

func TestInitResetsAndWakes(t *testing.T) {
	bus := newRegFile()
	d := New()

	require.Equal(t, OK, d.Init(bus))
	assert.Equal(t, []byte{regBankSel, regPwrMgmt1, regPwrMgmt1}, bus.writes)
	assert.Equal(t, byte(clkAuto), bus.regs[0][regPwrMgmt1])
	assert.Equal(t, []uint32{resetDelayUS, wakeDelayUS}, bus.delays)
}

func TestInitRejectsNilBus(t *testing.T) {
	assert.Equal(t, NullPtr, New().Init(nil))
}

func TestInitWrongWhoAmI(t *testing.T) {
	bus := newRegFile()
	bus.regs[0][regWhoAmI] = 0x71

	assert.Equal(t, Err, New().Init(bus))
	assert.Empty(t, bus.delays)
}

func TestInitPropagatesBusFailure(t *testing.T) {
	bus := newRegFile()
	bus.failOn, bus.failErr = regWhoAmI, Err

	assert.Equal(t, Err, New().Init(bus))
}

func TestApplySettings(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
		want byte
	}{
		{"both on", Settings{GyroEnable: true, AccelEnable: true}, 0x00},
		{"gyro only", Settings{GyroEnable: true}, disableAccel},
		{"accel only", Settings{AccelEnable: true}, disableGyro},
		{"both off", Settings{}, disableAccel | disableGyro},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newRegFile()
			bus.regs[0][regPwrMgmt2] = 0xFF
			d := New()
			require.Equal(t, OK, d.Init(bus))

			assert.Equal(t, OK, d.ApplySettings(tt.s))
			assert.Equal(t, tt.want, bus.regs[0][regPwrMgmt2])
		})
	}
}

func TestApplySettingsBeforeInit(t *testing.T) {
	assert.Equal(t, InvalidConfig, New().ApplySettings(Settings{GyroEnable: true}))
}

func TestReadSamplesBigEndian(t *testing.T) {
	bus := newRegFile()
	d := New()
	require.Equal(t, OK, d.Init(bus))

	copy(bus.regs[0][regGyroXoutH:], []byte{0x01, 0x02, 0xFF, 0xFE, 0x80, 0x00})
	copy(bus.regs[0][regAccelXoutH:], []byte{0x40, 0x00, 0x00, 0x10, 0xC0, 0x00})

	var g Gyro
	require.Equal(t, OK, d.GyroData(&g))
	assert.Equal(t, Gyro{X: 0x0102, Y: -2, Z: -32768}, g)

	var a Accel
	require.Equal(t, OK, d.AccelData(&a))
	assert.Equal(t, Accel{X: 16384, Y: 16, Z: -16384}, a)
}

func TestReadSamplesNilAndFailure(t *testing.T) {
	bus := newRegFile()
	d := New()
	require.Equal(t, OK, d.Init(bus))

	assert.Equal(t, NullPtr, d.GyroData(nil))
	assert.Equal(t, NullPtr, d.AccelData(nil))

	bus.failOn, bus.failErr = regGyroXoutH, Err
	g := Gyro{X: 7, Y: 8, Z: 9}
	assert.Equal(t, Err, d.GyroData(&g))
	assert.Equal(t, Gyro{X: 7, Y: 8, Z: 9}, g)
}

func TestRegisterAccessSwitchesBank(t *testing.T) {
	bus := newRegFile()
	d := New()
	require.Equal(t, OK, d.Init(bus))

	require.Equal(t, OK, d.WriteRegister(2, 0x14, 0x03))
	assert.Equal(t, byte(2), bus.bank)
	assert.Equal(t, byte(0x03), bus.regs[2][0x14])

	v, rc := d.ReadRegister(2, 0x14)
	require.Equal(t, OK, rc)
	assert.Equal(t, byte(0x03), v)

	// Sample reads move back to bank 0.
	var g Gyro
	require.Equal(t, OK, d.GyroData(&g))
	assert.Equal(t, byte(0), bus.bank)
}

func TestRegisterAccessValidation(t *testing.T) {
	_, rc := New().ReadRegister(0, 0x00)
	assert.Equal(t, InvalidConfig, rc)

	bus := newRegFile()
	d := New()
	require.Equal(t, OK, d.Init(bus))

	_, rc = d.ReadRegister(4, 0x00)
	assert.Equal(t, InvalidParam, rc)
	assert.Equal(t, InvalidParam, d.WriteRegister(0, regBankSel, 0x20))
	assert.Equal(t, InvalidParam, d.WriteRegister(0, 0x90, 0x00))
}

func TestReturnCodeAsError(t *testing.T) {
	assert.NoError(t, OK.AsError())

	err := NullPtr.AsError()
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, NullPtr, se.Code)
	assert.Equal(t, "icm20948: null pointer (-2)", err.Error())
	assert.Equal(t, "code 1", ReturnCode(1).String())
}

func TestRegisterMapAddresses(t *testing.T) {
	for _, r := range RegisterMap() {
		addr, err := r.Addr()
		require.NoError(t, err, r.Name)
		assert.Less(t, addr, byte(0x80), r.Name)
		assert.Less(t, r.Bank, byte(bankCount), r.Name)
	}
}
