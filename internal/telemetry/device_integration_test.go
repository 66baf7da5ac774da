package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
)

// chipTransport emulates the ICM-20948 SPI slave: with CS low, the first
// byte is the address (bit 7 = read), the following bytes are data.
type chipTransport struct {
	selected bool
	haveAddr bool
	addr     byte
	bank     byte
	regs     [4][128]byte
	txns     int
}

func newChip() *chipTransport {
	c := &chipTransport{}
	c.regs[0][0x00] = 0xEA
	return c
}

func (c *chipTransport) AssertCS(level gpio.Level) {
	c.selected = level == gpio.Low
	c.haveAddr = false
	if !c.selected {
		c.txns++
	}
}

func (c *chipTransport) Write(p []byte) error {
	if !c.selected {
		return nil
	}
	if !c.haveAddr {
		c.addr, c.haveAddr = p[0], true
		p = p[1:]
	}
	if c.addr&0x80 != 0 {
		return nil
	}
	for i, v := range p {
		reg := c.addr + byte(i)
		if reg == 0x7F {
			c.bank = v >> 4
			continue
		}
		c.regs[c.bank][reg] = v
	}
	return nil
}

func (c *chipTransport) Read(p []byte) error {
	copy(p, c.regs[c.bank][c.addr&0x7F:])
	return nil
}

func TestAdapterWithDeviceOverSPI(t *testing.T) {
	chip := newChip()
	chip.regs[0][0x07] = 0x3F // everything powered down after reset

	orig := tickMicrosecond
	tickMicrosecond = func() {}
	defer func() { tickMicrosecond = orig }()

	a := New(icm20948.New(), chip, nil)
	require.Equal(t, icm20948.OK, a.Init())
	assert.Equal(t, byte(0x00), chip.regs[0][0x07])
	assert.Equal(t, byte(0x01), chip.regs[0][0x06])

	copy(chip.regs[0][0x33:], []byte{0x00, 0x10, 0xFF, 0xF0, 0x01, 0x00})
	copy(chip.regs[0][0x2D:], []byte{0x00, 0x00, 0x00, 0x00, 0x40, 0x00})

	require.Equal(t, icm20948.OK, a.GetData())
	assert.Equal(t, icm20948.Gyro{X: 16, Y: -16, Z: 256}, a.Gyro())
	assert.Equal(t, icm20948.Accel{X: 0, Y: 0, Z: 16384}, a.Accel())

	v, rc := a.ReadRegister(0, 0x00)
	require.Equal(t, icm20948.OK, rc)
	assert.Equal(t, byte(0xEA), v)
}

func TestAdapterInitFailsOnWrongChip(t *testing.T) {
	chip := newChip()
	chip.regs[0][0x00] = 0x00

	a := New(icm20948.New(), chip, nil)
	assert.Equal(t, icm20948.Err, a.Init())
	assert.Equal(t, 2, chip.txns) // bank select, WHO_AM_I
}
