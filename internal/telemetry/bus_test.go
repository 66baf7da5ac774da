package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
)

type call struct {
	op    string // "cs", "write", "read"
	level gpio.Level
	data  []byte
	n     int
}

// recordingTransport records every transport interaction in order.
type recordingTransport struct {
	calls   []call
	readVal byte
	err     error
}

func (r *recordingTransport) AssertCS(level gpio.Level) {
	r.calls = append(r.calls, call{op: "cs", level: level})
}

func (r *recordingTransport) Write(p []byte) error {
	r.calls = append(r.calls, call{op: "write", data: append([]byte(nil), p...), n: len(p)})
	return r.err
}

func (r *recordingTransport) Read(p []byte) error {
	for i := range p {
		p[i] = r.readVal
	}
	r.calls = append(r.calls, call{op: "read", n: len(p)})
	return r.err
}

func newTestBus(tr Transport) *spiBus {
	return &spiBus{tr: tr, log: zap.NewNop()}
}

func TestBusWriteFraming(t *testing.T) {
	tr := &recordingTransport{}
	b := newTestBus(tr)

	rc := b.Write(0x06, []byte{0x80, 0x01, 0x02})

	assert.Equal(t, icm20948.OK, rc)
	assert.Equal(t, []call{
		{op: "cs", level: gpio.Low},
		{op: "write", data: []byte{0x06}, n: 1},
		{op: "write", data: []byte{0x80, 0x01, 0x02}, n: 3},
		{op: "cs", level: gpio.High},
	}, tr.calls)
}

func TestBusReadFraming(t *testing.T) {
	tr := &recordingTransport{readVal: 0xEA}
	b := newTestBus(tr)

	buf := make([]byte, 6)
	rc := b.Read(0x80, buf)

	assert.Equal(t, icm20948.OK, rc)
	assert.Equal(t, []call{
		{op: "cs", level: gpio.Low},
		{op: "write", data: []byte{0x80}, n: 1},
		{op: "read", n: 6},
		{op: "cs", level: gpio.High},
	}, tr.calls)
	assert.Equal(t, []byte{0xEA, 0xEA, 0xEA, 0xEA, 0xEA, 0xEA}, buf)
}

func TestBusNilBufferLeavesCSAlone(t *testing.T) {
	tr := &recordingTransport{}
	b := newTestBus(tr)

	assert.Equal(t, icm20948.NullPtr, b.Write(0x06, nil))
	assert.Equal(t, icm20948.NullPtr, b.Read(0x86, nil))
	assert.Empty(t, tr.calls)
}

func TestBusEmptyBufferStillFrames(t *testing.T) {
	tr := &recordingTransport{}
	b := newTestBus(tr)

	assert.Equal(t, icm20948.OK, b.Write(0x06, []byte{}))
	assert.Len(t, tr.calls, 4)
	assert.Equal(t, 0, tr.calls[2].n)
}

func TestBusIgnoresTransportErrors(t *testing.T) {
	tr := &recordingTransport{err: errors.New("spi: EIO")}
	b := newTestBus(tr)

	assert.Equal(t, icm20948.OK, b.Write(0x06, []byte{0x01}))
	assert.Equal(t, icm20948.OK, b.Read(0x86, make([]byte, 1)))

	// CS is still released after each failed transfer.
	assert.Len(t, tr.calls, 8)
	assert.Equal(t, call{op: "cs", level: gpio.High}, tr.calls[3])
	assert.Equal(t, call{op: "cs", level: gpio.High}, tr.calls[7])
}

func TestBusDelayTicksOnePerMicrosecond(t *testing.T) {
	ticks := 0
	orig := tickMicrosecond
	tickMicrosecond = func() { ticks++ }
	defer func() { tickMicrosecond = orig }()

	b := newTestBus(&recordingTransport{})
	b.DelayUS(250)
	assert.Equal(t, 250, ticks)

	b.DelayUS(0)
	assert.Equal(t, 250, ticks)
}
