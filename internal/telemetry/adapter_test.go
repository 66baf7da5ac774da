package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
)

// fakeDriver returns scripted codes and samples.
type fakeDriver struct {
	initRC, settingsRC icm20948.ReturnCode
	gyroRC, accelRC    icm20948.ReturnCode
	gyro               icm20948.Gyro
	accel              icm20948.Accel

	bus      icm20948.Bus
	settings []icm20948.Settings
	order    []string
}

func (f *fakeDriver) Init(bus icm20948.Bus) icm20948.ReturnCode {
	f.bus = bus
	f.order = append(f.order, "init")
	return f.initRC
}

func (f *fakeDriver) ApplySettings(s icm20948.Settings) icm20948.ReturnCode {
	f.settings = append(f.settings, s)
	f.order = append(f.order, "settings")
	return f.settingsRC
}

func (f *fakeDriver) GyroData(g *icm20948.Gyro) icm20948.ReturnCode {
	f.order = append(f.order, "gyro")
	if f.gyroRC == icm20948.OK {
		*g = f.gyro
	}
	return f.gyroRC
}

func (f *fakeDriver) AccelData(a *icm20948.Accel) icm20948.ReturnCode {
	f.order = append(f.order, "accel")
	if f.accelRC == icm20948.OK {
		*a = f.accel
	}
	return f.accelRC
}

func TestInitRegistersCallbacksAndEnablesBoth(t *testing.T) {
	drv := &fakeDriver{}
	a := New(drv, &recordingTransport{}, nil)

	assert.Equal(t, icm20948.OK, a.Init())
	require.NotNil(t, drv.bus)
	assert.Equal(t, []string{"init", "settings"}, drv.order)
	assert.Equal(t, []icm20948.Settings{{GyroEnable: true, AccelEnable: true}}, drv.settings)
	assert.Equal(t, icm20948.Gyro{}, a.Gyro())
	assert.Equal(t, icm20948.Accel{}, a.Accel())
}

func TestInitSkipsSettingsWhenRegistrationFails(t *testing.T) {
	drv := &fakeDriver{initRC: icm20948.NullPtr, settingsRC: icm20948.Err}
	a := New(drv, &recordingTransport{}, nil)

	assert.Equal(t, icm20948.NullPtr, a.Init())
	assert.Equal(t, []string{"init"}, drv.order)
	assert.Empty(t, drv.settings)
}

func TestInitReturnsSettingsCode(t *testing.T) {
	drv := &fakeDriver{settingsRC: icm20948.InvalidConfig}
	a := New(drv, &recordingTransport{}, nil)

	assert.Equal(t, icm20948.InvalidConfig, a.Init())
}

func TestInitCallbacksDriveTransport(t *testing.T) {
	drv := &fakeDriver{}
	tr := &recordingTransport{}
	a := New(drv, tr, nil)
	require.Equal(t, icm20948.OK, a.Init())

	assert.Equal(t, icm20948.OK, drv.bus.Write(0x7F, []byte{0x00}))
	assert.Equal(t, []call{
		{op: "cs", level: gpio.Low},
		{op: "write", data: []byte{0x7F}, n: 1},
		{op: "write", data: []byte{0x00}, n: 1},
		{op: "cs", level: gpio.High},
	}, tr.calls)
}

func TestGetDataUpdatesBuffers(t *testing.T) {
	drv := &fakeDriver{
		gyro:  icm20948.Gyro{X: 1, Y: -2, Z: 3},
		accel: icm20948.Accel{X: 100, Y: 200, Z: -16384},
	}
	a := New(drv, &recordingTransport{}, nil)
	require.Equal(t, icm20948.OK, a.Init())

	assert.Equal(t, icm20948.OK, a.GetData())
	assert.Equal(t, drv.gyro, a.Gyro())
	assert.Equal(t, drv.accel, a.Accel())
	assert.Equal(t, []string{"init", "settings", "gyro", "accel"}, drv.order)
}

func TestGetDataPartialFailureKeepsStaleGyro(t *testing.T) {
	drv := &fakeDriver{
		gyro:  icm20948.Gyro{X: 5, Y: 5, Z: 5},
		accel: icm20948.Accel{X: 1, Y: 1, Z: 1},
	}
	a := New(drv, &recordingTransport{}, nil)
	require.Equal(t, icm20948.OK, a.GetData())

	drv.gyroRC = 1
	drv.gyro = icm20948.Gyro{X: 9, Y: 9, Z: 9}
	drv.accel = icm20948.Accel{X: 2, Y: 3, Z: 4}

	assert.Equal(t, icm20948.ReturnCode(1), a.GetData())
	assert.Equal(t, icm20948.Gyro{X: 5, Y: 5, Z: 5}, a.Gyro())
	assert.Equal(t, icm20948.Accel{X: 2, Y: 3, Z: 4}, a.Accel())
}

func TestGetDataCombinesStatus(t *testing.T) {
	codes := []icm20948.ReturnCode{icm20948.OK, 1, icm20948.Err, icm20948.NullPtr, icm20948.InvalidConfig}
	for _, g := range codes {
		for _, ac := range codes {
			a := New(&fakeDriver{gyroRC: g, accelRC: ac}, &recordingTransport{}, nil)
			got := a.GetData()
			if g == icm20948.OK && ac == icm20948.OK {
				assert.Equal(t, icm20948.OK, got)
			} else {
				assert.NotEqual(t, icm20948.OK, got, "gyro=%d accel=%d", g, ac)
			}
		}
	}
}

func TestFetchKeepsStatusesApart(t *testing.T) {
	a := New(&fakeDriver{accelRC: icm20948.Err}, &recordingTransport{}, nil)

	st := a.Fetch()
	assert.Equal(t, icm20948.OK, st.Gyro)
	assert.Equal(t, icm20948.Err, st.Accel)
	assert.False(t, st.OK())
	assert.Equal(t, icm20948.Err, st.Combined())
}

func TestRegisterAccessNeedsCapableDriver(t *testing.T) {
	a := New(&fakeDriver{}, &recordingTransport{}, nil)

	_, rc := a.ReadRegister(0, 0x00)
	assert.Equal(t, icm20948.InvalidConfig, rc)
	assert.Equal(t, icm20948.InvalidConfig, a.WriteRegister(0, 0x06, 0x01))
}
