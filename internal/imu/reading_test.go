package imu

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
	"github.com/relabs-tech/icm_telemetry/internal/telemetry"
)

type fixedSampler struct {
	g icm20948.Gyro
	a icm20948.Accel
}

func (f fixedSampler) Gyro() icm20948.Gyro   { return f.g }
func (f fixedSampler) Accel() icm20948.Accel { return f.a }

func TestNewReadingPartialFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := fixedSampler{g: icm20948.Gyro{X: 1, Y: 2, Z: 3}, a: icm20948.Accel{X: 4, Y: 5, Z: 6}}

	r := NewReading("icm20948", s, telemetry.FetchStatus{Gyro: 1, Accel: icm20948.OK}, now)

	assert.False(t, r.OK())
	assert.Equal(t, int8(1), r.Status)
	assert.Equal(t, int8(1), r.GyroStatus)
	assert.Equal(t, int8(0), r.AccelStatus)
	assert.True(t, r.GyroStale)
	assert.False(t, r.AccelStale)
	assert.Equal(t, []int16{1, 2, 3, 4, 5, 6}, []int16{r.Gx, r.Gy, r.Gz, r.Ax, r.Ay, r.Az})
}

func TestReadingJSONFields(t *testing.T) {
	r := NewReading("icm20948", fixedSampler{a: icm20948.Accel{Z: 16384}}, telemetry.FetchStatus{}, time.Unix(0, 0).UTC())
	assert.True(t, r.OK())

	payload, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &m))
	assert.Equal(t, "icm20948", m["source"])
	assert.Equal(t, float64(16384), m["az"])
	assert.NotContains(t, m, "gyro_stale")
	assert.Contains(t, m, "gyro_status")
}
