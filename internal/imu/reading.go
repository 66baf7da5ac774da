package imu

import (
	"time"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
	"github.com/relabs-tech/icm_telemetry/internal/telemetry"
)

// Reading is one published telemetry record.
type Reading struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`

	Status      int8 `json:"status"`      // OR of both fetches, 0 = ok
	GyroStatus  int8 `json:"gyro_status"` // per-fetch codes
	AccelStatus int8 `json:"accel_status"`

	// Stale marks an axis block that kept the previous sample because its
	// fetch failed.
	GyroStale  bool `json:"gyro_stale,omitempty"`
	AccelStale bool `json:"accel_stale,omitempty"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`
}

// Sampler is what a Reading is built from: the adapter's latest buffers.
type Sampler interface {
	Gyro() icm20948.Gyro
	Accel() icm20948.Accel
}

// NewReading snapshots s after a fetch that ended with st.
func NewReading(source string, s Sampler, st telemetry.FetchStatus, t time.Time) Reading {
	g, a := s.Gyro(), s.Accel()
	return Reading{
		Source:      source,
		Time:        t,
		Status:      int8(st.Combined()),
		GyroStatus:  int8(st.Gyro),
		AccelStatus: int8(st.Accel),
		GyroStale:   st.Gyro != icm20948.OK,
		AccelStale:  st.Accel != icm20948.OK,
		Gx:          g.X,
		Gy:          g.Y,
		Gz:          g.Z,
		Ax:          a.X,
		Ay:          a.Y,
		Az:          a.Z,
	}
}

// OK reports whether both fetches behind r succeeded.
func (r Reading) OK() bool {
	return r.Status == 0
}
