// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/icm_telemetry/internal/config"
	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
	"github.com/relabs-tech/icm_telemetry/internal/telemetry"
)

// IMUName tags readings and log lines from the board's motion sensor.
const IMUName = "icm20948"

// IMU is the telemetry adapter of the board's ICM-20948 plus the SPI
// transport behind it.
type IMU struct {
	*telemetry.Adapter
	tr *SPITransport
}

// OpenIMU opens the SPI transport from cfg, builds the adapter and runs its
// Init. A non-OK init code is returned as an *icm20948.StatusError.
func OpenIMU(cfg *config.Config, log *zap.Logger) (*IMU, error) {
	tr, err := NewSPITransport(IMUName, cfg.ICMSPIDevice, cfg.ICMCSPin, cfg.ICMSPISpeedHz, log)
	if err != nil {
		return nil, err
	}

	a := telemetry.New(icm20948.New(), tr, log.With(zap.String("device", IMUName)))
	if rc := a.Init(); rc != icm20948.OK {
		tr.Close()
		return nil, fmt.Errorf("%s: initialization: %w", IMUName, rc.AsError())
	}
	log.Info("IMU initialized, gyro and accelerometer enabled", zap.String("device", IMUName))

	return &IMU{Adapter: a, tr: tr}, nil
}

// Close releases the SPI transport.
func (m *IMU) Close() error {
	return m.tr.Close()
}
