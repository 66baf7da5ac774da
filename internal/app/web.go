// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/icm_telemetry/internal/config"
	"github.com/relabs-tech/icm_telemetry/internal/sensors"
)

// RunRegisterDebug opens the IMU and serves the register debug websocket
// and the live data endpoint on cfg.WebServerPort until ctx ends.
func RunRegisterDebug(ctx context.Context, cfg *config.Config, log *zap.Logger, mock bool) error {
	var (
		dev    registerDevice
		source string
	)
	if mock {
		dev, source = sensors.NewMockAdapter(log), "mock"
	} else {
		m, err := sensors.OpenIMU(cfg, log)
		if err != nil {
			return err
		}
		defer m.Close()
		dev, source = m, sensors.IMUName
	}

	srv := NewRegisterDebugServer(dev, source, cfg, log)
	mux := http.NewServeMux()
	srv.Routes(mux)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("register debug tool listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("register debug tool shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
