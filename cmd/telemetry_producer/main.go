// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/relabs-tech/icm_telemetry/internal/app"
	"github.com/relabs-tech/icm_telemetry/internal/config"
	"github.com/relabs-tech/icm_telemetry/internal/logging"
)

func main() {
	configPath := flag.String("config", "./icm_config.txt", "path to configuration file")
	mock := flag.Bool("mock", false, "generate data instead of reading the ICM-20948")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting ICM-20948 telemetry producer (SPI → MQTT)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunTelemetryProducer(ctx, cfg, logger, *mock); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}
