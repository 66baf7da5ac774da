// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/icm_telemetry/internal/config"
	"github.com/relabs-tech/icm_telemetry/internal/env"
	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
	"github.com/relabs-tech/icm_telemetry/internal/imu"
	"github.com/relabs-tech/icm_telemetry/internal/metrics"
	"github.com/relabs-tech/icm_telemetry/internal/sensors"
	"github.com/relabs-tech/icm_telemetry/internal/telemetry"
)

// fetcher is the slice of the telemetry adapter the producer loop needs.
type fetcher interface {
	Fetch() telemetry.FetchStatus
	Gyro() icm20948.Gyro
	Accel() icm20948.Accel
}

type envReader interface {
	Read() (env.Sample, error)
}

// publisher sends one retained payload to a topic.
type publisher interface {
	Publish(topic string, payload []byte) error
}

type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

// connectMQTT connects to the configured broker with the given client ID.
func connectMQTT(cfg *config.Config, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	return client, nil
}

// RunTelemetryProducer samples the IMU every SAMPLE_INTERVAL and publishes
// each Reading until ctx is cancelled. With mock set, generated data
// replaces the SPI sensor.
func RunTelemetryProducer(ctx context.Context, cfg *config.Config, log *zap.Logger, mock bool) error {
	log.Info("starting ICM-20948 telemetry producer", zap.Bool("mock", mock))

	var (
		src    fetcher
		source string
	)
	if mock {
		src, source = sensors.NewMockAdapter(log), "mock"
	} else {
		dev, err := sensors.OpenIMU(cfg, log)
		if err != nil {
			return err
		}
		defer dev.Close()
		src, source = dev, sensors.IMUName
	}

	var envSrc envReader
	if cfg.BMPSPIDevice != "" && !mock {
		bmp, err := sensors.OpenEnv(cfg.BMPSPIDevice, log)
		if err != nil {
			log.Warn("BMP sensor unavailable, continuing without env data", zap.Error(err))
		} else {
			defer bmp.Close()
			envSrc = bmp
		}
	}

	client, err := connectMQTT(cfg, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Info("connected to MQTT, starting publish loop", zap.String("broker", cfg.MQTTBroker))

	p := &producer{
		src:    src,
		source: source,
		env:    envSrc,
		pub:    mqttPublisher{client: client},
		cfg:    cfg,
		log:    log,
	}
	if cfg.MetricsPort > 0 {
		p.metrics = metrics.NewProducer()
		go p.metrics.Serve(ctx, cfg.MetricsPort, log)
	}

	ticker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("telemetry producer stopping", zap.Int("ticks", p.ticks), zap.Int("failed", p.failed))
			return nil
		case t := <-ticker.C:
			p.tick(t)
		}
	}
}

type producer struct {
	src     fetcher
	source  string
	env     envReader
	pub     publisher
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Producer

	ticks  int
	failed int
}

// tick fetches one sample pair and publishes it. Readings are published
// even when a fetch failed; the status fields tell consumers which block
// is stale.
func (p *producer) tick(t time.Time) {
	p.ticks++

	st := p.src.Fetch()
	p.metrics.ObserveFetch(st)
	if !st.OK() {
		p.failed++
		p.log.Warn("sample fetch failed",
			zap.Stringer("gyro_status", st.Gyro),
			zap.Stringer("accel_status", st.Accel),
			zap.Int8("status", int8(st.Combined())),
		)
	}

	r := imu.NewReading(p.source, p.src, st, t)
	if payload, err := json.Marshal(r); err != nil {
		p.log.Error("reading marshal error", zap.Error(err))
	} else if err := p.pub.Publish(p.cfg.TopicTelemetry, payload); err != nil {
		p.metrics.PublishError(p.cfg.TopicTelemetry)
		p.log.Error("MQTT publish error", zap.String("topic", p.cfg.TopicTelemetry), zap.Error(err))
	}

	if p.env != nil {
		if s, err := p.env.Read(); err != nil {
			p.log.Warn("env read error", zap.Error(err))
		} else if payload, err := json.Marshal(s); err != nil {
			p.log.Error("env marshal error", zap.Error(err))
		} else if err := p.pub.Publish(p.cfg.TopicEnv, payload); err != nil {
			p.metrics.PublishError(p.cfg.TopicEnv)
			p.log.Error("MQTT publish error", zap.String("topic", p.cfg.TopicEnv), zap.Error(err))
		}
	}

	p.log.Debug("tick",
		zap.Int16("gx", r.Gx), zap.Int16("gy", r.Gy), zap.Int16("gz", r.Gz),
		zap.Int16("ax", r.Ax), zap.Int16("ay", r.Ay), zap.Int16("az", r.Az),
	)
}
