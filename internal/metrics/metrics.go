// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exposes the telemetry producer's counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
	"github.com/relabs-tech/icm_telemetry/internal/telemetry"
)

// Producer holds the producer loop's metrics. A nil *Producer is valid and
// records nothing.
type Producer struct {
	reg *prometheus.Registry

	ticks         prometheus.Counter
	fetchFailures *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
	lastStatus    prometheus.Gauge
}

// NewProducer registers the producer metrics on a fresh registry.
func NewProducer() *Producer {
	m := &Producer{
		reg: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icm_telemetry_ticks_total",
			Help: "Sample periods handled.",
		}),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icm_telemetry_fetch_failures_total",
				Help: "Failed sub-fetches by block.",
			},
			[]string{"block"},
		),
		publishErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icm_telemetry_publish_errors_total",
				Help: "MQTT publish failures by topic.",
			},
			[]string{"topic"},
		),
		lastStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "icm_telemetry_last_status",
			Help: "Combined status code of the most recent fetch.",
		}),
	}
	m.reg.MustRegister(m.ticks, m.fetchFailures, m.publishErrors, m.lastStatus)
	return m
}

// ObserveFetch records one sample period ending with st.
func (m *Producer) ObserveFetch(st telemetry.FetchStatus) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	if st.Gyro != icm20948.OK {
		m.fetchFailures.With(prometheus.Labels{"block": "gyro"}).Inc()
	}
	if st.Accel != icm20948.OK {
		m.fetchFailures.With(prometheus.Labels{"block": "accel"}).Inc()
	}
	m.lastStatus.Set(float64(st.Combined()))
}

// PublishError records a failed publish to topic.
func (m *Producer) PublishError(topic string) {
	if m == nil {
		return
	}
	m.publishErrors.With(prometheus.Labels{"topic": topic}).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Producer) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on port until ctx ends.
func (m *Producer) Serve(ctx context.Context, port int, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server error", zap.Error(err))
	}
}
