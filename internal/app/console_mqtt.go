package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/icm_telemetry/internal/config"
	"github.com/relabs-tech/icm_telemetry/internal/env"
	"github.com/relabs-tech/icm_telemetry/internal/imu"
)

// RunConsoleMQTT prints every telemetry and env message until ctx ends.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	client, err := connectMQTT(cfg, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Info("console: connected to MQTT broker", zap.String("broker", cfg.MQTTBroker))

	return runConsole(ctx, client, cfg, os.Stdout, log)
}

func runConsole(ctx context.Context, client mqtt.Client, cfg *config.Config, out io.Writer, log *zap.Logger) error {
	telemetryToken := client.Subscribe(cfg.TopicTelemetry, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r imu.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Warn("console: telemetry unmarshal error", zap.Error(err))
			return
		}
		fmt.Fprintln(out, formatReading(r))
	})
	telemetryToken.Wait()
	if telemetryToken.Error() != nil {
		return telemetryToken.Error()
	}
	log.Info("console: subscribed", zap.String("topic", cfg.TopicTelemetry))

	envToken := client.Subscribe(cfg.TopicEnv, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Warn("console: env unmarshal error", zap.Error(err))
			return
		}
		fmt.Fprintln(out, formatEnv(s))
	})
	envToken.Wait()
	if envToken.Error() != nil {
		return envToken.Error()
	}
	log.Info("console: subscribed", zap.String("topic", cfg.TopicEnv))

	<-ctx.Done()
	log.Info("console: shutting down")
	return nil
}

func formatReading(r imu.Reading) string {
	line := fmt.Sprintf("[IMU] gx=%6d gy=%6d gz=%6d  ax=%6d ay=%6d az=%6d",
		r.Gx, r.Gy, r.Gz, r.Ax, r.Ay, r.Az)
	if !r.OK() {
		line += fmt.Sprintf("  status=%d (gyro=%d accel=%d)", r.Status, r.GyroStatus, r.AccelStatus)
	}
	return line
}

func formatEnv(s env.Sample) string {
	return fmt.Sprintf("[ENV] temp=%6.2f°C  pressure=%8.2fhPa", s.Temperature, s.PressureHPa)
}
