package sensors

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/icm_telemetry/internal/env"
)

// EnvName tags readings from the board's BMP280.
const EnvName = "bmp280"

// EnvSensor is the optional BMP280 sharing the board with the IMU.
type EnvSensor struct {
	port spi.PortCloser
	dev  *bmxx80.Dev
}

// OpenEnv initializes the BMP280 on spiDev.
func OpenEnv(spiDev string, log *zap.Logger) (*EnvSensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("BMP SPI open: %w", err)
	}

	dev, err := bmxx80.NewSPI(port, &bmxx80.DefaultOpts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("BMP init: %w", err)
	}

	log.Info("BMP sensor initialized", zap.String("device", EnvName), zap.String("spi", spiDev))
	return &EnvSensor{port: port, dev: dev}, nil
}

// Read takes one temperature and pressure measurement.
func (s *EnvSensor) Read() (env.Sample, error) {
	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return env.Sample{}, fmt.Errorf("BMP sense: %w", err)
	}
	return envSample(EnvName, e, time.Now()), nil
}

// Close halts the sensor and releases the port.
func (s *EnvSensor) Close() error {
	if err := s.dev.Halt(); err != nil {
		s.port.Close()
		return fmt.Errorf("BMP halt: %w", err)
	}
	return s.port.Close()
}

func envSample(source string, e physic.Env, t time.Time) env.Sample {
	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return env.Sample{
		Source:      source,
		Time:        t,
		Temperature: e.Temperature.Celsius(),
		Pressure:    pressurePa,
		PressureHPa: pressurePa / 100.0, // 1 hPa = 100 Pa
	}
}
