package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/icm_telemetry/internal/config"
	"github.com/relabs-tech/icm_telemetry/internal/imu"
)

// displayData holds the latest reading for the OLED.
type displayData struct {
	mu      sync.RWMutex
	reading imu.Reading
	have    bool
}

func (d *displayData) set(r imu.Reading) {
	d.mu.Lock()
	d.reading = r
	d.have = true
	d.mu.Unlock()
}

func (d *displayData) get() (imu.Reading, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reading, d.have
}

// RunDisplay mirrors the telemetry topic on an SSD1306 OLED.
func RunDisplay(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := openDisplay(bus)
	if err != nil {
		return err
	}
	defer dev.Halt()
	log.Info("display: initialized", zap.String("i2c_bus", cfg.DisplayI2CBus))

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Warn("display: error showing splash", zap.Error(err))
	}

	client, err := connectMQTT(cfg, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	data := &displayData{}
	token := client.Subscribe(cfg.TopicTelemetry, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r imu.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Warn("display: telemetry unmarshal error", zap.Error(err))
			return
		}
		data.set(r)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Info("display: subscribed", zap.String("topic", cfg.TopicTelemetry))

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r, have := data.get()
			if err := dev.Draw(dev.Bounds(), renderReading(r, have), image.Point{}); err != nil {
				log.Warn("display: error updating display", zap.Error(err))
			}
		}
	}
}

// openDisplay initializes a 128x64 SSD1306 at its fixed address 0x3C.
func openDisplay(bus i2c.Bus) (*ssd1306.Dev, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	return dev, nil
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func renderReading(r imu.Reading, have bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !have {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("ICM-20948")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	gyroMark, accelMark := " ", " "
	if r.GyroStale {
		gyroMark = "*"
	}
	if r.AccelStale {
		accelMark = "*"
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawString(fmt.Sprintf("G%s%5d %5d", gyroMark, r.Gx, r.Gy))
	drawer.Dot = fixed.P(0, 26)
	drawer.DrawString(fmt.Sprintf("  %5d", r.Gz))
	drawer.Dot = fixed.P(0, 39)
	drawer.DrawString(fmt.Sprintf("A%s%5d %5d", accelMark, r.Ax, r.Ay))
	drawer.Dot = fixed.P(0, 52)
	drawer.DrawString(fmt.Sprintf("  %5d", r.Az))
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()
	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("tiny-oled")
	drawer.Dot = fixed.P(10, 43)
	drawer.DrawString("telemetry")
	return img
}
