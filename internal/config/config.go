package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string

	// Topics
	TopicTelemetry string
	TopicEnv       string

	// ICM-20948 hardware
	ICMSPIDevice  string
	ICMCSPin      string
	ICMSPISpeedHz int64

	// BMP280 hardware (optional, empty disables it)
	BMPSPIDevice string

	// Timing
	SampleInterval int // milliseconds

	// Logging
	LogLevel       string
	LogDevelopment bool

	// Web Server
	WebServerPort int

	// Metrics (0 disables the /metrics listener)
	MetricsPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds

	// Register debug
	RegisterDebugWritable []RegisterRange
}

// RegisterRange is an inclusive range of registers in one bank that the
// register debug tool may write.
type RegisterRange struct {
	Bank byte
	From byte
	To   byte
}

// Package-level state for the singleton: globalConfig is only set through
// InitGlobal and only read through Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		MQTTClientIDProducer:  "icm-telemetry-producer",
		MQTTClientIDConsole:   "icm-telemetry-console",
		MQTTClientIDDisplay:   "icm-telemetry-display",
		TopicTelemetry:        "icm/telemetry",
		TopicEnv:              "icm/env",
		ICMSPISpeedHz:         1_000_000,
		LogLevel:              "info",
		WebServerPort:         8081,
		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value
	case "TOPIC_ENV":
		c.TopicEnv = value

	// ICM-20948 hardware
	case "ICM_SPI_DEVICE":
		c.ICMSPIDevice = value
	case "ICM_CS_PIN":
		c.ICMCSPin = value
	case "ICM_SPI_SPEED_HZ":
		hz, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ICM_SPI_SPEED_HZ %q: %w", value, err)
		}
		// ICM-20948 SPI runs up to 7 MHz.
		if hz <= 0 || hz > 7_000_000 {
			return fmt.Errorf("ICM_SPI_SPEED_HZ must be 1-7000000, got %d", hz)
		}
		c.ICMSPISpeedHz = hz

	// BMP280 hardware
	case "BMP_SPI_DEVICE":
		c.BMPSPIDevice = value

	// Timing
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)
	case "LOG_DEVELOPMENT":
		dev, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_DEVELOPMENT %q: %w", value, err)
		}
		c.LogDevelopment = dev

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Metrics
	case "METRICS_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid METRICS_PORT %q: %w", value, err)
		}
		c.MetricsPort = port

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Register debug
	case "REGISTER_DEBUG_WRITABLE":
		ranges, err := ParseRegisterRanges(value)
		if err != nil {
			return fmt.Errorf("invalid REGISTER_DEBUG_WRITABLE %q: %w", value, err)
		}
		c.RegisterDebugWritable = ranges

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.ICMSPIDevice == "" {
		return fmt.Errorf("ICM_SPI_DEVICE is required")
	}
	if c.ICMCSPin == "" {
		return fmt.Errorf("ICM_CS_PIN is required")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL is required")
	}
	return nil
}

// ParseRegisterRanges parses a list like "0x03-0x07,2:0x14,2:0x00-0x02".
// An entry without a "bank:" prefix is in bank 0.
func ParseRegisterRanges(s string) ([]RegisterRange, error) {
	var ranges []RegisterRange
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var rr RegisterRange
		if bank, rest, ok := strings.Cut(entry, ":"); ok {
			b, err := strconv.ParseUint(strings.TrimSpace(bank), 0, 8)
			if err != nil || b > 3 {
				return nil, fmt.Errorf("bad bank in %q", entry)
			}
			rr.Bank = byte(b)
			entry = rest
		}

		lo, hi, isRange := strings.Cut(entry, "-")
		from, err := strconv.ParseUint(strings.TrimSpace(lo), 0, 7)
		if err != nil {
			return nil, fmt.Errorf("bad register %q: %w", lo, err)
		}
		to := from
		if isRange {
			to, err = strconv.ParseUint(strings.TrimSpace(hi), 0, 7)
			if err != nil {
				return nil, fmt.Errorf("bad register %q: %w", hi, err)
			}
			if to < from {
				return nil, fmt.Errorf("range %q is reversed", entry)
			}
		}
		rr.From, rr.To = byte(from), byte(to)
		ranges = append(ranges, rr)
	}
	return ranges, nil
}

// Writable reports whether the register debug tool may write bank/reg.
func (c *Config) Writable(bank, reg byte) bool {
	for _, r := range c.RegisterDebugWritable {
		if r.Bank == bank && reg >= r.From && reg <= r.To {
			return true
		}
	}
	return false
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads the file.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
