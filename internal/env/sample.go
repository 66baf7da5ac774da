package env

import "time"

// Sample represents a single environmental measurement (BMP).
type Sample struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`

	Temperature float64 `json:"temp_c"`       // °C
	Pressure    float64 `json:"pressure_pa"`  // Pa
	PressureHPa float64 `json:"pressure_hpa"` // hPa
}
