package entities

const (
	DefaultFrontIdealPSI float64 = 36.0
	DefaultRearIdealPSI  float64 = 42.0
	DefaultPressureUnit  string  = "PSI"

	MaxBrightnessIndex int = 4
)

// BrightnessLevels are the backlight percentages cycled by a short press
// in normal mode.
var BrightnessLevels = [5]uint8{10, 30, 50, 75, 100}

// MonitorConfig is the persisted device configuration. The pairing
// workflow writes FrontAddress and RearAddress back on completion; the
// remaining fields are user settings.
type MonitorConfig struct {
	FrontAddress    string  `yaml:"front_address"`
	RearAddress     string  `yaml:"rear_address"`
	FrontIdealPSI   float64 `yaml:"front_ideal_psi"`
	RearIdealPSI    float64 `yaml:"rear_ideal_psi"`
	PressureUnit    string  `yaml:"pressure_unit"`
	BrightnessIndex int     `yaml:"brightness_index"`
}

// Paired reports whether both wheel roles have an assigned sensor.
func (c MonitorConfig) Paired() bool {
	return c.FrontAddress != "" && c.RearAddress != ""
}

// TelemetryConfig configures the optional broker integration.
type TelemetryConfig struct {
	URL       string `yaml:"url"`
	UserToken string `yaml:"user_token"`
	LogLevel  string `yaml:"log_level"`
}
