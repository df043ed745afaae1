package network

// SensorReadingMessage is the normalized reading published on every
// significant change.
type SensorReadingMessage struct {
	Address        string  `json:"address"`
	Protocol       string  `json:"protocol"`
	WheelIndex     uint8   `json:"wheelIndex"`
	SensorID       string  `json:"sensorId"`
	PressurePSI    float64 `json:"pressurePsi"`
	PressureBar    float64 `json:"pressureBar"`
	TemperatureC   float64 `json:"temperatureC"`
	BatteryPercent uint8   `json:"batteryPercent"`
	Alert          bool    `json:"alert"`
	Timestamp      int64   `json:"timestamp"`
}

// PairingCompletedMessage announces a finished pairing workflow.
type PairingCompletedMessage struct {
	FrontAddress string `json:"frontAddress"`
	RearAddress  string `json:"rearAddress"`
}

// SettingsUpdatedMessage carries remotely pushed settings.
type SettingsUpdatedMessage struct {
	FrontIdealPSI float64 `json:"frontIdealPsi,omitempty"`
	RearIdealPSI  float64 `json:"rearIdealPsi,omitempty"`
	PressureUnit  string  `json:"pressureUnit,omitempty"`
	Error         string  `json:"error,omitempty"`
}
