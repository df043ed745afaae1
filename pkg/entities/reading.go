package entities

const (
	ProtocolV1 string = "V1"
	ProtocolV2 string = "V2"
)

// PSIToBar is the linear conversion factor between the two pressure units.
const PSIToBar float64 = 0.0689476

// SensorReading is the normalized view over the two incompatible wire
// formats. Decoders produce one of the two concrete variants; consumers
// only see this interface.
type SensorReading interface {
	Address() string
	ProtocolVariant() string
	WheelIndex() uint8
	SensorID() [3]byte
	PressurePSI() float64
	PressureBar() float64
	TemperatureC() float64
	// BatteryPercent is the normalized 0-100 battery level.
	BatteryPercent() uint8
	// BatteryRaw is the variant-specific raw battery byte.
	BatteryRaw() uint8
	Alert() bool
	TimestampMS() int64
}

// ReadingV1 holds a decoded 18-byte format advertisement. Pressure in BAR
// is carried independently of PSI to keep the precision the sensor
// originally transmitted (kPa is the intermediate for both).
type ReadingV1 struct {
	Addr      string
	Wheel     uint8
	ID        [3]byte
	PSI       float64
	Bar       float64
	TempC     float64
	Battery   uint8
	Alarm     bool
	Timestamp int64
}

func (r *ReadingV1) Address() string         { return r.Addr }
func (r *ReadingV1) ProtocolVariant() string { return ProtocolV1 }
func (r *ReadingV1) WheelIndex() uint8       { return r.Wheel }
func (r *ReadingV1) SensorID() [3]byte       { return r.ID }
func (r *ReadingV1) PressurePSI() float64    { return r.PSI }
func (r *ReadingV1) PressureBar() float64    { return r.Bar }
func (r *ReadingV1) TemperatureC() float64   { return r.TempC }
func (r *ReadingV1) BatteryRaw() uint8       { return r.Battery }
func (r *ReadingV1) Alert() bool             { return r.Alarm }
func (r *ReadingV1) TimestampMS() int64      { return r.Timestamp }

// BatteryPercent caps the raw 0-255 level at 100 so both variants expose
// the same scale; the raw value stays available through BatteryRaw.
func (r *ReadingV1) BatteryPercent() uint8 {
	if r.Battery > 100 {
		return 100
	}
	return r.Battery
}

// ReadingV2 holds a decoded 11-byte format advertisement. Wheel and
// sensor id come from the source address, not the payload.
type ReadingV2 struct {
	Addr           string
	Wheel          uint8
	ID             [3]byte
	PSI            float64
	TempC          float64
	BatteryVoltage float64
	BatteryPct     uint8
	BatteryByte    uint8
	Alarm          bool
	Timestamp      int64
}

func (r *ReadingV2) Address() string         { return r.Addr }
func (r *ReadingV2) ProtocolVariant() string { return ProtocolV2 }
func (r *ReadingV2) WheelIndex() uint8       { return r.Wheel }
func (r *ReadingV2) SensorID() [3]byte       { return r.ID }
func (r *ReadingV2) PressurePSI() float64    { return r.PSI }
func (r *ReadingV2) PressureBar() float64    { return r.PSI * PSIToBar }
func (r *ReadingV2) TemperatureC() float64   { return r.TempC }
func (r *ReadingV2) BatteryPercent() uint8   { return r.BatteryPct }
func (r *ReadingV2) BatteryRaw() uint8       { return r.BatteryByte }
func (r *ReadingV2) Alert() bool             { return r.Alarm }
func (r *ReadingV2) TimestampMS() int64      { return r.Timestamp }
