package imu

// Sensor names used in Reading.Sensor.
const (
	Accelerometer = "accelerometer"
	Magnetometer  = "magnetometer"
)

// Reading is a single three-axis sample from one motion sensor.
// Accelerometer values are in m/s², magnetometer values in µT.
type Reading struct {
	Sensor string  `json:"sensor"` // "accelerometer" or "magnetometer"
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Time   string  `json:"time"` // RFC3339Nano
}

// Vector returns the three axes as an array.
func (r Reading) Vector() [3]float64 {
	return [3]float64{r.X, r.Y, r.Z}
}
