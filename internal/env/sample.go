package env

// Sample represents a single barometer measurement (BMP).
type Sample struct {
	Source      string  `json:"source"`
	Temperature float64 `json:"temp_c"`       // °C
	Pressure    float64 `json:"pressure_pa"`  // Pa
	PressureHPa float64 `json:"pressure_hpa"` // hPa
	Time        string  `json:"time"`
}

// Status is published once at startup so subscribers know whether a
// barometer exists at all.
type Status struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
