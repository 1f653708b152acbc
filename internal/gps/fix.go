package gps

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time            string  `json:"time"`     // e.g. "12:34:56.0000"
	Date            string  `json:"date"`     // e.g. "23/03/94"
	Latitude        float64 `json:"lat"`      // decimal degrees
	Longitude       float64 `json:"lon"`      // decimal degrees
	Altitude        float64 `json:"alt_m"`    // metres above mean sea level (GGA)
	TimestampMillis int64   `json:"ts_ms"`    // fix time, Unix milliseconds
	Validity        string  `json:"validity"` // "A" (valid) / "V" (void)
	FixQuality      string  `json:"fix_quality,omitempty"`
	Satellites      int64   `json:"satellites,omitempty"`
}

// Valid reports whether the receiver flagged the fix as usable.
func (f Fix) Valid() bool {
	return f.Validity == "A"
}
