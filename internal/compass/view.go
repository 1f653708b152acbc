// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

// View is everything the presentation layer shows. It is a value snapshot
// and safe to hand to other goroutines.
type View struct {
	Time string `json:"time"` // RFC3339

	HasLocation bool    `json:"has_location"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	Locality    string  `json:"locality,omitempty"`

	HasHeading  bool    `json:"has_heading"`
	Heading     int     `json:"heading"`      // magnetic, 0-359
	TrueHeading int     `json:"true_heading"` // see TrueHeading
	Declination float64 `json:"declination"`
	Direction   string  `json:"direction"`
	Rotation    float64 `json:"rotation"` // compass rose rotation, degrees
	PitchDeg    float64 `json:"pitch_deg"`
	RollDeg     float64 `json:"roll_deg"`

	HasMagnetic      bool    `json:"has_magnetic"`
	MagneticStrength float64 `json:"magnetic_ut"`

	BarometerMissing bool    `json:"barometer_missing"`
	HasPressure      bool    `json:"has_pressure"`
	PressureHPa      float64 `json:"pressure_hpa"`
	Pressure         string  `json:"pressure"` // display text

	Searching   bool   `json:"searching"`
	ButtonLabel string `json:"button_label"`
}
