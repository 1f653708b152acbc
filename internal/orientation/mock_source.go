// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

// Typical mid-latitude field: ~22 µT horizontal, ~40 µT pointing down.
const (
	mockHorizontalField = 22.0
	mockVerticalField   = 40.0
)

type mockSource struct {
	start time.Time
	now   func() time.Time
	rate  float64 // degrees per second
}

// NewMockSource creates a mock source for a device lying flat and slowly
// turning clockwise, so the heading sweeps through every direction.
func NewMockSource() Source {
	return &mockSource{start: time.Now(), now: time.Now, rate: 30}
}

func (m *mockSource) Next() (Sample, error) {
	elapsed := m.now().Sub(m.start).Seconds()
	heading := math.Mod(elapsed*m.rate, 360)
	// Small wobble so the pitch/roll are not perfectly zero.
	wobble := 0.3 * math.Sin(elapsed*1.7)
	return FlatSample(heading, wobble), nil
}

// FlatSample returns the vectors a level device would measure when its
// forward axis points headingDeg clockwise from magnetic north. tilt adds
// a small x component to gravity (m/s²).
func FlatSample(headingDeg, tilt float64) Sample {
	psi := headingDeg * math.Pi / 180
	return Sample{
		Gravity: Vector3{tilt, 0, standardGravity},
		Geomagnetic: Vector3{
			-mockHorizontalField * math.Sin(psi),
			mockHorizontalField * math.Cos(psi),
			-mockVerticalField,
		},
	}
}
