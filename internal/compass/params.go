// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import "time"

// Params tunes the screen controller.
type Params struct {
	// North search
	AlignTolerance float64       // degrees either side of north
	Hold           time.Duration // continuous alignment needed to finish
	MinBeepDelay   time.Duration // beep period when pointing north
	MaxBeepDelay   time.Duration // beep period when pointing south
	BeepDuration   time.Duration
	ToneVolume     int // 0-100

	// Presentation
	NormalizeTrueHeading bool
	Labels               LabelStyle
	NotFoundLabel        string

	// Location request
	LocationMaxUpdates int
	LocationTimeout    time.Duration
}

// DefaultParams returns the values the compass ships with.
func DefaultParams() Params {
	return Params{
		AlignTolerance:     10,
		Hold:               3000 * time.Millisecond,
		MinBeepDelay:       120 * time.Millisecond,
		MaxBeepDelay:       1200 * time.Millisecond,
		BeepDuration:       80 * time.Millisecond,
		ToneVolume:         80,
		Labels:             LegacyLabels,
		NotFoundLabel:      DefaultNotFound,
		LocationMaxUpdates: 1,
		LocationTimeout:    5 * time.Minute,
	}
}
