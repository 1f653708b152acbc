// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import "fmt"

// LabelStyle selects the label set used for the eight compass bins.
type LabelStyle int

const (
	// LegacyLabels reproduces the deployed label set, where the
	// south-east bin reads "ES".
	LegacyLabels LabelStyle = iota
	// StandardLabels uses "SE" for the south-east bin.
	StandardLabels
)

// ParseLabelStyle maps a config value ("legacy", "standard") to a style.
func ParseLabelStyle(s string) (LabelStyle, error) {
	switch s {
	case "", "legacy":
		return LegacyLabels, nil
	case "standard":
		return StandardLabels, nil
	}
	return LegacyLabels, fmt.Errorf("unknown label style %q", s)
}

// Presentation strings.
const (
	ButtonSearch        = "Cerca Nord"
	ButtonStop          = "Stop"
	DefaultNotFound     = "Nessuna Città trovata"
	PressureUnavailable = "N/A"
)

// DirectionLabel maps a heading in degrees to one of eight 45° bins
// centred on the cardinal and intercardinal directions. Anything outside
// [22.5, 337.5) is north.
func DirectionLabel(degree float64, style LabelStyle) string {
	switch {
	case degree >= 22.5 && degree < 67.5:
		return "NE"
	case degree >= 67.5 && degree < 112.5:
		return "E"
	case degree >= 112.5 && degree < 157.5:
		if style == StandardLabels {
			return "SE"
		}
		return "ES"
	case degree >= 157.5 && degree < 202.5:
		return "S"
	case degree >= 202.5 && degree < 247.5:
		return "SW"
	case degree >= 247.5 && degree < 292.5:
		return "W"
	case degree >= 292.5 && degree < 337.5:
		return "NW"
	default:
		return "N"
	}
}
