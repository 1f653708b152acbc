// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geomag provides magnetic declination for a location and time.
package geomag

import (
	"math"
	"time"

	geo "github.com/kellydunn/golang-geo"
)

// Declinator returns the magnetic declination in degrees (east positive)
// for a location and instant.
type Declinator interface {
	Declination(lat, lon, altMeters float64, t time.Time) float64
}

// Fixed is a constant declination, for sites where the local value is
// known from a chart.
type Fixed float64

func (f Fixed) Declination(_, _, _ float64, _ time.Time) float64 {
	return float64(f)
}

// Off always reports zero declination.
var Off = Fixed(0)

// WMM2025 degree-1 Gauss coefficients (nT) and their secular variation
// (nT/year).
const (
	wmmEpoch = 2025.0
	g10Base  = -29351.8
	g11Base  = -1410.8
	h11Base  = 4545.4
	g10Dot   = 12.0
	g11Dot   = 9.7
	h11Dot   = -21.5
)

// DipoleModel approximates the geomagnetic field by its centred dipole.
// The horizontal field of a centred dipole points along the great circle
// towards the geomagnetic north pole, so the declination is the initial
// bearing to that pole. Altitude does not change the direction of a
// centred dipole field and is ignored. Expect errors of several degrees
// compared with the full WMM.
type DipoleModel struct{}

func (DipoleModel) Declination(lat, lon, _ float64, t time.Time) float64 {
	if lat >= 90 || lat <= -90 {
		return 0
	}
	pole := NorthPole(t)
	site := geo.NewPoint(lat, lon)
	if site.Lat() == pole.Lat() && site.Lng() == pole.Lng() {
		return 0
	}
	return normalize180(site.BearingTo(pole))
}

// NorthPole returns the geomagnetic (dipole) north pole at time t.
func NorthPole(t time.Time) *geo.Point {
	delta := decimalYear(t.UTC()) - wmmEpoch
	g10 := g10Base + g10Dot*delta
	g11 := g11Base + g11Dot*delta
	h11 := h11Base + h11Dot*delta

	b0 := math.Sqrt(g10*g10 + g11*g11 + h11*h11)
	colat := math.Acos(-g10 / b0)
	lat := 90 - colat*180/math.Pi
	lon := math.Atan2(-h11, -g11) * 180 / math.Pi
	return geo.NewPoint(lat, lon)
}

func decimalYear(t time.Time) float64 {
	y := t.Year()
	start := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y+1, 1, 1, 0, 0, 0, 0, time.UTC)
	elapsed := t.Sub(start)
	duration := end.Sub(start)
	if duration <= 0 {
		return float64(y)
	}
	return float64(y) + float64(elapsed)/float64(duration)
}

func normalize180(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}

// New selects a declinator by config mode: "model", "fixed" or "off".
func New(mode string, fixed float64) Declinator {
	switch mode {
	case "fixed":
		return Fixed(fixed)
	case "off":
		return Off
	default:
		return DipoleModel{}
	}
}
