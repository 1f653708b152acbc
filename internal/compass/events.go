// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"github.com/relabs-tech/inertial_compass/internal/gps"
	"github.com/relabs-tech/inertial_compass/internal/orientation"
)

// Event is anything the screen controller reacts to.
type Event interface {
	isEvent()
}

// GravityUpdated carries a new accelerometer vector (m/s²).
type GravityUpdated struct{ Vector orientation.Vector3 }

// MagneticUpdated carries a new magnetometer vector (µT).
type MagneticUpdated struct{ Vector orientation.Vector3 }

// PressureUpdated carries a new barometer reading.
type PressureUpdated struct{ HPa float64 }

// BarometerMissing reports that no barometer exists on this device.
type BarometerMissing struct{}

// PermissionResolved reports whether location access is allowed.
type PermissionResolved struct{ Granted bool }

// LocationUpdated delivers a location fix.
type LocationUpdated struct{ Fix gps.Fix }

// LocationRequestEnded reports that the location request Seq finished or
// timed out.
type LocationRequestEnded struct {
	Seq uint64
	Err error
}

// LocalityResolved delivers the reverse geocoding result.
type LocalityResolved struct {
	Name string
	Err  error
}

// SearchToggled is the user pressing the "Cerca Nord"/"Stop" button.
type SearchToggled struct{}

// ScreenShown and ScreenHidden bracket the visible lifetime.
type ScreenShown struct{}
type ScreenHidden struct{}

func (GravityUpdated) isEvent()       {}
func (MagneticUpdated) isEvent()      {}
func (PressureUpdated) isEvent()      {}
func (BarometerMissing) isEvent()     {}
func (PermissionResolved) isEvent()   {}
func (LocationUpdated) isEvent()      {}
func (LocationRequestEnded) isEvent() {}
func (LocalityResolved) isEvent()     {}
func (SearchToggled) isEvent()        {}
func (ScreenShown) isEvent()          {}
func (ScreenHidden) isEvent()         {}
