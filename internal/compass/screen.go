// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/geomag"
	"github.com/relabs-tech/inertial_compass/internal/gps"
	"github.com/relabs-tech/inertial_compass/internal/orientation"
)

// OrientationSample holds the last known reading of each motion sensor.
// The two streams update independently.
type OrientationSample struct {
	Gravity        orientation.Vector3
	Geomagnetic    orientation.Vector3
	HasGravity     bool
	HasGeomagnetic bool
}

// Complete reports whether both vectors have been seen.
func (s OrientationSample) Complete() bool {
	return s.HasGravity && s.HasGeomagnetic
}

// HeadingState is derived from the sample every time it is complete.
type HeadingState struct {
	CurrentDegree   float64 // rose rotation, -Degree
	Degree          int     // 0-359
	TrueNorthDegree int
	Declination     float64
	Pose            orientation.Pose
	Valid           bool
}

// Screen is the single-screen controller. It is not safe for concurrent
// use: drive it from one goroutine, normally through Loop.
type Screen struct {
	params     Params
	declinator geomag.Declinator

	sample  OrientationSample
	heading HeadingState

	magneticStrength float64
	hasMagnetic      bool

	barometerMissing bool
	pressureHPa      float64
	hasPressure      bool

	permission bool
	location   *gps.Fix
	locality   string
	locating   bool
	locSeq     uint64

	visible bool
	search  NorthSearch

	now time.Time
}

// NewScreen returns a hidden, idle screen. A nil declinator means no
// declination correction.
func NewScreen(p Params, d geomag.Declinator) *Screen {
	if d == nil {
		d = geomag.Off
	}
	if p.NotFoundLabel == "" {
		p.NotFoundLabel = DefaultNotFound
	}
	return &Screen{params: p, declinator: d}
}

// Heading returns the current heading state.
func (s *Screen) Heading() HeadingState { return s.heading }

// Sample returns the last known sensor sample.
func (s *Screen) Sample() OrientationSample { return s.sample }

// Searching reports whether the north search is running.
func (s *Screen) Searching() bool { return s.search.Active() }

// Location returns the retained fix, if any.
func (s *Screen) Location() (gps.Fix, bool) {
	if s.location == nil {
		return gps.Fix{}, false
	}
	return *s.location, true
}

// Handle applies one event at time now and returns the effects to run, in
// order.
func (s *Screen) Handle(ev Event, now time.Time) []Effect {
	s.now = now
	var effects []Effect

	switch e := ev.(type) {
	case GravityUpdated:
		s.sample.Gravity = e.Vector
		s.sample.HasGravity = true
		effects = append(effects, s.updateHeading(now)...)

	case MagneticUpdated:
		s.sample.Geomagnetic = e.Vector
		s.sample.HasGeomagnetic = true
		s.magneticStrength = orientation.MagneticStrength(e.Vector)
		s.hasMagnetic = true
		effects = append(effects, s.updateHeading(now)...)

	case PressureUpdated:
		if s.barometerMissing {
			return nil
		}
		s.pressureHPa = e.HPa
		s.hasPressure = true
		effects = append(effects, s.updateHeading(now)...)

	case BarometerMissing:
		if s.barometerMissing {
			return nil
		}
		s.barometerMissing = true
		s.hasPressure = false
		if s.visible {
			effects = append(effects, SubscribeSensors{Barometer: false})
		}

	case PermissionResolved:
		s.permission = e.Granted
		effects = append(effects, s.maybeRequestLocation()...)

	case LocationUpdated:
		fix := e.Fix
		s.location = &fix
		effects = append(effects, ReverseGeocode{Latitude: fix.Latitude, Longitude: fix.Longitude})

	case LocationRequestEnded:
		// An older request may end after a newer one started.
		if e.Seq == s.locSeq {
			s.locating = false
		}
		return nil

	case LocalityResolved:
		if e.Err != nil || e.Name == "" {
			s.locality = s.params.NotFoundLabel
		} else {
			s.locality = e.Name
		}

	case SearchToggled:
		if s.search.Active() {
			effects = append(effects, s.stopSearch()...)
		} else if !s.visible {
			return nil
		} else {
			s.search.Start()
			effects = append(effects, AcquireTone{Volume: s.params.ToneVolume})
		}

	case ScreenShown:
		if s.visible {
			return nil
		}
		s.visible = true
		effects = append(effects, SubscribeSensors{Barometer: !s.barometerMissing})
		effects = append(effects, s.maybeRequestLocation()...)

	case ScreenHidden:
		if !s.visible {
			return nil
		}
		s.visible = false
		effects = append(effects, UnsubscribeSensors{})
		if s.locating {
			s.locating = false
			effects = append(effects, CancelLocation{})
		}
		if s.search.Active() {
			effects = append(effects, s.stopSearch()...)
		}

	default:
		return nil
	}

	return append(effects, Render{View: s.View()})
}

// Close ends the screen for good: it releases the tone generator if a
// search is running and drops subscriptions and requests.
func (s *Screen) Close() []Effect {
	var effects []Effect
	if s.search.Active() {
		effects = append(effects, s.stopSearch()...)
	}
	if s.locating {
		s.locating = false
		effects = append(effects, CancelLocation{})
	}
	if s.visible {
		s.visible = false
		effects = append(effects, UnsubscribeSensors{})
	}
	return effects
}

// updateHeading recomputes the heading when both samples are present and
// advances the north search.
func (s *Screen) updateHeading(now time.Time) []Effect {
	if !s.sample.Complete() {
		return nil
	}
	degree, pose, ok := orientation.Heading(s.sample.Gravity, s.sample.Geomagnetic)
	if !ok {
		return nil
	}

	declination := 0.0
	if s.location != nil {
		declination = s.declinator.Declination(s.location.Latitude, s.location.Longitude, s.location.Altitude, now)
	}
	s.heading = HeadingState{
		CurrentDegree:   -float64(degree),
		Degree:          degree,
		TrueNorthDegree: TrueHeading(degree, declination, s.params.NormalizeTrueHeading),
		Declination:     declination,
		Pose:            pose,
		Valid:           true,
	}

	switch s.search.Step(degree, now, s.params) {
	case StepBeep:
		return []Effect{Beep{Duration: s.params.BeepDuration}}
	case StepCompleted:
		// Step already moved the machine to Idle.
		return []Effect{ReleaseTone{}}
	}
	return nil
}

func (s *Screen) stopSearch() []Effect {
	s.search.Stop()
	return []Effect{ReleaseTone{}}
}

func (s *Screen) maybeRequestLocation() []Effect {
	if !s.permission || !s.visible || s.locating || s.location != nil {
		return nil
	}
	s.locating = true
	s.locSeq++
	return []Effect{RequestLocation{
		Seq:        s.locSeq,
		MaxUpdates: s.params.LocationMaxUpdates,
		Timeout:    s.params.LocationTimeout,
	}}
}

// View builds the presentation snapshot of the current state.
func (s *Screen) View() View {
	v := View{
		HasMagnetic:      s.hasMagnetic,
		MagneticStrength: s.magneticStrength,
		BarometerMissing: s.barometerMissing,
		HasPressure:      s.hasPressure,
		PressureHPa:      s.pressureHPa,
		Searching:        s.search.Active(),
		ButtonLabel:      ButtonSearch,
		Locality:         s.locality,
	}
	if !s.now.IsZero() {
		v.Time = s.now.UTC().Format(time.RFC3339)
	}
	if v.Searching {
		v.ButtonLabel = ButtonStop
	}

	switch {
	case s.barometerMissing:
		v.Pressure = PressureUnavailable
	case s.hasPressure:
		v.Pressure = fmt.Sprintf("%.2f hPa", s.pressureHPa)
	}

	if s.location != nil {
		v.HasLocation = true
		v.Latitude = s.location.Latitude
		v.Longitude = s.location.Longitude
	}

	if s.heading.Valid {
		v.HasHeading = true
		v.Heading = s.heading.Degree
		v.TrueHeading = s.heading.TrueNorthDegree
		v.Declination = s.heading.Declination
		v.Direction = DirectionLabel(float64(s.heading.Degree), s.params.Labels)
		v.Rotation = s.heading.CurrentDegree
		v.PitchDeg = s.heading.Pose.Pitch * 180 / math.Pi
		v.RollDeg = s.heading.Pose.Roll * 180 / math.Pi
	}
	return v
}
