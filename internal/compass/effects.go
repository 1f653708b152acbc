// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import "time"

// Effect is a side effect requested by the screen controller. Effects are
// executed in order by an Executor.
type Effect interface {
	isEffect()
}

// Render asks the presentation layer to show a view.
type Render struct{ View View }

// AcquireTone opens the tone generator. It is always paired with a later
// ReleaseTone.
type AcquireTone struct{ Volume int }

// ReleaseTone closes the tone generator.
type ReleaseTone struct{}

// Beep emits one fixed-length tone.
type Beep struct{ Duration time.Duration }

// SubscribeSensors sets the live sensor subscriptions. Accelerometer and
// magnetometer are always included.
type SubscribeSensors struct{ Barometer bool }

// UnsubscribeSensors drops every sensor subscription.
type UnsubscribeSensors struct{}

// RequestLocation starts a bounded location request. Seq identifies the
// request and comes back in its LocationRequestEnded.
type RequestLocation struct {
	Seq        uint64
	MaxUpdates int
	Timeout    time.Duration
}

// CancelLocation cancels the outstanding location request.
type CancelLocation struct{}

// ReverseGeocode looks up the locality name for a position.
type ReverseGeocode struct {
	Latitude  float64
	Longitude float64
}

func (Render) isEffect()             {}
func (AcquireTone) isEffect()        {}
func (ReleaseTone) isEffect()        {}
func (Beep) isEffect()               {}
func (SubscribeSensors) isEffect()   {}
func (UnsubscribeSensors) isEffect() {}
func (RequestLocation) isEffect()    {}
func (CancelLocation) isEffect()     {}
func (ReverseGeocode) isEffect()     {}
