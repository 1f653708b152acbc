// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"math"
	"time"
)

// DistanceToNorth returns the shortest angular distance in degrees between
// a heading and 0°/360°, in [0, 180].
func DistanceToNorth(heading int) float64 {
	d := math.Abs(float64(heading))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// BeepDelay interpolates linearly between minDelay (pointing north) and
// maxDelay (pointing south), truncated to whole milliseconds.
func BeepDelay(distance float64, minDelay, maxDelay time.Duration) time.Duration {
	minMS := float64(minDelay.Milliseconds())
	maxMS := float64(maxDelay.Milliseconds())
	ms := int64(minMS + (distance/180)*(maxMS-minMS))
	return time.Duration(ms) * time.Millisecond
}

// SearchStep is the outcome of one north-search update.
type SearchStep int

const (
	StepQuiet SearchStep = iota
	StepBeep
	StepCompleted
)

// NorthSearch is the timing state machine behind "Cerca Nord". The zero
// value is Idle.
type NorthSearch struct {
	active       bool
	aligned      bool
	alignedSince time.Time
	lastBeep     time.Time
}

// Active reports whether the controller is Searching.
func (n *NorthSearch) Active() bool { return n.active }

// AlignedSince returns when the current alignment hold started.
func (n *NorthSearch) AlignedSince() (time.Time, bool) {
	return n.alignedSince, n.aligned
}

// Start enters Searching with no alignment and no previous beep.
func (n *NorthSearch) Start() {
	*n = NorthSearch{active: true}
}

// Stop returns to Idle.
func (n *NorthSearch) Stop() {
	*n = NorthSearch{}
}

// Step advances the state machine with a new heading. StepCompleted means
// the heading stayed inside the tolerance band for the hold time and the
// search is now Idle; no beep is due on that cycle.
func (n *NorthSearch) Step(heading int, now time.Time, p Params) SearchStep {
	if !n.active {
		return StepQuiet
	}
	distance := DistanceToNorth(heading)

	if distance < p.AlignTolerance {
		if !n.aligned {
			n.aligned = true
			n.alignedSince = now
		}
		if now.Sub(n.alignedSince) >= p.Hold {
			n.Stop()
			return StepCompleted
		}
	} else {
		n.aligned = false
	}

	delay := BeepDelay(distance, p.MinBeepDelay, p.MaxBeepDelay)
	// A zero lastBeep is "never": the first update always beeps.
	if n.lastBeep.IsZero() || now.Sub(n.lastBeep) >= delay {
		n.lastBeep = now
		return StepBeep
	}
	return StepQuiet
}
