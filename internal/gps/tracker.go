// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// Tracker accumulates NMEA sentences into a Fix. Position, validity and
// time come from RMC; altitude and fix quality from GGA.
type Tracker struct {
	current Fix
	now     func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Update feeds one line. It returns the current fix and true when the
// line was a valid RMC sentence, which is when a fix is accepted.
// Unparseable lines and other sentence types are absorbed silently.
func (t *Tracker) Update(line string) (Fix, bool) {
	line = strings.TrimSpace(line)
	// NMEA sentences usually start with '$'
	if line == "" || !strings.HasPrefix(line, "$") {
		return Fix{}, false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy GPS or partial sentences
		return Fix{}, false
	}

	switch sentence.DataType() {
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		t.current.FixQuality = m.FixQuality
		t.current.Satellites = m.NumSatellites
		if m.FixQuality != nmea.Invalid {
			t.current.Altitude = m.Altitude
		}
		return Fix{}, false

	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		t.current.Time = m.Time.String()
		t.current.Date = m.Date.String()
		t.current.Validity = m.Validity
		if m.Validity != nmea.ValidRMC {
			return Fix{}, false
		}
		t.current.Latitude = m.Latitude
		t.current.Longitude = m.Longitude
		t.current.TimestampMillis = t.timestamp(m.Date, m.Time)
		return t.current, true

	default:
		// ignore other sentence types (GSA, GSV, VTG, ...)
		return Fix{}, false
	}
}

func (t *Tracker) timestamp(d nmea.Date, tm nmea.Time) int64 {
	if !d.Valid || !tm.Valid {
		return t.now().UnixMilli()
	}
	year := 2000 + d.YY
	if d.YY >= 80 {
		year = 1900 + d.YY
	}
	return time.Date(year, time.Month(d.MM), d.DD,
		tm.Hour, tm.Minute, tm.Second, tm.Millisecond*int(time.Millisecond), time.UTC).UnixMilli()
}
