// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/inertial_compass/internal/compass"
)

// viewMetrics exports the latest compass view as Prometheus metrics.
type viewMetrics struct {
	heading          prometheus.Gauge
	trueHeading      prometheus.Gauge
	declination      prometheus.Gauge
	magneticStrength prometheus.Gauge
	pressure         prometheus.Gauge
	searching        prometheus.Gauge
	views            prometheus.Counter
	searches         prometheus.Counter

	wasSearching bool
}

func newViewMetrics(reg prometheus.Registerer) *viewMetrics {
	m := &viewMetrics{
		heading: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compass_heading_degrees",
			Help: "Magnetic heading.",
		}),
		trueHeading: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compass_true_heading_degrees",
			Help: "Heading corrected by declination.",
		}),
		declination: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compass_declination_degrees",
			Help: "Magnetic declination at the current fix, east positive.",
		}),
		magneticStrength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compass_magnetic_field_microtesla",
			Help: "Magnitude of the measured magnetic field.",
		}),
		pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compass_pressure_hpa",
			Help: "Atmospheric pressure.",
		}),
		searching: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "compass_north_search_active",
			Help: "1 while the north search is running.",
		}),
		views: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compass_views_total",
			Help: "Views received from the compass.",
		}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compass_north_searches_total",
			Help: "North searches started.",
		}),
	}
	reg.MustRegister(m.heading, m.trueHeading, m.declination, m.magneticStrength,
		m.pressure, m.searching, m.views, m.searches)
	return m
}

func (m *viewMetrics) observe(v compass.View) {
	m.views.Inc()
	if v.HasHeading {
		m.heading.Set(float64(v.Heading))
		m.trueHeading.Set(float64(v.TrueHeading))
		m.declination.Set(v.Declination)
	}
	if v.HasMagnetic {
		m.magneticStrength.Set(v.MagneticStrength)
	}
	if v.HasPressure {
		m.pressure.Set(v.PressureHPa)
	}
	if v.Searching {
		m.searching.Set(1)
		if !m.wasSearching {
			m.searches.Inc()
		}
	} else {
		m.searching.Set(0)
	}
	m.wasSearching = v.Searching
}
