// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geocode turns a position into a human readable locality name.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	geo "github.com/kellydunn/golang-geo"
)

// ErrNotFound is returned when the geocoder has no locality for a point.
var ErrNotFound = errors.New("geocode: no locality found")

// Resolver resolves the locality for a position.
type Resolver interface {
	Locality(ctx context.Context, lat, lon float64) (string, error)
}

// Geo adapts a golang-geo Geocoder (OpenCage, Google, MapQuest) to
// Resolver.
type Geo struct {
	geocoder geo.Geocoder
}

// NewGeo wraps a golang-geo geocoder. A nil geocoder selects OpenCage.
func NewGeo(g geo.Geocoder) *Geo {
	if g == nil {
		g = &geo.OpenCageGeocoder{}
	}
	return &Geo{geocoder: g}
}

// NewOpenCage returns a resolver backed by the OpenCage service. The key
// is process wide in golang-geo, so the last call wins.
func NewOpenCage(apiKey string) *Geo {
	geo.OpenCageAPIKey = apiKey
	return NewGeo(&geo.OpenCageGeocoder{})
}

type result struct {
	address string
	err     error
}

// Locality asks the geocoder for the address of the point and returns its
// most specific named part. The underlying client has no context support,
// so cancellation abandons the lookup rather than aborting it.
func (g *Geo) Locality(ctx context.Context, lat, lon float64) (string, error) {
	done := make(chan result, 1)
	go func() {
		address, err := g.geocoder.ReverseGeocode(geo.NewPoint(lat, lon))
		done <- result{address: address, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("geocode: reverse %.5f,%.5f: %w", lat, lon, r.err)
		}
		name := LocalityFromAddress(r.address)
		if name == "" {
			return "", ErrNotFound
		}
		return name, nil
	}
}

// LocalityFromAddress picks the locality out of a comma separated address
// ("Via Roma 1, Bolzano, BZ, Italia"): the first part that does not start
// with a digit after skipping a leading street line when the address has
// more than two parts.
func LocalityFromAddress(address string) string {
	var parts []string
	for _, p := range strings.Split(address, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if len(parts) > 2 {
		parts = parts[1:]
	}
	for _, p := range parts {
		if p[0] < '0' || p[0] > '9' {
			return p
		}
	}
	return parts[0]
}
