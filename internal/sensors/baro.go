// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/env"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// ErrNoBarometer means no barometer device is configured.
var ErrNoBarometer = errors.New("barometer: not configured")

// Barometer reads a BMP280/BME280 over SPI.
type Barometer struct {
	dev  *bmxx80.Dev
	port spi.PortCloser
}

// NewBarometer opens the barometer on spiDev. An empty spiDev returns
// ErrNoBarometer.
func NewBarometer(spiDev string) (*Barometer, error) {
	if spiDev == "" {
		return nil, ErrNoBarometer
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("barometer: periph host init: %w", err)
	}
	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("barometer: SPI open %s: %w", spiDev, err)
	}
	dev, err := bmxx80.NewSPI(port, &bmxx80.DefaultOpts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("barometer: init: %w", err)
	}
	return &Barometer{dev: dev, port: port}, nil
}

// ProbeBarometer tries to open the barometer once and reports whether one
// is available. The returned Barometer is nil when it is not.
func ProbeBarometer(spiDev string) (*Barometer, env.Status) {
	b, err := NewBarometer(spiDev)
	if err != nil {
		return nil, env.Status{Available: false, Reason: err.Error()}
	}
	return b, env.Status{Available: true}
}

// Read returns one pressure and temperature sample.
func (b *Barometer) Read() (env.Sample, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return env.Sample{}, fmt.Errorf("barometer sense: %w", err)
	}
	return EnvSample(e, time.Now()), nil
}

// EnvSample converts a periph measurement to a Sample.
func EnvSample(e physic.Env, t time.Time) env.Sample {
	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return env.Sample{
		Source:      "barometer",
		Temperature: e.Temperature.Celsius(),
		Pressure:    pressurePa,
		PressureHPa: pressurePa / 100.0, // 1 hPa = 100 Pa
		Time:        t.UTC().Format(time.RFC3339Nano),
	}
}

// Close halts the device and releases the SPI port.
func (b *Barometer) Close() error {
	if err := b.dev.Halt(); err != nil {
		b.port.Close()
		return fmt.Errorf("barometer halt: %w", err)
	}
	return b.port.Close()
}
