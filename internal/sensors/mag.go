// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/imu"
	"github.com/relabs-tech/inertial_compass/internal/sensors/hmc5983"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Magnetometer reads the HMC5983 over I2C.
type Magnetometer struct {
	dev *hmc5983.Dev
	bus i2c.BusCloser
}

// NewMagnetometer opens busName ("" for the first bus) and configures the
// HMC5983.
func NewMagnetometer(busName string, opts hmc5983.Opts) (*Magnetometer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("magnetometer: periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("magnetometer: open I2C bus %q: %w", busName, err)
	}
	m, err := newMagnetometer(bus, opts)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return m, nil
}

func newMagnetometer(bus i2c.BusCloser, opts hmc5983.Opts) (*Magnetometer, error) {
	dev, err := hmc5983.New(bus, opts)
	if err != nil {
		return nil, fmt.Errorf("magnetometer: %w", err)
	}
	if id, err := dev.ID(); err != nil {
		log.Printf("magnetometer: could not read ID: %v", err)
	} else if id != "H43" {
		log.Printf("magnetometer: unexpected ID %q, continuing", id)
	}
	return &Magnetometer{dev: dev, bus: bus}, nil
}

// Read returns one field sample in µT.
func (m *Magnetometer) Read() (imu.Reading, error) {
	x, y, z, err := m.dev.Sense()
	if err != nil {
		return imu.Reading{}, fmt.Errorf("magnetometer: %w", err)
	}
	return imu.Reading{
		Sensor: imu.Magnetometer,
		X:      x,
		Y:      y,
		Z:      z,
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// Close releases the I2C bus.
func (m *Magnetometer) Close() error {
	return m.bus.Close()
}
