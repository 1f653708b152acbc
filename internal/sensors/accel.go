// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/imu"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

const (
	// accelLSBPerG is the MPU9250 sensitivity at the ±2g range set by Init.
	accelLSBPerG    = 16384.0
	standardGravity = 9.80665
)

// AccelToMS2 converts raw accelerometer counts to m/s².
func AccelToMS2(counts int16) float64 {
	return float64(counts) / accelLSBPerG * standardGravity
}

// Accelerometer reads the MPU9250 accelerometer over SPI.
type Accelerometer struct {
	imu *mpu9250.MPU9250
}

// NewAccelerometer initializes the MPU9250 on spiDev with chip select csPin.
func NewAccelerometer(spiDev, csPin string) (*Accelerometer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("accelerometer: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("accelerometer: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("accelerometer: SPI transport (%s): %w", spiDev, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("accelerometer: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("accelerometer: initialization: %w", err)
	}
	return &Accelerometer{imu: dev}, nil
}

// Read returns one acceleration sample in m/s², gravity included.
func (a *Accelerometer) Read() (imu.Reading, error) {
	ax, err := a.imu.GetAccelerationX()
	if err != nil {
		return imu.Reading{}, fmt.Errorf("accelerometer X: %w", err)
	}
	ay, err := a.imu.GetAccelerationY()
	if err != nil {
		return imu.Reading{}, fmt.Errorf("accelerometer Y: %w", err)
	}
	az, err := a.imu.GetAccelerationZ()
	if err != nil {
		return imu.Reading{}, fmt.Errorf("accelerometer Z: %w", err)
	}
	return imu.Reading{
		Sensor: imu.Accelerometer,
		X:      AccelToMS2(ax),
		Y:      AccelToMS2(ay),
		Z:      AccelToMS2(az),
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
