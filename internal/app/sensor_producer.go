// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/config"
	"github.com/relabs-tech/inertial_compass/internal/env"
	"github.com/relabs-tech/inertial_compass/internal/imu"
	"github.com/relabs-tech/inertial_compass/internal/orientation"
	"github.com/relabs-tech/inertial_compass/internal/sensors"
	"github.com/relabs-tech/inertial_compass/internal/sensors/hmc5983"
)

// motionSource yields one accelerometer and one magnetometer reading per
// call.
type motionSource interface {
	Read() (accel, mag imu.Reading, err error)
}

// pressureSource yields one barometer sample per call.
type pressureSource interface {
	Read() (env.Sample, error)
}

type hardwareMotion struct {
	accel *sensors.Accelerometer
	mag   *sensors.Magnetometer
}

func (h hardwareMotion) Read() (imu.Reading, imu.Reading, error) {
	a, err := h.accel.Read()
	if err != nil {
		return imu.Reading{}, imu.Reading{}, err
	}
	m, err := h.mag.Read()
	if err != nil {
		return imu.Reading{}, imu.Reading{}, err
	}
	return a, m, nil
}

// mockMotion adapts an orientation.Source to motionSource.
type mockMotion struct {
	src orientation.Source
	now func() time.Time
}

func newMockMotion() *mockMotion {
	return &mockMotion{src: orientation.NewMockSource(), now: time.Now}
}

func (m *mockMotion) Read() (imu.Reading, imu.Reading, error) {
	s, err := m.src.Next()
	if err != nil {
		return imu.Reading{}, imu.Reading{}, err
	}
	ts := m.now().UTC().Format(time.RFC3339Nano)
	return imu.Reading{Sensor: imu.Accelerometer, X: s.Gravity[0], Y: s.Gravity[1], Z: s.Gravity[2], Time: ts},
		imu.Reading{Sensor: imu.Magnetometer, X: s.Geomagnetic[0], Y: s.Geomagnetic[1], Z: s.Geomagnetic[2], Time: ts},
		nil
}

// mockPressure drifts slowly around standard sea level pressure.
type mockPressure struct {
	start time.Time
	now   func() time.Time
}

func newMockPressure() *mockPressure {
	return &mockPressure{start: time.Now(), now: time.Now}
}

func (m *mockPressure) Read() (env.Sample, error) {
	now := m.now()
	hpa := 1013.25 + 0.8*math.Sin(now.Sub(m.start).Minutes())
	return env.Sample{
		Source:      "mock",
		Temperature: 20,
		Pressure:    hpa * 100,
		PressureHPa: hpa,
		Time:        now.UTC().Format(time.RFC3339Nano),
	}, nil
}

// publishSensorTick reads every source once and publishes the readings.
// A nil baro is skipped.
func publishSensorTick(pub Publisher, topics Topics, motion motionSource, baro pressureSource) error {
	accel, mag, err := motion.Read()
	if err != nil {
		return fmt.Errorf("motion read: %w", err)
	}
	if err := pub.PublishJSON(topics.Accel, false, accel); err != nil {
		return err
	}
	if err := pub.PublishJSON(topics.Mag, false, mag); err != nil {
		return err
	}
	if baro == nil {
		return nil
	}
	sample, err := baro.Read()
	if err != nil {
		return fmt.Errorf("barometer read: %w", err)
	}
	return pub.PublishJSON(topics.Baro, false, sample)
}

// runSensorLoop announces the barometer status (retained, so late
// subscribers learn it) and then publishes a tick every interval until ctx
// is done.
func runSensorLoop(ctx context.Context, pub Publisher, topics Topics, interval time.Duration, motion motionSource, baro pressureSource, status env.Status) error {
	if err := pub.PublishJSON(topics.BaroStatus, true, status); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := publishSensorTick(pub, topics, motion, baro); err != nil {
				log.Printf("sensors: %v", err)
			}
		}
	}
}

func topicsFromConfig(cfg *config.Config) Topics {
	return Topics{
		Accel:      cfg.TopicAccel,
		Mag:        cfg.TopicMag,
		Baro:       cfg.TopicBaro,
		BaroStatus: cfg.TopicBaroStatus,
		GPS:        cfg.TopicGPS,
		View:       cfg.TopicView,
		Command:    cfg.TopicCommand,
	}
}

// RunSensorProducer publishes accelerometer, magnetometer and barometer
// readings to MQTT. With mock set it publishes a synthetic device slowly
// turning on a table instead of touching hardware.
func RunSensorProducer(mock bool) error {
	cfg := config.Get()

	var (
		motion motionSource
		baro   pressureSource
		status env.Status
	)
	if mock {
		log.Println("sensors: using mock motion and pressure sources")
		motion = newMockMotion()
		baro = newMockPressure()
		status = env.Status{Available: true}
	} else {
		accel, err := sensors.NewAccelerometer(cfg.IMUSPIDevice, cfg.IMUCSPin)
		if err != nil {
			return err
		}
		mag, err := sensors.NewMagnetometer(cfg.MagI2CBus, hmc5983.Opts{
			Addr:       cfg.MagI2CAddr,
			ODRHz:      cfg.MagODR,
			AvgSamples: cfg.MagAveraging,
			GainCode:   cfg.MagGain,
			Mode:       cfg.MagSampleMode,
		})
		if err != nil {
			return err
		}
		defer mag.Close()
		motion = hardwareMotion{accel: accel, mag: mag}

		// Probed once: a missing barometer stays missing for this run.
		b, st := sensors.ProbeBarometer(cfg.BaroSPIDevice)
		status = st
		if b != nil {
			defer b.Close()
			baro = b
		} else {
			log.Printf("sensors: no barometer: %s", st.Reason)
		}
	}

	bus, err := dialBus(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("sensors: publishing every %d ms", cfg.IMUSampleInterval)
	return runSensorLoop(ctx, bus, topicsFromConfig(cfg), time.Duration(cfg.IMUSampleInterval)*time.Millisecond, motion, baro, status)
}
