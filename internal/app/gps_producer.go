// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/config"
	"github.com/relabs-tech/inertial_compass/internal/gps"
)

// pumpFixes publishes every fix read from r as JSON (retained) to topic,
// until r fails.
func pumpFixes(r io.Reader, pub Publisher, topic string) error {
	return gps.ReadFixes(r, func(fix gps.Fix) {
		if err := pub.PublishJSON(topic, true, fix); err != nil {
			log.Printf("gps: %v", err)
			return
		}
		log.Printf("gps: published fix lat=%.6f lon=%.6f alt=%.1f", fix.Latitude, fix.Longitude, fix.Altitude)
	})
}

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes accepted fixes to the GPS topic.
func RunGPSProducer() error {
	cfg := config.Get()

	bus, err := dialBus(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer bus.Close()

	port, err := gps.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud", cfg.GPSSerialPort, cfg.GPSBaudRate)

	// Closing the port unblocks the reader on shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = pumpFixes(port, bus, cfg.TopicGPS)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// publishMockFixes publishes a fixed position once a second, for running
// the compass without a receiver.
func publishMockFixes(ctx context.Context, pub Publisher, topic string, lat, lon, alt float64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		now := time.Now().UTC()
		fix := gps.Fix{
			Time:            now.Format("15:04:05.0000"),
			Date:            now.Format("02/01/06"),
			Latitude:        lat,
			Longitude:       lon,
			Altitude:        alt,
			TimestampMillis: now.UnixMilli(),
			Validity:        "A",
		}
		if err := pub.PublishJSON(topic, true, fix); err != nil {
			log.Printf("gps: mock publish: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
