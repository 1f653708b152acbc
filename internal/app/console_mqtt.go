package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/relabs-tech/inertial_compass/internal/compass"
	"github.com/relabs-tech/inertial_compass/internal/config"
	"github.com/relabs-tech/inertial_compass/internal/env"
	"github.com/relabs-tech/inertial_compass/internal/gps"
	"github.com/relabs-tech/inertial_compass/internal/imu"
)

// subscribeConsole prints every message of the compass topics to w.
// Raw sensor topics are only printed when raw is set.
func subscribeConsole(bus Bus, topics Topics, w io.Writer, raw bool) error {
	if err := bus.Subscribe(topics.View, func(payload []byte) {
		var v compass.View
		if err := json.Unmarshal(payload, &v); err != nil {
			log.Printf("console: view unmarshal error: %v", err)
			return
		}
		fmt.Fprintf(w, "[VIEW] %s\n", formatView(v))
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(topics.GPS, func(payload []byte) {
		var f gps.Fix
		if err := json.Unmarshal(payload, &f); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		fmt.Fprintf(w, "[GPS ] time=%s date=%s lat=%.6f lon=%.6f alt=%.1fm validity=%s\n",
			f.Time, f.Date, f.Latitude, f.Longitude, f.Altitude, f.Validity)
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(topics.BaroStatus, func(payload []byte) {
		var st env.Status
		if err := json.Unmarshal(payload, &st); err != nil {
			log.Printf("console: baro status unmarshal error: %v", err)
			return
		}
		fmt.Fprintf(w, "[BARO] available=%v %s\n", st.Available, st.Reason)
	}); err != nil {
		return err
	}

	if !raw {
		return nil
	}

	printReading := func(tag string) func([]byte) {
		return func(payload []byte) {
			var r imu.Reading
			if err := json.Unmarshal(payload, &r); err != nil {
				log.Printf("console: %s unmarshal error: %v", strings.TrimSpace(tag), err)
				return
			}
			fmt.Fprintf(w, "[%s] x=%8.3f y=%8.3f z=%8.3f\n", tag, r.X, r.Y, r.Z)
		}
	}
	if err := bus.Subscribe(topics.Accel, printReading("ACC ")); err != nil {
		return err
	}
	if err := bus.Subscribe(topics.Mag, printReading("MAG ")); err != nil {
		return err
	}
	return bus.Subscribe(topics.Baro, func(payload []byte) {
		var s env.Sample
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("console: baro unmarshal error: %v", err)
			return
		}
		fmt.Fprintf(w, "[BARO] %.2f hPa %.1f°C\n", s.PressureHPa, s.Temperature)
	})
}

// RunConsoleMQTT prints compass views, GPS fixes and, with raw set, the
// sensor streams until interrupted.
func RunConsoleMQTT(raw bool) error {
	cfg := config.Get()

	bus, err := dialBus(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := subscribeConsole(bus, topicsFromConfig(cfg), os.Stdout, raw); err != nil {
		return err
	}
	log.Println("console: subscribed to compass topics")

	// Wait for Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("console: shutting down")
	return nil
}
