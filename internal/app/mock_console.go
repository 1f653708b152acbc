// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/inertial_compass/internal/compass"
	"github.com/relabs-tech/inertial_compass/internal/config"
	"github.com/relabs-tech/inertial_compass/internal/env"
	"github.com/relabs-tech/inertial_compass/internal/tone"
)

// Mock GPS position used by the offline console (Bolzano).
const (
	mockLatitude  = 46.4983
	mockLongitude = 11.3548
	mockAltitude  = 262
)

// viewPrinter prints at most one view per interval.
type viewPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	interval time.Duration
	last     time.Time
}

func (p *viewPrinter) print(v compass.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	fmt.Fprintln(p.w, formatView(v))
}

// formatView renders a view as one console line.
func formatView(v compass.View) string {
	var b strings.Builder
	if v.HasHeading {
		fmt.Fprintf(&b, "HDG=%3d° %-2s TRUE=%4d° DECL=%+5.1f°", v.Heading, v.Direction, v.TrueHeading, v.Declination)
	} else {
		b.WriteString("HDG=---")
	}
	if v.HasMagnetic {
		fmt.Fprintf(&b, "  |B|=%5.1fµT", v.MagneticStrength)
	}
	if v.Pressure != "" {
		fmt.Fprintf(&b, "  P=%s", v.Pressure)
	}
	if v.HasLocation {
		fmt.Fprintf(&b, "  LAT=%.5f LON=%.5f", v.Latitude, v.Longitude)
	}
	if v.Locality != "" {
		fmt.Fprintf(&b, " (%s)", v.Locality)
	}
	fmt.Fprintf(&b, "  [%s]", v.ButtonLabel)
	return b.String()
}

// readConsoleCommands maps stdin lines to screen events: empty or "s"
// toggles the search, "h" hides, "v" shows, "q" quits.
func readConsoleCommands(ctx context.Context, r io.Reader, post func(compass.Event), quit func()) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "", "s":
			post(compass.SearchToggled{})
		case "h":
			post(compass.ScreenHidden{})
		case "v":
			post(compass.ScreenShown{})
		case "q":
			quit()
			return
		}
	}
}

// RunMockConsole runs the whole compass in one process against mock
// sensors and a mock GPS, printing views to the console. Beeps are
// logged.
func RunMockConsole() error {
	cfg := config.Get()
	if cfg == nil {
		cfg = config.Defaults()
	}
	// Offline: no geocoder, no buzzer hardware.
	cfg.GeocoderEnabled = false

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()
	g, ctx := errgroup.WithContext(ctx)

	bus := newLocalBus()
	topics := topicsFromConfig(cfg)

	rt, err := newCompassRuntime(ctx, cfg, bus, tone.LogOpener, nil)
	if err != nil {
		return err
	}
	printer := &viewPrinter{w: os.Stdout, interval: time.Duration(cfg.ConsoleLogInterval) * time.Millisecond}
	rt.exec.onRender = printer.print

	g.Go(func() error {
		return runSensorLoop(ctx, bus, topics, time.Duration(cfg.IMUSampleInterval)*time.Millisecond,
			newMockMotion(), newMockPressure(), env.Status{Available: true})
	})
	g.Go(func() error {
		publishMockFixes(ctx, bus, topics.GPS, mockLatitude, mockLongitude, mockAltitude)
		return nil
	})
	go readConsoleCommands(ctx, os.Stdin, func(ev compass.Event) {
		rt.loop.TryPost(ev)
	}, quit)

	log.Println("console: Enter toggles Cerca Nord, h hides, v shows, q quits")
	rt.run(ctx, g, true)
	return g.Wait()
}
