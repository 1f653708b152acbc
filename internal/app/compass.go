// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/inertial_compass/internal/compass"
	"github.com/relabs-tech/inertial_compass/internal/config"
	"github.com/relabs-tech/inertial_compass/internal/geocode"
	"github.com/relabs-tech/inertial_compass/internal/geomag"
	"github.com/relabs-tech/inertial_compass/internal/tone"
)

// Command is the payload of the command topic and of websocket messages.
type Command struct {
	Command string `json:"command"` // toggle_search, show, hide
}

// commandEvent maps a command name to the screen event it stands for.
func commandEvent(name string) (compass.Event, bool) {
	switch name {
	case "toggle_search":
		return compass.SearchToggled{}, true
	case "show":
		return compass.ScreenShown{}, true
	case "hide":
		return compass.ScreenHidden{}, true
	}
	return nil, false
}

// compassParams maps the configuration onto screen parameters.
func compassParams(cfg *config.Config) (compass.Params, error) {
	p := compass.DefaultParams()
	p.AlignTolerance = cfg.SearchTolerance
	p.Hold = time.Duration(cfg.SearchHold) * time.Millisecond
	p.MinBeepDelay = time.Duration(cfg.BeepMinDelay) * time.Millisecond
	p.MaxBeepDelay = time.Duration(cfg.BeepMaxDelay) * time.Millisecond
	p.BeepDuration = time.Duration(cfg.BeepDuration) * time.Millisecond
	p.ToneVolume = cfg.ToneVolume
	p.NormalizeTrueHeading = cfg.NormalizeTrueHeading
	p.LocationMaxUpdates = cfg.LocationMaxUpdates
	p.LocationTimeout = time.Duration(cfg.LocationTimeout) * time.Second
	if cfg.NotFoundLabel != "" {
		p.NotFoundLabel = cfg.NotFoundLabel
	}
	style, err := compass.ParseLabelStyle(cfg.DirectionLabels)
	if err != nil {
		return compass.Params{}, err
	}
	p.Labels = style
	return p, nil
}

// compassRuntime wires one screen to a bus. RunCompass and RunMockConsole
// differ only in the bus, the tone generator and the extra goroutines.
type compassRuntime struct {
	loop *compass.Loop
	exec *executor
}

func newCompassRuntime(ctx context.Context, cfg *config.Config, bus Bus, openTone tone.Opener, resolver geocode.Resolver) (*compassRuntime, error) {
	params, err := compassParams(cfg)
	if err != nil {
		return nil, err
	}
	declinator := geomag.New(cfg.DeclinationMode, cfg.DeclinationFixed)
	screen := compass.NewScreen(params, declinator)

	exec := newExecutor(ctx, bus, topicsFromConfig(cfg), openTone, resolver)
	loop := compass.NewLoop(screen, exec, 0)
	if err := exec.start(loop); err != nil {
		return nil, err
	}
	return &compassRuntime{loop: loop, exec: exec}, nil
}

// subscribeCommands feeds the command topic into the loop.
func (r *compassRuntime) subscribeCommands(bus Bus, topic string) error {
	return bus.Subscribe(topic, func(payload []byte) {
		var c Command
		if err := json.Unmarshal(payload, &c); err != nil {
			log.Printf("compass: command unmarshal error: %v", err)
			return
		}
		ev, ok := commandEvent(c.Command)
		if !ok {
			log.Printf("compass: unknown command %q", c.Command)
			return
		}
		if !r.loop.TryPost(ev) {
			log.Printf("compass: event queue full, dropped %q", c.Command)
		}
	})
}

// run starts the loop, announces permission and visibility, and blocks
// until ctx is done. Background lookups are drained before returning.
func (r *compassRuntime) run(ctx context.Context, g *errgroup.Group, locationEnabled bool) {
	g.Go(func() error {
		err := r.loop.Run(ctx)
		r.exec.wait()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	r.loop.Post(ctx, compass.PermissionResolved{Granted: locationEnabled})
	r.loop.Post(ctx, compass.ScreenShown{})
}

func toneOpener(cfg *config.Config) tone.Opener {
	if cfg.BuzzerPin == "" {
		return tone.LogOpener
	}
	return tone.BuzzerOpener(cfg.BuzzerPin, cfg.ToneFrequency)
}

func geocoder(cfg *config.Config) geocode.Resolver {
	if !cfg.GeocoderEnabled {
		return nil
	}
	if cfg.GeocoderAPIKey == "" {
		log.Println("compass: GEOCODER_API_KEY not set, locality lookups will fail")
	}
	return geocode.NewOpenCage(cfg.GeocoderAPIKey)
}

// RunCompass runs the compass screen controller: it listens to the sensor
// and GPS topics, drives the buzzer and the search button, and publishes
// the view to the view topic.
func RunCompass() error {
	cfg := config.Get()

	bus, err := dialBus(cfg.MQTTBroker, cfg.MQTTClientIDCompass)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	rt, err := newCompassRuntime(ctx, cfg, bus, toneOpener(cfg), geocoder(cfg))
	if err != nil {
		return fmt.Errorf("compass: %w", err)
	}
	if err := rt.subscribeCommands(bus, cfg.TopicCommand); err != nil {
		return fmt.Errorf("compass: %w", err)
	}
	log.Printf("compass: subscribed to %s", cfg.TopicCommand)

	if cfg.SearchButtonPin != "" {
		pin, err := openButton(cfg.SearchButtonPin)
		if err != nil {
			return fmt.Errorf("compass: %w", err)
		}
		g.Go(func() error {
			watchButton(ctx, pin, buttonDebounce, func() {
				rt.loop.TryPost(compass.SearchToggled{})
			})
			return nil
		})
		log.Printf("compass: search button on %s", cfg.SearchButtonPin)
	}

	rt.run(ctx, g, cfg.LocationEnabled)
	log.Println("compass: running")

	err = g.Wait()
	log.Println("compass: shutting down")
	return err
}
