// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/compass"
	"github.com/relabs-tech/inertial_compass/internal/env"
	"github.com/relabs-tech/inertial_compass/internal/geocode"
	"github.com/relabs-tech/inertial_compass/internal/gps"
	"github.com/relabs-tech/inertial_compass/internal/imu"
	"github.com/relabs-tech/inertial_compass/internal/orientation"
	"github.com/relabs-tech/inertial_compass/internal/tone"
)

const geocodeTimeout = 15 * time.Second

// Topics the compass process uses.
type Topics struct {
	Accel      string
	Mag        string
	Baro       string
	BaroStatus string
	GPS        string
	View       string
	Command    string
}

// poster is the part of compass.Loop the executor talks back to.
type poster interface {
	Post(ctx context.Context, ev compass.Event) error
	TryPost(ev compass.Event) bool
}

// executor turns screen effects into MQTT subscriptions, tone generator
// calls, location requests and geocoding lookups. Execute runs on the loop
// goroutine; the slow parts report back through the poster.
type executor struct {
	ctx      context.Context
	bus      Bus
	topics   Topics
	events   poster
	openTone tone.Opener
	resolver geocode.Resolver // nil disables geocoding
	onRender func(compass.View)

	gen        tone.Generator
	subscribed []string

	locMu     sync.Mutex
	locSink   chan gps.Fix
	locCancel context.CancelFunc

	wg sync.WaitGroup
}

func newExecutor(ctx context.Context, bus Bus, topics Topics, openTone tone.Opener, resolver geocode.Resolver) *executor {
	return &executor{
		ctx:      ctx,
		bus:      bus,
		topics:   topics,
		openTone: openTone,
		resolver: resolver,
	}
}

// start subscribes the GPS topic. Location requests attach to it through
// locSink, so the subscription itself never churns.
func (x *executor) start(events poster) error {
	x.events = events
	return x.bus.Subscribe(x.topics.GPS, x.handleFix)
}

// wait blocks until background lookups have finished.
func (x *executor) wait() {
	x.wg.Wait()
}

func (x *executor) Execute(e compass.Effect) {
	switch e := e.(type) {
	case compass.Render:
		if err := x.bus.PublishJSON(x.topics.View, true, e.View); err != nil {
			log.Printf("compass: %v", err)
		}
		if x.onRender != nil {
			x.onRender(e.View)
		}

	case compass.AcquireTone:
		if x.gen != nil {
			x.gen.Close()
		}
		gen, err := x.openTone(e.Volume)
		if err != nil {
			log.Printf("compass: tone generator unavailable: %v", err)
			return
		}
		x.gen = gen

	case compass.ReleaseTone:
		if x.gen == nil {
			return
		}
		if err := x.gen.Close(); err != nil {
			log.Printf("compass: tone release: %v", err)
		}
		x.gen = nil

	case compass.Beep:
		if x.gen == nil {
			return
		}
		if err := x.gen.Beep(e.Duration); err != nil {
			log.Printf("compass: beep: %v", err)
		}

	case compass.SubscribeSensors:
		x.unsubscribeSensors()
		x.subscribeSensors(e.Barometer)

	case compass.UnsubscribeSensors:
		x.unsubscribeSensors()

	case compass.RequestLocation:
		x.requestLocation(e.Seq, gps.RequestOptions{MaxUpdates: e.MaxUpdates, Timeout: e.Timeout})

	case compass.CancelLocation:
		x.cancelLocation()

	case compass.ReverseGeocode:
		x.reverseGeocode(e.Latitude, e.Longitude)
	}
}

func (x *executor) subscribeSensors(barometer bool) {
	x.subscribe(x.topics.Accel, func(payload []byte) {
		var r imu.Reading
		if err := json.Unmarshal(payload, &r); err != nil {
			log.Printf("compass: accel unmarshal error: %v", err)
			return
		}
		x.events.TryPost(compass.GravityUpdated{Vector: orientation.Vector3(r.Vector())})
	})
	x.subscribe(x.topics.Mag, func(payload []byte) {
		var r imu.Reading
		if err := json.Unmarshal(payload, &r); err != nil {
			log.Printf("compass: mag unmarshal error: %v", err)
			return
		}
		x.events.TryPost(compass.MagneticUpdated{Vector: orientation.Vector3(r.Vector())})
	})
	if !barometer {
		return
	}
	x.subscribe(x.topics.Baro, func(payload []byte) {
		var s env.Sample
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("compass: baro unmarshal error: %v", err)
			return
		}
		x.events.TryPost(compass.PressureUpdated{HPa: s.PressureHPa})
	})
	x.subscribe(x.topics.BaroStatus, func(payload []byte) {
		var st env.Status
		if err := json.Unmarshal(payload, &st); err != nil {
			log.Printf("compass: baro status unmarshal error: %v", err)
			return
		}
		if !st.Available {
			log.Printf("compass: barometer missing: %s", st.Reason)
			x.events.Post(x.ctx, compass.BarometerMissing{})
		}
	})
}

func (x *executor) subscribe(topic string, handler func([]byte)) {
	if err := x.bus.Subscribe(topic, handler); err != nil {
		log.Printf("compass: %v", err)
		return
	}
	x.subscribed = append(x.subscribed, topic)
}

func (x *executor) unsubscribeSensors() {
	if err := x.bus.Unsubscribe(x.subscribed...); err != nil {
		log.Printf("compass: %v", err)
	}
	x.subscribed = nil
}

func (x *executor) handleFix(payload []byte) {
	var f gps.Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		log.Printf("compass: gps unmarshal error: %v", err)
		return
	}
	if !f.Valid() {
		return
	}
	x.locMu.Lock()
	defer x.locMu.Unlock()
	if x.locSink == nil {
		return
	}
	select {
	case x.locSink <- f:
	default:
	}
}

func (x *executor) requestLocation(seq uint64, opts gps.RequestOptions) {
	x.cancelLocation()

	ctx, cancel := context.WithCancel(x.ctx)
	sink := make(chan gps.Fix, 1)
	x.locMu.Lock()
	x.locSink = sink
	x.locCancel = cancel
	x.locMu.Unlock()

	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		defer cancel()
		err := gps.Collect(ctx, sink, opts, func(f gps.Fix) {
			x.events.Post(ctx, compass.LocationUpdated{Fix: f})
		})

		x.locMu.Lock()
		if x.locSink == sink {
			x.locSink = nil
			x.locCancel = nil
		}
		x.locMu.Unlock()

		// A cancelled request was already ended by the screen.
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			log.Printf("compass: location request: %v", err)
		}
		x.events.Post(x.ctx, compass.LocationRequestEnded{Seq: seq, Err: err})
	}()
}

func (x *executor) cancelLocation() {
	x.locMu.Lock()
	cancel := x.locCancel
	x.locSink = nil
	x.locCancel = nil
	x.locMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (x *executor) reverseGeocode(lat, lon float64) {
	if x.resolver == nil {
		x.events.TryPost(compass.LocalityResolved{Err: geocode.ErrNotFound})
		return
	}
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		ctx, cancel := context.WithTimeout(x.ctx, geocodeTimeout)
		defer cancel()
		name, err := x.resolver.Locality(ctx, lat, lon)
		if err != nil {
			log.Printf("compass: %v", err)
		}
		x.events.Post(x.ctx, compass.LocalityResolved{Name: name, Err: err})
	}()
}
