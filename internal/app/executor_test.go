package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/compass"
	"github.com/relabs-tech/inertial_compass/internal/env"
	"github.com/relabs-tech/inertial_compass/internal/geocode"
	"github.com/relabs-tech/inertial_compass/internal/gps"
	"github.com/relabs-tech/inertial_compass/internal/imu"
	"github.com/relabs-tech/inertial_compass/internal/tone"
)

var testTopics = Topics{
	Accel:      "t/accel",
	Mag:        "t/mag",
	Baro:       "t/baro",
	BaroStatus: "t/baro/status",
	GPS:        "t/gps",
	View:       "t/view",
	Command:    "t/cmd",
}

type fakePoster struct {
	ch chan compass.Event
}

func newFakePoster() *fakePoster {
	return &fakePoster{ch: make(chan compass.Event, 64)}
}

func (p *fakePoster) Post(ctx context.Context, ev compass.Event) error {
	select {
	case p.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakePoster) TryPost(ev compass.Event) bool {
	select {
	case p.ch <- ev:
		return true
	default:
		return false
	}
}

func (p *fakePoster) next(t *testing.T) compass.Event {
	t.Helper()
	select {
	case ev := <-p.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for an event")
		return nil
	}
}

func (p *fakePoster) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-p.ch:
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(wait):
	}
}

type fakeTone struct {
	mu     sync.Mutex
	opened int
	closed int
	beeps  []time.Duration
	volume int
}

type fakeGen struct{ f *fakeTone }

func (f *fakeTone) open(volume int) (tone.Generator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	f.volume = volume
	return fakeGen{f}, nil
}

func (g fakeGen) Beep(d time.Duration) error {
	g.f.mu.Lock()
	defer g.f.mu.Unlock()
	g.f.beeps = append(g.f.beeps, d)
	return nil
}

func (g fakeGen) Close() error {
	g.f.mu.Lock()
	defer g.f.mu.Unlock()
	g.f.closed++
	return nil
}

func (f *fakeTone) counts() (opened, closed, beeps int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened, f.closed, len(f.beeps)
}

type fakeResolver struct {
	name string
	err  error
}

func (r fakeResolver) Locality(ctx context.Context, lat, lon float64) (string, error) {
	return r.name, r.err
}

func newTestExecutor(t *testing.T, resolver geocode.Resolver) (*executor, *fakeBus, *fakePoster, *fakeTone) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	bus := newFakeBus()
	ft := &fakeTone{}
	x := newExecutor(ctx, bus, testTopics, ft.open, resolver)
	p := newFakePoster()
	if err := x.start(p); err != nil {
		t.Fatalf("start: %v", err)
	}
	return x, bus, p, ft
}

func TestExecutor_SensorSubscriptions(t *testing.T) {
	x, bus, p, _ := newTestExecutor(t, nil)

	x.Execute(compass.SubscribeSensors{Barometer: true})
	for _, topic := range []string{testTopics.Accel, testTopics.Mag, testTopics.Baro, testTopics.BaroStatus} {
		if !bus.subscribed(topic) {
			t.Fatalf("%s not subscribed", topic)
		}
	}

	bus.deliver(testTopics.Accel, imu.Reading{Sensor: imu.Accelerometer, X: 0, Y: 9.8, Z: 0})
	if ev, ok := p.next(t).(compass.GravityUpdated); !ok || ev.Vector[1] != 9.8 {
		t.Fatalf("event=%#v want GravityUpdated", ev)
	}
	bus.deliver(testTopics.Mag, imu.Reading{Sensor: imu.Magnetometer, X: 1, Y: 2, Z: -40})
	if ev, ok := p.next(t).(compass.MagneticUpdated); !ok || ev.Vector[2] != -40 {
		t.Fatalf("event=%#v want MagneticUpdated", ev)
	}
	bus.deliver(testTopics.Baro, env.Sample{PressureHPa: 1001.5})
	if ev, ok := p.next(t).(compass.PressureUpdated); !ok || ev.HPa != 1001.5 {
		t.Fatalf("event=%#v want PressureUpdated", ev)
	}

	x.Execute(compass.SubscribeSensors{Barometer: false})
	if bus.subscribed(testTopics.Baro) || bus.subscribed(testTopics.BaroStatus) {
		t.Fatalf("barometer still subscribed")
	}
	if !bus.subscribed(testTopics.Accel) || !bus.subscribed(testTopics.Mag) {
		t.Fatalf("motion sensors dropped")
	}

	x.Execute(compass.UnsubscribeSensors{})
	if bus.subscribed(testTopics.Accel) || bus.subscribed(testTopics.Mag) {
		t.Fatalf("sensors still subscribed after UnsubscribeSensors")
	}
	if !bus.subscribed(testTopics.GPS) {
		t.Fatalf("GPS subscription must outlive sensor subscriptions")
	}
}

func TestExecutor_BarometerStatus(t *testing.T) {
	x, bus, p, _ := newTestExecutor(t, nil)
	x.Execute(compass.SubscribeSensors{Barometer: true})

	bus.deliver(testTopics.BaroStatus, env.Status{Available: true})
	p.none(t, 50*time.Millisecond)

	bus.deliver(testTopics.BaroStatus, env.Status{Available: false, Reason: "not configured"})
	if _, ok := p.next(t).(compass.BarometerMissing); !ok {
		t.Fatalf("want BarometerMissing")
	}
}

func TestExecutor_ToneLifecycle(t *testing.T) {
	x, _, _, ft := newTestExecutor(t, nil)

	x.Execute(compass.Beep{Duration: 80 * time.Millisecond})
	if _, _, beeps := ft.counts(); beeps != 0 {
		t.Fatalf("beep without generator")
	}

	x.Execute(compass.AcquireTone{Volume: 80})
	x.Execute(compass.Beep{Duration: 80 * time.Millisecond})
	x.Execute(compass.ReleaseTone{})
	x.Execute(compass.ReleaseTone{})
	x.Execute(compass.Beep{Duration: 80 * time.Millisecond})

	opened, closed, beeps := ft.counts()
	if opened != 1 || closed != 1 || beeps != 1 {
		t.Fatalf("opened=%d closed=%d beeps=%d want 1/1/1", opened, closed, beeps)
	}
	if ft.volume != 80 {
		t.Fatalf("volume=%d want 80", ft.volume)
	}
}

func TestExecutor_LocationRequestDeliversOneFix(t *testing.T) {
	x, bus, p, _ := newTestExecutor(t, nil)

	x.Execute(compass.RequestLocation{Seq: 7, MaxUpdates: 1, Timeout: time.Minute})
	bus.deliver(testTopics.GPS, gps.Fix{Latitude: 1, Validity: "V"})
	bus.deliver(testTopics.GPS, gps.Fix{Latitude: 46.5, Longitude: 11.35, Validity: "A"})

	if ev, ok := p.next(t).(compass.LocationUpdated); !ok || ev.Fix.Latitude != 46.5 {
		t.Fatalf("event=%#v want LocationUpdated 46.5", ev)
	}
	if ev, ok := p.next(t).(compass.LocationRequestEnded); !ok || ev.Err != nil || ev.Seq != 7 {
		t.Fatalf("event=%#v want LocationRequestEnded{Seq:7}", ev)
	}

	// Request is over: further fixes go nowhere.
	bus.deliver(testTopics.GPS, gps.Fix{Latitude: 47, Validity: "A"})
	p.none(t, 50*time.Millisecond)
	x.wait()
}

func TestExecutor_LocationTimeout(t *testing.T) {
	x, _, p, _ := newTestExecutor(t, nil)
	x.Execute(compass.RequestLocation{MaxUpdates: 1, Timeout: 20 * time.Millisecond})
	ev, ok := p.next(t).(compass.LocationRequestEnded)
	if !ok || !errors.Is(ev.Err, gps.ErrNoFix) {
		t.Fatalf("event=%#v want LocationRequestEnded{ErrNoFix}", ev)
	}
}

func TestExecutor_CancelLocationIsSilent(t *testing.T) {
	x, bus, p, _ := newTestExecutor(t, nil)
	x.Execute(compass.RequestLocation{MaxUpdates: 1, Timeout: time.Minute})
	x.Execute(compass.CancelLocation{})
	x.wait()

	bus.deliver(testTopics.GPS, gps.Fix{Latitude: 46.5, Validity: "A"})
	p.none(t, 50*time.Millisecond)
}

func TestExecutor_ReverseGeocode(t *testing.T) {
	cases := []struct {
		name     string
		resolver geocode.Resolver
		wantName string
		wantErr  bool
	}{
		{"found", fakeResolver{name: "Bolzano"}, "Bolzano", false},
		{"failure", fakeResolver{err: errors.New("offline")}, "", true},
		{"disabled", nil, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, _, p, _ := newTestExecutor(t, tc.resolver)
			x.Execute(compass.ReverseGeocode{Latitude: 46.5, Longitude: 11.35})
			ev, ok := p.next(t).(compass.LocalityResolved)
			if !ok {
				t.Fatalf("want LocalityResolved")
			}
			if ev.Name != tc.wantName || (ev.Err != nil) != tc.wantErr {
				t.Fatalf("got=%+v wantName=%q wantErr=%v", ev, tc.wantName, tc.wantErr)
			}
			x.wait()
		})
	}
}

func TestExecutor_RenderPublishesRetainedView(t *testing.T) {
	x, bus, _, _ := newTestExecutor(t, nil)
	var rendered compass.View
	x.onRender = func(v compass.View) { rendered = v }

	x.Execute(compass.Render{View: compass.View{HasHeading: true, Heading: 42, ButtonLabel: compass.ButtonSearch}})

	pubs := bus.publications(testTopics.View)
	if len(pubs) != 1 || !pubs[0].retained {
		t.Fatalf("view publications=%+v", pubs)
	}
	var v compass.View
	if err := json.Unmarshal(pubs[0].payload, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Heading != 42 || rendered.Heading != 42 {
		t.Fatalf("published=%d rendered=%d want 42", v.Heading, rendered.Heading)
	}
}
