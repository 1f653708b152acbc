package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/inertial_compass/internal/compass"
)

func TestFormatView(t *testing.T) {
	v := compass.View{
		HasHeading: true, Heading: 5, Direction: "N", TrueHeading: 8, Declination: 3.1,
		HasMagnetic: true, MagneticStrength: 47.3,
		Pressure:    "N/A",
		HasLocation: true, Latitude: 46.4983, Longitude: 11.3548, Locality: "Bolzano",
		ButtonLabel: compass.ButtonStop,
	}
	got := formatView(v)
	for _, want := range []string{"HDG=  5° N ", "TRUE=   8°", "DECL= +3.1°", "|B|= 47.3µT", "P=N/A", "LAT=46.49830", "(Bolzano)", "[Stop]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("formatView=%q missing %q", got, want)
		}
	}

	if got := formatView(compass.View{ButtonLabel: compass.ButtonSearch}); got != "HDG=---  [Cerca Nord]" {
		t.Fatalf("formatView(empty)=%q", got)
	}
}

func TestViewPrinterThrottles(t *testing.T) {
	var buf bytes.Buffer
	p := &viewPrinter{w: &buf, interval: time.Hour}
	p.print(compass.View{ButtonLabel: "a"})
	p.print(compass.View{ButtonLabel: "b"})
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("lines=%d want 1", got)
	}
}

func TestReadConsoleCommands(t *testing.T) {
	var got []compass.Event
	quit := false
	in := strings.NewReader("\ns\nh\nv\nx\nq\ns\n")
	readConsoleCommands(context.Background(), in, func(ev compass.Event) { got = append(got, ev) }, func() { quit = true })

	want := []compass.Event{compass.SearchToggled{}, compass.SearchToggled{}, compass.ScreenHidden{}, compass.ScreenShown{}}
	if len(got) != len(want) {
		t.Fatalf("events=%#v want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d]=%#v want %#v", i, got[i], want[i])
		}
	}
	if !quit {
		t.Fatalf("q did not quit")
	}
}

func TestSubscribeConsole(t *testing.T) {
	bus := newFakeBus()
	var buf bytes.Buffer
	if err := subscribeConsole(bus, testTopics, &buf, false); err != nil {
		t.Fatalf("subscribeConsole: %v", err)
	}
	if bus.subscribed(testTopics.Accel) {
		t.Fatalf("raw topics subscribed without raw")
	}
	bus.deliver(testTopics.View, compass.View{HasHeading: true, Heading: 90, Direction: "E", ButtonLabel: compass.ButtonSearch})
	if !strings.HasPrefix(buf.String(), "[VIEW] HDG= 90° E") {
		t.Fatalf("output=%q", buf.String())
	}

	raw := newFakeBus()
	if err := subscribeConsole(raw, testTopics, &buf, true); err != nil {
		t.Fatalf("subscribeConsole raw: %v", err)
	}
	for _, topic := range []string{testTopics.Accel, testTopics.Mag, testTopics.Baro} {
		if !raw.subscribed(topic) {
			t.Fatalf("%s not subscribed in raw mode", topic)
		}
	}
}
