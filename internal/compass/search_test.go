package compass

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestDistanceToNorth(t *testing.T) {
	cases := map[int]float64{0: 0, 10: 10, 180: 180, 181: 179, 270: 90, 359: 1}
	for h, want := range cases {
		if got := DistanceToNorth(h); got != want {
			t.Fatalf("DistanceToNorth(%d)=%v want %v", h, got, want)
		}
	}
}

func TestBeepDelay_EndpointsAndMonotonic(t *testing.T) {
	p := DefaultParams()
	if got := BeepDelay(0, p.MinBeepDelay, p.MaxBeepDelay); got != 120*time.Millisecond {
		t.Fatalf("BeepDelay(0)=%v want 120ms", got)
	}
	if got := BeepDelay(180, p.MinBeepDelay, p.MaxBeepDelay); got != 1200*time.Millisecond {
		t.Fatalf("BeepDelay(180)=%v want 1200ms", got)
	}
	if got := BeepDelay(90, p.MinBeepDelay, p.MaxBeepDelay); got != 660*time.Millisecond {
		t.Fatalf("BeepDelay(90)=%v want 660ms", got)
	}
	prev := time.Duration(0)
	for d := 0.0; d <= 180; d += 0.25 {
		got := BeepDelay(d, p.MinBeepDelay, p.MaxBeepDelay)
		if got < prev {
			t.Fatalf("BeepDelay not monotonic at %v: %v < %v", d, got, prev)
		}
		prev = got
	}
}

func TestNorthSearch_IdleDoesNothing(t *testing.T) {
	var n NorthSearch
	if got := n.Step(0, t0, DefaultParams()); got != StepQuiet {
		t.Fatalf("idle step=%v want quiet", got)
	}
}

func TestNorthSearch_BeepCadence(t *testing.T) {
	p := DefaultParams()
	var n NorthSearch
	n.Start()

	// 90° off: 660 ms between beeps, first beep immediately.
	steps := []struct {
		ms   int
		want SearchStep
	}{
		{0, StepBeep},
		{300, StepQuiet},
		{659, StepQuiet},
		{660, StepBeep},
		{1000, StepQuiet},
		{1320, StepBeep},
	}
	for _, s := range steps {
		if got := n.Step(90, at(s.ms), p); got != s.want {
			t.Fatalf("t=%dms got=%v want=%v", s.ms, got, s.want)
		}
	}
}

func TestNorthSearch_CompletesAfterHold(t *testing.T) {
	p := DefaultParams()
	var n NorthSearch
	n.Start()

	beeps := 0
	for ms := 0; ms < 3000; ms += 20 {
		switch n.Step(3, at(ms), p) {
		case StepBeep:
			beeps++
		case StepCompleted:
			t.Fatalf("completed early at %dms", ms)
		}
	}
	if beeps == 0 {
		t.Fatalf("expected beeps while holding")
	}
	if got := n.Step(357, at(3000), p); got != StepCompleted {
		t.Fatalf("step at 3000ms=%v want completed", got)
	}
	if n.Active() {
		t.Fatalf("search still active after completion")
	}
	for ms := 3000; ms < 6000; ms += 100 {
		if got := n.Step(0, at(ms), p); got != StepQuiet {
			t.Fatalf("beep after completion at %dms", ms)
		}
	}
}

func TestNorthSearch_ReentryRestartsHold(t *testing.T) {
	p := DefaultParams()
	var n NorthSearch
	n.Start()

	n.Step(0, at(0), p)
	n.Step(0, at(2000), p)
	n.Step(90, at(2100), p) // leaves the band
	if _, aligned := n.AlignedSince(); aligned {
		t.Fatalf("still aligned after leaving the band")
	}
	n.Step(5, at(2500), p) // re-enters
	since, aligned := n.AlignedSince()
	if !aligned || !since.Equal(at(2500)) {
		t.Fatalf("alignedSince=%v,%v want %v", since, aligned, at(2500))
	}
	if got := n.Step(5, at(5000), p); got == StepCompleted {
		t.Fatalf("completed with only 2500ms of hold")
	}
	if got := n.Step(5, at(5500), p); got != StepCompleted {
		t.Fatalf("step=%v want completed at 3000ms after re-entry", got)
	}
}

func TestNorthSearch_BoundaryOfBand(t *testing.T) {
	p := DefaultParams()
	var n NorthSearch
	n.Start()
	// Exactly 10° is outside the band.
	n.Step(10, at(0), p)
	if _, aligned := n.AlignedSince(); aligned {
		t.Fatalf("10° counted as aligned")
	}
	n.Step(351, at(10), p)
	if _, aligned := n.AlignedSince(); !aligned {
		t.Fatalf("9° counted as not aligned")
	}
}

func TestTrueHeading(t *testing.T) {
	cases := []struct {
		heading   int
		decl      float64
		normalize bool
		want      int
	}{
		{0, 5, false, 5},
		{0, -3, false, -3},
		{0, -3, true, 357},
		{358, 4.2, false, 362},
		{358, 4.2, true, 2},
		{10, 2.5, false, 13},
		{10, -2.5, false, 8},
		{100, 0, false, 100},
	}
	for _, tc := range cases {
		if got := TrueHeading(tc.heading, tc.decl, tc.normalize); got != tc.want {
			t.Fatalf("TrueHeading(%d,%v,%v)=%d want %d", tc.heading, tc.decl, tc.normalize, got, tc.want)
		}
	}
}
