package compass

import "testing"

func TestDirectionLabel_Boundaries(t *testing.T) {
	cases := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{22.4, "N"},
		{22.5, "NE"},
		{67.4, "NE"},
		{67.5, "E"},
		{112.5, "ES"},
		{157.4, "ES"},
		{157.5, "S"},
		{202.5, "SW"},
		{247.5, "W"},
		{292.5, "NW"},
		{337.4, "NW"},
		{337.5, "N"},
		{359.9, "N"},
	}
	for _, tc := range cases {
		if got := DirectionLabel(tc.deg, LegacyLabels); got != tc.want {
			t.Fatalf("DirectionLabel(%v)=%q want %q", tc.deg, got, tc.want)
		}
	}
}

func TestDirectionLabel_Total(t *testing.T) {
	valid := map[string]bool{"N": true, "NE": true, "E": true, "ES": true, "S": true, "SW": true, "W": true, "NW": true}
	for d := 0.0; d < 360; d += 0.1 {
		if got := DirectionLabel(d, LegacyLabels); !valid[got] {
			t.Fatalf("DirectionLabel(%v)=%q not a label", d, got)
		}
	}
}

func TestDirectionLabel_StandardStyle(t *testing.T) {
	if got := DirectionLabel(135, StandardLabels); got != "SE" {
		t.Fatalf("got=%q want=SE", got)
	}
	if got := DirectionLabel(45, StandardLabels); got != "NE" {
		t.Fatalf("got=%q want=NE", got)
	}
}

func TestParseLabelStyle(t *testing.T) {
	if s, err := ParseLabelStyle(""); err != nil || s != LegacyLabels {
		t.Fatalf("empty: %v %v", s, err)
	}
	if s, err := ParseLabelStyle("standard"); err != nil || s != StandardLabels {
		t.Fatalf("standard: %v %v", s, err)
	}
	if _, err := ParseLabelStyle("fancy"); err == nil {
		t.Fatalf("expected error")
	}
}
