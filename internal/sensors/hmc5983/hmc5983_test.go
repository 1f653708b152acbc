package hmc5983

import (
	"errors"
	"math"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func initOps(cra, crb, mode byte) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: DefaultAddr, W: []byte{regCRA, cra}},
		{Addr: DefaultAddr, W: []byte{regCRB, crb}},
		{Addr: DefaultAddr, W: []byte{regMode, mode}},
	}
}

func TestNew_WritesConfiguration(t *testing.T) {
	cases := []struct {
		name string
		opts Opts
		cra  byte
		crb  byte
		mode byte
	}{
		{"default", DefaultOpts, 0x78, 0x20, 0x00},
		{"zero value", Opts{}, 0x10, 0x00, 0x00},
		{"single temp comp", Opts{ODRHz: 220, AvgSamples: 2, GainCode: 7, Mode: "single", TempComp: true}, 0xBC, 0xE0, 0x01},
		{"bad gain", Opts{GainCode: 9}, 0x10, 0x20, 0x00},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bus := &i2ctest.Playback{Ops: initOps(tc.cra, tc.crb, tc.mode)}
			if _, err := New(bus, tc.opts); err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := bus.Close(); err != nil {
				t.Fatalf("unconsumed ops: %v", err)
			}
		})
	}
}

func TestSense_ScalesAndReordersAxes(t *testing.T) {
	ops := initOps(0x78, 0x20, 0x00)
	// X=1090, Z=-980, Y=545 counts at gain code 1.
	ops = append(ops, i2ctest.IO{Addr: DefaultAddr, W: []byte{regData}, R: []byte{0x04, 0x42, 0xFC, 0x2C, 0x02, 0x21}})
	bus := &i2ctest.Playback{Ops: ops}

	d, err := New(bus, DefaultOpts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	x, y, z, err := d.Sense()
	if err != nil {
		t.Fatalf("Sense: %v", err)
	}
	for _, c := range []struct {
		name      string
		got, want float64
	}{{"x", x, 100}, {"y", y, 50}, {"z", z, -100}} {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Fatalf("%s=%v want %v", c.name, c.got, c.want)
		}
	}
}

func TestSense_Overflow(t *testing.T) {
	ops := initOps(0x78, 0x20, 0x00)
	ops = append(ops, i2ctest.IO{Addr: DefaultAddr, W: []byte{regData}, R: []byte{0xF0, 0x00, 0x00, 0x10, 0x00, 0x10}})
	d, err := New(&i2ctest.Playback{Ops: ops}, DefaultOpts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, _, err := d.Sense(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("err=%v want ErrOverflow", err)
	}
}

func TestID(t *testing.T) {
	ops := initOps(0x78, 0x20, 0x00)
	ops = append(ops, i2ctest.IO{Addr: DefaultAddr, W: []byte{regIDA}, R: []byte("H43")})
	d, err := New(&i2ctest.Playback{Ops: ops}, DefaultOpts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := d.ID()
	if err != nil || id != "H43" {
		t.Fatalf("id=%q err=%v", id, err)
	}
}
