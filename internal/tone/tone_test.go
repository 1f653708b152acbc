package tone

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

func pinState(p *gpiotest.Pin) (gpio.Level, gpio.Duty, physic.Frequency) {
	p.Lock()
	defer p.Unlock()
	return p.L, p.D, p.F
}

func TestVolumeDuty(t *testing.T) {
	cases := map[int]gpio.Duty{
		-5:  0,
		0:   0,
		100: gpio.DutyHalf,
		200: gpio.DutyHalf,
		50:  gpio.DutyHalf / 2,
	}
	for vol, want := range cases {
		if got := volumeDuty(vol); got != want {
			t.Fatalf("volumeDuty(%d)=%v want %v", vol, got, want)
		}
	}
}

func TestBuzzer_BeepThenSilence(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO12", Num: 12, L: gpio.High}
	b, err := NewBuzzer(pin, 80, 2000)
	if err != nil {
		t.Fatalf("NewBuzzer: %v", err)
	}
	if l, _, _ := pinState(pin); l != gpio.Low {
		t.Fatalf("buzzer not silent after open")
	}

	if err := b.Beep(50 * time.Millisecond); err != nil {
		t.Fatalf("Beep: %v", err)
	}
	_, duty, freq := pinState(pin)
	if duty != volumeDuty(80) || freq != 2*physic.KiloHertz {
		t.Fatalf("pwm duty=%v freq=%v", duty, freq)
	}

	// Pretend the square wave drives the line high until silenced.
	pin.Lock()
	pin.L = gpio.High
	pin.Unlock()

	deadline := time.Now().Add(time.Second)
	for {
		if l, _, _ := pinState(pin); l == gpio.Low {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("buzzer never silenced")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBuzzer_CloseIsIdempotentAndFinal(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO12", Num: 12}
	b, err := NewBuzzer(pin, 80, 0)
	if err != nil {
		t.Fatalf("NewBuzzer: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := b.Beep(time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Fatalf("Beep after Close err=%v want ErrClosed", err)
	}
}

func TestLogGenerator(t *testing.T) {
	g, err := LogOpener(80)
	if err != nil {
		t.Fatalf("LogOpener: %v", err)
	}
	if err := g.Beep(80 * time.Millisecond); err != nil {
		t.Fatalf("Beep: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := g.Beep(80 * time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Fatalf("err=%v want ErrClosed", err)
	}
}
