// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tone provides the beeper used by the north search.
package tone

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// ErrClosed is returned by Beep after Close.
var ErrClosed = errors.New("tone: generator closed")

// Generator emits fixed-length tones. It is acquired with an Opener and
// must be closed by its owner.
type Generator interface {
	Beep(d time.Duration) error
	Close() error
}

// Opener acquires a generator at a volume between 0 and 100.
type Opener func(volume int) (Generator, error)

// Buzzer drives a piezo buzzer with a PWM square wave on a GPIO pin. The
// volume maps onto the duty cycle, up to 50% at volume 100.
type Buzzer struct {
	mu     sync.Mutex
	pin    gpio.PinOut
	duty   gpio.Duty
	freq   physic.Frequency
	timer  *time.Timer
	closed bool
}

// BuzzerOpener returns an Opener for a buzzer on the named pin (e.g.
// "GPIO12") playing at freqHz.
func BuzzerOpener(pinName string, freqHz int) Opener {
	return func(volume int) (Generator, error) {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("tone: periph host init: %w", err)
		}
		pin := gpioreg.ByName(pinName)
		if pin == nil {
			return nil, fmt.Errorf("tone: buzzer pin %q not found", pinName)
		}
		return NewBuzzer(pin, volume, freqHz)
	}
}

// NewBuzzer prepares the pin and leaves it silent.
func NewBuzzer(pin gpio.PinOut, volume, freqHz int) (*Buzzer, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("tone: buzzer pin %s: %w", pin, err)
	}
	if freqHz <= 0 {
		freqHz = 2000
	}
	return &Buzzer{
		pin:  pin,
		duty: volumeDuty(volume),
		freq: physic.Frequency(freqHz) * physic.Hertz,
	}, nil
}

func volumeDuty(volume int) gpio.Duty {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return gpio.Duty(int64(gpio.DutyHalf) * int64(volume) / 100)
}

// Beep starts the tone and returns immediately; the pin is silenced after
// d. A beep requested while one is playing restarts the timer.
func (b *Buzzer) Beep(d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if err := b.pin.PWM(b.duty, b.freq); err != nil {
		return fmt.Errorf("tone: pwm: %w", err)
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(d, b.silence)
	return nil
}

func (b *Buzzer) silence() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pin.Out(gpio.Low); err != nil {
		log.Printf("tone: silence: %v", err)
	}
}

// Close silences the buzzer and releases the pin. It is idempotent.
func (b *Buzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	if err := b.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("tone: release: %w", err)
	}
	return b.pin.Halt()
}

// Log is a generator for machines without a buzzer: each beep is a log
// line.
type Log struct {
	mu     sync.Mutex
	volume int
	closed bool
}

// LogOpener opens Log generators.
func LogOpener(volume int) (Generator, error) {
	log.Printf("tone: log generator acquired (volume %d)", volume)
	return &Log{volume: volume}, nil
}

func (l *Log) Beep(d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	log.Printf("tone: beep %s", d)
	return nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		log.Println("tone: log generator released")
	}
	return nil
}
