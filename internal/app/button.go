// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	buttonDebounce = 250 * time.Millisecond
	edgePoll       = 200 * time.Millisecond
)

// openButton configures a push button wired to ground on the named pin.
func openButton(name string) (gpio.PinIn, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("button: periph host init: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("button: pin %q not found", name)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("button: pin %s: %w", name, err)
	}
	return pin, nil
}

// watchButton calls press once per falling edge, ignoring edges closer
// than debounce to the previous press, until ctx is done.
func watchButton(ctx context.Context, pin gpio.PinIn, debounce time.Duration, press func()) {
	var last time.Time
	for ctx.Err() == nil {
		if !pin.WaitForEdge(edgePoll) {
			continue
		}
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < debounce {
			continue
		}
		last = now
		press()
	}
}
