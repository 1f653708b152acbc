// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"context"
	"time"
)

// Executor runs effects. Execute is called from the loop goroutine and
// must not block for long; slow work (geocoding, location) should run in
// its own goroutine and report back with Loop.Post.
type Executor interface {
	Execute(Effect)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(Effect)

func (f ExecutorFunc) Execute(e Effect) { f(e) }

// Loop owns a Screen and feeds it events from a single goroutine, so no
// screen state is ever touched concurrently.
type Loop struct {
	screen *Screen
	exec   Executor
	events chan Event
	now    func() time.Time
}

// NewLoop creates a loop with a buffered event queue.
func NewLoop(screen *Screen, exec Executor, buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		screen: screen,
		exec:   exec,
		events: make(chan Event, buffer),
		now:    time.Now,
	}
}

// Post queues an event, waiting until there is room or ctx is done.
func (l *Loop) Post(ctx context.Context, ev Event) error {
	select {
	case l.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPost queues an event without waiting and reports whether it was
// accepted. Sensor callbacks use it so a stalled loop drops samples
// instead of blocking the MQTT client.
func (l *Loop) TryPost(ev Event) bool {
	select {
	case l.events <- ev:
		return true
	default:
		return false
	}
}

// Run processes events until ctx is cancelled. On the way out it runs the
// screen's Close effects, so a running search always releases its tone.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		for _, e := range l.screen.Close() {
			l.exec.Execute(e)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-l.events:
			for _, e := range l.screen.Handle(ev, l.now()) {
				l.exec.Execute(e)
			}
		}
	}
}
