package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestWatchButton_Debounces(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO17", EdgesChan: make(chan gpio.Level, 8)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var presses atomic.Int32
	done := make(chan struct{})
	go func() {
		watchButton(ctx, pin, 100*time.Millisecond, func() { presses.Add(1) })
		close(done)
	}()

	// A bouncing contact: three edges in quick succession count once.
	pin.EdgesChan <- gpio.Low
	pin.EdgesChan <- gpio.Low
	pin.EdgesChan <- gpio.Low
	eventually(t, "first press", func() bool { return presses.Load() == 1 })

	time.Sleep(150 * time.Millisecond)
	pin.EdgesChan <- gpio.Low
	eventually(t, "second press", func() bool { return presses.Load() == 2 })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("watchButton did not return after cancel")
	}
	if got := presses.Load(); got != 2 {
		t.Fatalf("presses=%d want 2", got)
	}
}
