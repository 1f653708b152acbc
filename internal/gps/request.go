// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// ErrNoFix is returned when a request ends without delivering any fix.
var ErrNoFix = errors.New("gps: no fix before request ended")

// RequestOptions bounds a location request.
type RequestOptions struct {
	MaxUpdates int           // stop after this many fixes; <=0 means 1
	Timeout    time.Duration // stop after this long; <=0 means no limit
}

// Collect forwards fixes from a stream to fn until MaxUpdates fixes were
// delivered, the timeout elapses, the stream closes or ctx is cancelled.
// It returns nil when at least one fix was delivered and ErrNoFix (or the
// context error on cancellation) otherwise.
func Collect(ctx context.Context, fixes <-chan Fix, opts RequestOptions, fn func(Fix)) error {
	maxUpdates := opts.MaxUpdates
	if maxUpdates <= 0 {
		maxUpdates = 1
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	delivered := 0
	for {
		select {
		case <-ctx.Done():
			if delivered > 0 {
				return nil
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrNoFix
			}
			return ctx.Err()
		case f, ok := <-fixes:
			if !ok {
				if delivered > 0 {
					return nil
				}
				return ErrNoFix
			}
			fn(f)
			delivered++
			if delivered >= maxUpdates {
				return nil
			}
		}
	}
}

// ReadFixes reads NMEA lines from r and passes every accepted fix to fn
// until r fails. The end of the stream is not an error.
func ReadFixes(r io.Reader, fn func(Fix)) error {
	tracker := NewTracker()
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if fix, ok := tracker.Update(line); ok {
			fn(fix)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// OpenSerial opens the GPS receiver's serial port.
func OpenSerial(port string, baud int) (io.ReadWriteCloser, error) {
	serialOpts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	return serial.Open(serialOpts)
}
