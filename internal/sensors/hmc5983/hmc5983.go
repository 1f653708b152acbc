// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hmc5983 drives the Honeywell HMC5983 three-axis magnetometer
// over I2C.
package hmc5983

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

const (
	regCRA    = 0x00
	regCRB    = 0x01
	regMode   = 0x02
	regData   = 0x03 // X MSB, X LSB, Z MSB, Z LSB, Y MSB, Y LSB
	regStatus = 0x09
	regIDA    = 0x0A
)

// DefaultAddr is the fixed I2C address of the part.
const DefaultAddr = 0x1E

// Status register bits.
const (
	StatusReady = 0x01
	StatusLock  = 0x02
)

// ErrOverflow is returned when an axis saturates (reads -4096).
var ErrOverflow = errors.New("hmc5983: measurement overflow")

// LSB per gauss for each gain code, XY and Z axes.
var (
	gainXY = [8]float64{1370, 1090, 820, 660, 440, 390, 330, 230}
	gainZ  = [8]float64{1330, 980, 660, 600, 400, 355, 295, 205}
)

// Opts holds initialization options.
type Opts struct {
	Addr       uint16
	ODRHz      int    // 3, 7, 15, 30, 75 or 220
	AvgSamples int    // 1, 2, 4 or 8
	GainCode   int    // 0-7, CRB bits 7..5
	Mode       string // "continuous" or "single"
	TempComp   bool
}

// DefaultOpts is 75 Hz, 8 sample averaging, ±1.3 Ga, continuous.
var DefaultOpts = Opts{
	Addr:       DefaultAddr,
	ODRHz:      75,
	AvgSamples: 8,
	GainCode:   1,
	Mode:       "continuous",
}

// Dev is an HMC5983 on an I2C bus.
type Dev struct {
	dev    i2c.Dev
	gain   int
	single bool
}

// New configures the device and returns it ready to sample.
func New(bus i2c.Bus, opts Opts) (*Dev, error) {
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	gc := opts.GainCode
	if gc < 0 || gc > 7 {
		gc = 1
	}
	d := &Dev{
		dev:    i2c.Dev{Addr: addr, Bus: bus},
		gain:   gc,
		single: opts.Mode == "single",
	}

	if err := d.writeReg(regCRA, craValue(opts)); err != nil {
		return nil, fmt.Errorf("hmc5983: write CRA: %w", err)
	}
	if err := d.writeReg(regCRB, byte(gc)<<5); err != nil {
		return nil, fmt.Errorf("hmc5983: write CRB: %w", err)
	}
	mode := byte(0x00)
	if d.single {
		mode = 0x01
	}
	if err := d.writeReg(regMode, mode); err != nil {
		return nil, fmt.Errorf("hmc5983: write MODE: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	return d, nil
}

func craValue(opts Opts) byte {
	var cra byte
	if opts.TempComp {
		cra |= 1 << 7
	}
	switch opts.AvgSamples {
	case 8:
		cra |= 0b11 << 5
	case 4:
		cra |= 0b10 << 5
	case 2:
		cra |= 0b01 << 5
	}
	switch opts.ODRHz {
	case 220:
		cra |= 0b111 << 2
	case 75:
		cra |= 0b110 << 2
	case 30:
		cra |= 0b101 << 2
	case 7:
		cra |= 0b011 << 2
	case 3:
		cra |= 0b010 << 2
	default: // 15 Hz
		cra |= 0b100 << 2
	}
	return cra
}

// ID returns the identification bytes, "H43" on a genuine part.
func (d *Dev) ID() (string, error) {
	buf := make([]byte, 3)
	if err := d.readRegs(regIDA, buf); err != nil {
		return "", fmt.Errorf("hmc5983: read ID: %w", err)
	}
	return string(buf), nil
}

// SenseRaw returns raw X, Y, Z counts.
func (d *Dev) SenseRaw() (x, y, z int16, err error) {
	if d.single {
		if err := d.writeReg(regMode, 0x01); err != nil {
			return 0, 0, 0, fmt.Errorf("hmc5983: trigger: %w", err)
		}
		time.Sleep(7 * time.Millisecond)
	}
	data := make([]byte, 6)
	if err := d.readRegs(regData, data); err != nil {
		return 0, 0, 0, fmt.Errorf("hmc5983: read data: %w", err)
	}
	x = int16(data[0])<<8 | int16(data[1])
	z = int16(data[2])<<8 | int16(data[3])
	y = int16(data[4])<<8 | int16(data[5])
	return x, y, z, nil
}

// Sense returns the field in microtesla.
func (d *Dev) Sense() (x, y, z float64, err error) {
	rx, ry, rz, err := d.SenseRaw()
	if err != nil {
		return 0, 0, 0, err
	}
	if rx == -4096 || ry == -4096 || rz == -4096 {
		return 0, 0, 0, ErrOverflow
	}
	// 1 gauss = 100 µT
	x = float64(rx) / gainXY[d.gain] * 100
	y = float64(ry) / gainXY[d.gain] * 100
	z = float64(rz) / gainZ[d.gain] * 100
	return x, y, z, nil
}

// Status reads the status register.
func (d *Dev) Status() (byte, error) {
	b := make([]byte, 1)
	if err := d.readRegs(regStatus, b); err != nil {
		return 0, fmt.Errorf("hmc5983: read status: %w", err)
	}
	return b[0], nil
}

func (d *Dev) writeReg(addr, val byte) error {
	return d.dev.Tx([]byte{addr, val}, nil)
}

func (d *Dev) readRegs(addr byte, out []byte) error {
	return d.dev.Tx([]byte{addr}, out)
}
