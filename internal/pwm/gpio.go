// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pwm

import (
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// GPIO drives servos straight from SoC pins, channel = BCM pin number.
// periph.io/x/host must be initialized first.
type GPIO struct {
	freqHz int
	pins   map[int]gpio.PinIO
}

// NewGPIO resolves every channel to a pin up front so a wiring mistake fails
// at startup rather than mid-gait.
func NewGPIO(channels []int, freqHz int) (*GPIO, error) {
	g := &GPIO{freqHz: freqHz, pins: make(map[int]gpio.PinIO, len(channels))}
	for _, ch := range channels {
		name := strconv.Itoa(ch)
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("gpio pin %q not found", name)
		}
		g.pins[ch] = pin
	}
	return g, nil
}

// SetPulse implements Backend.
func (g *GPIO) SetPulse(channel int, micros float64) error {
	if err := checkPulse(channel, micros); err != nil {
		return err
	}
	pin, ok := g.pins[channel]
	if !ok {
		return fmt.Errorf("gpio: channel %d not configured", channel)
	}
	if err := pin.PWM(PulseToDuty(micros, g.freqHz), physic.Frequency(g.freqHz)*physic.Hertz); err != nil {
		return fmt.Errorf("gpio pin %s pwm: %w", pin, err)
	}
	return nil
}

// Release implements Backend.
func (g *GPIO) Release(channel int) error {
	pin, ok := g.pins[channel]
	if !ok {
		return fmt.Errorf("gpio: channel %d not configured", channel)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("gpio pin %s release: %w", pin, err)
	}
	return nil
}

// Close halts every pin.
func (g *GPIO) Close() error {
	var first error
	for _, pin := range g.pins {
		if err := pin.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// PulseToDuty converts a pulse width to a periph duty cycle.
func PulseToDuty(micros float64, freqHz int) gpio.Duty {
	return gpio.Duty(float64(gpio.DutyMax) * micros / periodMicros(freqHz))
}
