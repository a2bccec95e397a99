// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pwm

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
)

// pca9685 counts 4096 ticks per period.
const pcaTicks = 4096

// PCA9685 drives servos from a PCA9685 16-channel board on I2C.
type PCA9685 struct {
	dev    *pca9685.Dev
	freqHz int
}

// NewPCA9685 configures the chip at addr on bus for freqHz (50 for hobby
// servos). The caller owns bus.
func NewPCA9685(bus i2c.Bus, addr uint16, freqHz int) (*PCA9685, error) {
	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("pca9685 at 0x%02X: %w", addr, err)
	}
	if err := dev.SetPwmFreq(physic.Frequency(freqHz) * physic.Hertz); err != nil {
		return nil, fmt.Errorf("pca9685 set frequency %d Hz: %w", freqHz, err)
	}
	log.WithFields(logrus.Fields{"addr": fmt.Sprintf("0x%02X", addr), "freq_hz": freqHz}).Info("pca9685 ready")
	return &PCA9685{dev: dev, freqHz: freqHz}, nil
}

// SetPulse implements Backend.
func (p *PCA9685) SetPulse(channel int, micros float64) error {
	if err := checkPulse(channel, micros); err != nil {
		return err
	}
	if channel < 0 || channel > 15 {
		return fmt.Errorf("pca9685: channel %d out of range 0-15", channel)
	}
	ticks := PulseToTicks(micros, p.freqHz)
	if err := p.dev.SetPwm(channel, 0, gpio.Duty(ticks)); err != nil {
		return fmt.Errorf("pca9685 channel %d: %w", channel, err)
	}
	return nil
}

// Release implements Backend.
func (p *PCA9685) Release(channel int) error {
	if err := p.dev.SetPwm(channel, 0, 0); err != nil {
		return fmt.Errorf("pca9685 release channel %d: %w", channel, err)
	}
	return nil
}

// Close leaves the chip as is; the bus belongs to the caller.
func (p *PCA9685) Close() error { return nil }

// PulseToTicks converts a pulse width to PCA9685 off-counter ticks.
func PulseToTicks(micros float64, freqHz int) int {
	t := int(math.Round(micros * pcaTicks / periodMicros(freqHz)))
	if t > pcaTicks-1 {
		t = pcaTicks - 1
	}
	return t
}
