// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pwm drives servo pulse widths on the supported controllers.
package pwm

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "pwm"})

// MaxPulse is the widest pulse any backend accepts, in microseconds.
// A pulse of 0 switches the signal off.
const MaxPulse = 2500.0

// ErrPulseRange is returned for pulses outside [0, MaxPulse].
var ErrPulseRange = errors.New("pulse width out of range")

// Backend is a servo PWM output.
type Backend interface {
	// SetPulse drives channel with a pulse of micros microseconds.
	SetPulse(channel int, micros float64) error
	// Release stops the signal on channel so the servo goes limp.
	Release(channel int) error
	Close() error
}

func checkPulse(channel int, micros float64) error {
	if micros < 0 || micros > MaxPulse || micros != micros {
		return fmt.Errorf("channel %d: %w: %v µs", channel, ErrPulseRange, micros)
	}
	return nil
}

// periodMicros returns the PWM period for freqHz.
func periodMicros(freqHz int) float64 {
	return 1e6 / float64(freqHz)
}
