// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package actuator maps logical joint angles onto servo pulses. Actuation is
// open loop: the driver only knows what it last commanded.
package actuator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/joint"
	"github.com/relabs-tech/gait_stabilizer/internal/pwm"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "actuator"})

// Pulse mapping, in microseconds.
const (
	MinPulse = 500.0
	MaxPulse = 2500.0
)

// DefaultSettle is the wait after a whole MoveAll.
const DefaultSettle = 100 * time.Millisecond

// ErrUnbound is returned for a joint with no channel in the table. It marks
// a programming error: tables are validated at construction.
var ErrUnbound = errors.New("joint has no channel binding")

// Driver commands joints through a pwm.Backend.
type Driver struct {
	backend pwm.Backend
	table   joint.Table
	settle  time.Duration
	sleep   func(time.Duration)

	mu        sync.Mutex
	commanded gait.AngleMap
}

// Option configures a Driver.
type Option func(*Driver)

// WithSettle overrides the post-MoveAll settle delay.
func WithSettle(d time.Duration) Option {
	return func(dr *Driver) { dr.settle = d }
}

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(dr *Driver) { dr.sleep = sleep }
}

// NewDriver validates table and returns a driver.
func NewDriver(backend pwm.Backend, table joint.Table, opts ...Option) (*Driver, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("actuator: %w", err)
	}
	d := &Driver{
		backend:   backend,
		table:     table.Clone(),
		settle:    DefaultSettle,
		sleep:     time.Sleep,
		commanded: make(gait.AngleMap),
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// PhysicalAngle clamps a logical angle and mirrors it for reversed servos.
func PhysicalAngle(logical float64, reversed bool) float64 {
	a := joint.Clamp(logical)
	if reversed {
		a = joint.MaxAngle - a
	}
	return a
}

// AngleToPulse maps [0,180] degrees linearly onto [500,2500] µs.
func AngleToPulse(angle float64) float64 {
	p := MinPulse + (angle/joint.MaxAngle)*(MaxPulse-MinPulse)
	if p < MinPulse {
		return MinPulse
	}
	if p > MaxPulse {
		return MaxPulse
	}
	return p
}

// SetAngle commands one joint. Out-of-range angles are clamped, not rejected.
func (d *Driver) SetAngle(j joint.Joint, angle float64) error {
	b, ok := d.table[j]
	if !ok {
		return fmt.Errorf("actuator: %s: %w", j, ErrUnbound)
	}

	logical := joint.Clamp(angle)
	pulse := AngleToPulse(PhysicalAngle(logical, b.Reversed))
	if err := d.backend.SetPulse(b.Channel, pulse); err != nil {
		return fmt.Errorf("actuator: set %s: %w", j, err)
	}

	d.mu.Lock()
	d.commanded[j] = logical
	d.mu.Unlock()

	log.WithFields(logrus.Fields{"joint": j.String(), "angle": logical, "pulse_us": pulse}).Trace("joint commanded")
	return nil
}

// MoveAll commands every joint in m, one after another in canonical order,
// then waits the settle delay once. Joints do not move in sync.
func (d *Driver) MoveAll(m gait.AngleMap) error {
	for _, j := range m.Joints() {
		if err := d.SetAngle(j, m[j]); err != nil {
			return err
		}
	}
	if d.settle > 0 {
		d.sleep(d.settle)
	}
	return nil
}

// Release turns off the signal to one joint.
func (d *Driver) Release(j joint.Joint) error {
	b, ok := d.table[j]
	if !ok {
		return fmt.Errorf("actuator: %s: %w", j, ErrUnbound)
	}
	if err := d.backend.Release(b.Channel); err != nil {
		return fmt.Errorf("actuator: release %s: %w", j, err)
	}
	d.mu.Lock()
	delete(d.commanded, j)
	d.mu.Unlock()
	return nil
}

// ReleaseAll turns off every joint. It attempts all of them even if some
// fail and returns the joined errors.
func (d *Driver) ReleaseAll() error {
	var errs []error
	for _, j := range joint.All {
		if err := d.Release(j); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		log.Info("all joints released")
	}
	return errors.Join(errs...)
}

// Commanded returns the last logical angle sent to each joint still powered.
func (d *Driver) Commanded() gait.AngleMap {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commanded.Clone()
}
