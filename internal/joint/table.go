// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package joint

import (
	"fmt"
	"math"
)

// Binding is the physical wiring of one joint.
type Binding struct {
	Channel  int  `json:"channel" yaml:"channel"`
	Reversed bool `json:"reversed" yaml:"reversed"`
}

// Table binds every joint to a channel.
type Table map[Joint]Binding

// DefaultTable returns the bench wiring: BCM GPIO pins, only the right toe
// servo is mounted mirrored.
func DefaultTable() Table {
	return Table{
		HipLeft:   {Channel: 23},
		KneeLeft:  {Channel: 22},
		HipRight:  {Channel: 27},
		KneeRight: {Channel: 17},
		LeftToe:   {Channel: 16},
		RightToe:  {Channel: 26, Reversed: true},
	}
}

// Clone returns an independent copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for j, b := range t {
		out[j] = b
	}
	return out
}

// Validate checks that every joint is bound, no unknown joint is present and
// no two joints share a channel.
func (t Table) Validate() error {
	seen := make(map[int]Joint, len(t))
	for j, b := range t {
		if !j.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownJoint, int(j))
		}
		if other, dup := seen[b.Channel]; dup {
			return fmt.Errorf("channel %d bound to both %s and %s", b.Channel, other, j)
		}
		seen[b.Channel] = j
	}
	for _, j := range All {
		if _, ok := t[j]; !ok {
			return fmt.Errorf("%s has no channel binding", j)
		}
	}
	return nil
}

// Channels returns the bound channels in canonical joint order.
func (t Table) Channels() []int {
	out := make([]int, 0, len(t))
	for _, j := range All {
		if b, ok := t[j]; ok {
			out = append(out, b.Channel)
		}
	}
	return out
}

// Servo travel limits in degrees.
const (
	MinAngle = 0.0
	MaxAngle = 180.0
)

// Clamp limits a commanded angle to the servo travel. NaN maps to MinAngle.
func Clamp(angle float64) float64 {
	if angle < MinAngle || math.IsNaN(angle) {
		return MinAngle
	}
	if angle > MaxAngle {
		return MaxAngle
	}
	return angle
}
