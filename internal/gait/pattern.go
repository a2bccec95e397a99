// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gait holds the joint-angle pattern model: phases, baseline pose and
// the seed patterns the search starts from.
package gait

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

// Role tags what a phase does to the body, so feedback corrections know
// which joints to touch.
type Role string

const (
	RoleNone          Role = ""
	RoleForwardShift  Role = "forward-shift"
	RoleBackwardShift Role = "backward-shift"
	RoleLeftShift     Role = "left-shift"
	RoleRightShift    Role = "right-shift"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleForwardShift, RoleBackwardShift, RoleLeftShift, RoleRightShift:
		return true
	}
	return false
}

// Phase is one instantaneous target of a pattern.
type Phase struct {
	Role   Role
	Angles AngleMap
}

// Clone returns a phase that shares nothing with p.
func (p Phase) Clone() Phase {
	return Phase{Role: p.Role, Angles: p.Angles.Clone()}
}

// Pattern is an ordered list of phases plus the baseline pose the robot
// returns to when the pattern finishes.
type Pattern struct {
	Name     string
	Phases   []Phase
	Baseline AngleMap
}

// ErrEmptyPattern is returned by Validate for a pattern without phases.
var ErrEmptyPattern = errors.New("pattern has no phases")

// Clone deep-copies the pattern. Mutating the clone never affects p.
func (p Pattern) Clone() Pattern {
	out := Pattern{
		Name:     p.Name,
		Baseline: p.Baseline.Clone(),
		Phases:   make([]Phase, len(p.Phases)),
	}
	for i, ph := range p.Phases {
		out.Phases[i] = ph.Clone()
	}
	return out
}

// Validate checks roles, joints and angle values.
func (p Pattern) Validate() error {
	if len(p.Phases) == 0 {
		return ErrEmptyPattern
	}
	if len(p.Baseline) == 0 {
		return fmt.Errorf("pattern %q: empty baseline", p.Name)
	}
	if err := p.Baseline.validate(); err != nil {
		return fmt.Errorf("pattern %q baseline: %w", p.Name, err)
	}
	for i, ph := range p.Phases {
		if !ph.Role.Valid() {
			return fmt.Errorf("pattern %q phase %d: unknown role %q", p.Name, i, ph.Role)
		}
		if len(ph.Angles) == 0 {
			return fmt.Errorf("pattern %q phase %d: no angles", p.Name, i)
		}
		if err := ph.Angles.validate(); err != nil {
			return fmt.Errorf("pattern %q phase %d: %w", p.Name, i, err)
		}
	}
	return nil
}

// Equal reports whether two patterns command the same poses.
func (p Pattern) Equal(other Pattern) bool {
	if len(p.Phases) != len(other.Phases) || !p.Baseline.Equal(other.Baseline) {
		return false
	}
	for i := range p.Phases {
		if p.Phases[i].Role != other.Phases[i].Role || !p.Phases[i].Angles.Equal(other.Phases[i].Angles) {
			return false
		}
	}
	return true
}

// StandingPose is the natural standing position of the bench robot.
func StandingPose() AngleMap {
	return AngleMap{
		joint.HipLeft:   90,
		joint.KneeLeft:  120,
		joint.HipRight:  90,
		joint.KneeRight: 60,
		joint.LeftToe:   110,
		joint.RightToe:  110,
	}
}

// WeightShift is the default seed: four small shifts around base (forward,
// backward, left, right) of shiftDeg degrees each.
func WeightShift(base AngleMap, shiftDeg float64) Pattern {
	phase := func(role Role, deltas AngleMap) Phase {
		a := base.Clone()
		for j, d := range deltas {
			a[j] += d
		}
		return Phase{Role: role, Angles: a}
	}

	return Pattern{
		Name:     "weight-shift",
		Baseline: base.Clone(),
		Phases: []Phase{
			phase(RoleForwardShift, AngleMap{joint.HipLeft: -shiftDeg, joint.HipRight: -shiftDeg}),
			phase(RoleBackwardShift, AngleMap{joint.HipLeft: shiftDeg, joint.HipRight: shiftDeg}),
			phase(RoleLeftShift, AngleMap{joint.KneeLeft: shiftDeg, joint.RightToe: -shiftDeg}),
			phase(RoleRightShift, AngleMap{joint.KneeLeft: -shiftDeg, joint.LeftToe: shiftDeg}),
		},
	}
}

// LargeStride is the extended walking cycle; its phases carry no role so the
// search leaves them untouched unless a pattern file tags them.
func LargeStride(base AngleMap) Pattern {
	return Pattern{
		Name:     "large-stride",
		Baseline: base.Clone(),
		Phases: []Phase{
			{Angles: AngleMap{joint.HipLeft: 50, joint.KneeLeft: 160, joint.HipRight: 50, joint.KneeRight: 50, joint.LeftToe: 70, joint.RightToe: 95}},
			{Angles: AngleMap{joint.HipLeft: 50, joint.KneeLeft: 140, joint.HipRight: 50, joint.KneeRight: 50, joint.LeftToe: 80, joint.RightToe: 95}},
			{Angles: AngleMap{joint.HipLeft: 90, joint.KneeLeft: 120, joint.HipRight: 50, joint.KneeRight: 50, joint.LeftToe: 110, joint.RightToe: 95}},
			{Angles: AngleMap{joint.HipLeft: 70, joint.KneeLeft: 140, joint.HipRight: 50, joint.KneeRight: 50, joint.LeftToe: 90, joint.RightToe: 95}},
			{Angles: AngleMap{joint.HipLeft: 90, joint.KneeLeft: 120, joint.HipRight: 50, joint.KneeRight: 50, joint.LeftToe: 110, joint.RightToe: 95}},
		},
	}
}

// Builtin returns a seed pattern by name around base.
func Builtin(name string, base AngleMap) (Pattern, error) {
	switch name {
	case "", "weight-shift":
		return WeightShift(base, 5), nil
	case "large-stride":
		return LargeStride(base), nil
	}
	return Pattern{}, fmt.Errorf("unknown builtin pattern %q", name)
}
