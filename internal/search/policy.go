// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package search

import (
	"fmt"
	"math"
	"strings"

	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/joint"
	"github.com/relabs-tech/gait_stabilizer/internal/orientation"
)

// Axis selects which correction a term uses.
type Axis int

const (
	Pitch Axis = iota
	Roll
)

func (a Axis) String() string {
	if a == Roll {
		return "roll"
	}
	return "pitch"
}

// Term adds Sign times the axis correction to one joint.
type Term struct {
	Joint joint.Joint
	Axis  Axis
	Sign  float64
}

// Policy maps a phase role to the joints it corrects. Roles not in the table
// are never touched.
type Policy map[gait.Role][]Term

// DefaultPolicy is the hand-tuned heuristic of the bench robot: fore/aft
// phases move both hips with pitch; side phases move one knee and toe pair
// with roll, mirrored for the right side.
func DefaultPolicy() Policy {
	hips := []Term{
		{Joint: joint.HipLeft, Axis: Pitch, Sign: 1},
		{Joint: joint.HipRight, Axis: Pitch, Sign: 1},
	}
	return Policy{
		gait.RoleForwardShift:  hips,
		gait.RoleBackwardShift: append([]Term(nil), hips...),
		gait.RoleLeftShift: {
			{Joint: joint.KneeLeft, Axis: Roll, Sign: 1},
			{Joint: joint.LeftToe, Axis: Roll, Sign: -1},
		},
		gait.RoleRightShift: {
			{Joint: joint.KneeRight, Axis: Roll, Sign: -1},
			{Joint: joint.RightToe, Axis: Roll, Sign: 1},
		},
	}
}

// Validate rejects unknown roles, unknown joints and zero signs.
func (p Policy) Validate() error {
	for role, terms := range p {
		if role == gait.RoleNone || !role.Valid() {
			return fmt.Errorf("policy: invalid role %q", role)
		}
		for _, t := range terms {
			if !t.Joint.Valid() {
				return fmt.Errorf("policy %s: %w", role, joint.ErrUnknownJoint)
			}
			if t.Sign == 0 || math.IsNaN(t.Sign) {
				return fmt.Errorf("policy %s/%s: zero sign", role, t.Joint)
			}
		}
	}
	return nil
}

func (p Policy) String() string {
	var b strings.Builder
	for _, role := range []gait.Role{gait.RoleForwardShift, gait.RoleBackwardShift, gait.RoleLeftShift, gait.RoleRightShift} {
		terms, ok := p[role]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s:", role)
		for _, t := range terms {
			fmt.Fprintf(&b, " %s%+g*%s", t.Joint, t.Sign, t.Axis)
		}
		b.WriteString("; ")
	}
	return strings.TrimSuffix(b.String(), "; ")
}

// Correction is the whole-degree adjustment derived from one sample.
type Correction struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Corrections opposes the observed tilt, scaled down by divisor and rounded
// to whole degrees. A pitch of 20 with divisor 10 yields -2.
func Corrections(s orientation.Sample, divisor float64) Correction {
	return Correction{
		Pitch: math.Round(-s.Pitch / divisor),
		Roll:  math.Round(-s.Roll / divisor),
	}
}

// Apply returns a corrected copy of p. The input is never modified. Only
// joints a phase already commands are adjusted, and every phase is clamped
// to the servo travel.
func (p Policy) Apply(pat gait.Pattern, c Correction) gait.Pattern {
	out := pat.Clone()
	for i, ph := range out.Phases {
		for _, t := range p[ph.Role] {
			if _, ok := ph.Angles[t.Joint]; !ok {
				continue
			}
			delta := c.Pitch
			if t.Axis == Roll {
				delta = c.Roll
			}
			ph.Angles[t.Joint] += t.Sign * delta
		}
		out.Phases[i].Angles = ph.Angles.Clamped()
	}
	return out
}

// Accept reports whether candidate beats best by more than threshold.
func Accept(candidate, best, threshold float64) bool {
	return candidate < best-threshold
}
