// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"fmt"
	"math"
	"strings"

	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

// AngleMap is a set of commanded joint angles in degrees. It only holds the
// joints an operation touches, not necessarily all six.
type AngleMap map[joint.Joint]float64

// Clone returns an independent copy.
func (m AngleMap) Clone() AngleMap {
	if m == nil {
		return nil
	}
	out := make(AngleMap, len(m))
	for j, a := range m {
		out[j] = a
	}
	return out
}

// Joints returns the joints present in m in canonical order.
func (m AngleMap) Joints() []joint.Joint {
	out := make([]joint.Joint, 0, len(m))
	for _, j := range joint.All {
		if _, ok := m[j]; ok {
			out = append(out, j)
		}
	}
	return out
}

// Clamped returns a copy with every angle limited to the servo travel.
func (m AngleMap) Clamped() AngleMap {
	out := make(AngleMap, len(m))
	for j, a := range m {
		out[j] = joint.Clamp(a)
	}
	return out
}

// Equal reports whether both maps hold the same joints with the same angles.
func (m AngleMap) Equal(other AngleMap) bool {
	if len(m) != len(other) {
		return false
	}
	for j, a := range m {
		b, ok := other[j]
		if !ok || a != b {
			return false
		}
	}
	return true
}

// Merge returns base overlaid with m. Joints absent from m keep base's angle.
func (m AngleMap) Merge(base AngleMap) AngleMap {
	out := base.Clone()
	if out == nil {
		out = make(AngleMap, len(m))
	}
	for j, a := range m {
		out[j] = a
	}
	return out
}

// Lerp blends from m toward to by t in [0,1]. Only joints present in both
// maps are blended; joints only in to are taken as-is.
func (m AngleMap) Lerp(to AngleMap, t float64) AngleMap {
	out := make(AngleMap, len(to))
	for j, b := range to {
		a, ok := m[j]
		if !ok {
			out[j] = b
			continue
		}
		out[j] = a + (b-a)*t
	}
	return out
}

// validate rejects unknown joints and non-finite angles.
func (m AngleMap) validate() error {
	for j, a := range m {
		if !j.Valid() {
			return fmt.Errorf("%w: %d", joint.ErrUnknownJoint, int(j))
		}
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf("%s: angle %v is not finite", j, a)
		}
	}
	return nil
}

func (m AngleMap) String() string {
	parts := make([]string, 0, len(m))
	for _, j := range m.Joints() {
		parts = append(parts, fmt.Sprintf("%s=%.1f", j, m[j]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
