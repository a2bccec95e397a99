// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"
)

// Sample is one tilt reading in degrees.
type Sample struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Source is anything that can provide tilt samples: the accelerometer
// estimator on hardware, or a scripted source in tests.
type Source interface {
	ReadOrientation() (Sample, error)
}

// RollFormula selects how roll is derived from the gravity vector.
type RollFormula string

const (
	// RollYZ is roll = atan2(ay, az), the formula the stabilizer loop uses.
	RollYZ RollFormula = "yz"
	// RollXZ is roll = atan2(ay, √(ax²+az²)), symmetric with pitch.
	RollXZ RollFormula = "xz"
)

// ParseRollFormula validates a config value.
func ParseRollFormula(s string) (RollFormula, error) {
	switch RollFormula(s) {
	case RollYZ, "":
		return RollYZ, nil
	case RollXZ:
		return RollXZ, nil
	}
	return "", fmt.Errorf("unknown roll formula %q", s)
}

// ComputeFromAccel computes pitch and roll from accelerometer data only, in
// any consistent unit:
//
//	pitch = atan2(ax, sqrt(ay² + az²))
//	roll  = atan2(ay, az)               (RollYZ)
//	roll  = atan2(ay, sqrt(ax² + az²))  (RollXZ)
func ComputeFromAccel(ax, ay, az float64, formula RollFormula) Sample {
	pitchRad := math.Atan2(ax, math.Sqrt(ay*ay+az*az))

	var rollRad float64
	if formula == RollXZ {
		rollRad = math.Atan2(ay, math.Sqrt(ax*ax+az*az))
	} else {
		rollRad = math.Atan2(ay, az)
	}

	return Sample{
		Pitch: pitchRad * 180.0 / math.Pi,
		Roll:  rollRad * 180.0 / math.Pi,
	}
}
