// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/gait_stabilizer/internal/imu"
)

// ErrNoGravity means all three accelerometer axes read zero, which a
// working sensor never reports at rest or in motion on the ground.
var ErrNoGravity = errors.New("accelerometer reads a zero vector")

// SensorReadError reports a failed or malformed sensor read. Callers test
// for it with errors.As.
type SensorReadError struct {
	Op  string
	Err error
}

func (e *SensorReadError) Error() string {
	return fmt.Sprintf("sensor read (%s): %v", e.Op, e.Err)
}

func (e *SensorReadError) Unwrap() error { return e.Err }

// IsSensorReadError reports whether err carries a SensorReadError.
func IsSensorReadError(err error) bool {
	var sre *SensorReadError
	return errors.As(err, &sre)
}

// AccelReader yields raw accelerometer counts.
type AccelReader interface {
	ReadAccel() (ax, ay, az int16, err error)
}

// Estimator turns accelerometer counts into pitch/roll. It does no
// filtering and no retries.
type Estimator struct {
	accel       AccelReader
	sensitivity float64
	formula     RollFormula
}

// NewEstimator builds an estimator. sensitivity is LSB per g; zero selects
// the ±2g default.
func NewEstimator(accel AccelReader, sensitivity float64, formula RollFormula) *Estimator {
	if sensitivity <= 0 {
		sensitivity = imu.AccelSensitivity2G
	}
	if formula == "" {
		formula = RollYZ
	}
	return &Estimator{accel: accel, sensitivity: sensitivity, formula: formula}
}

// ReadOrientation performs one bus read and returns the tilt.
func (e *Estimator) ReadOrientation() (Sample, error) {
	ax, ay, az, err := e.accel.ReadAccel()
	if err != nil {
		return Sample{}, &SensorReadError{Op: "accel", Err: err}
	}
	if ax == 0 && ay == 0 && az == 0 {
		return Sample{}, &SensorReadError{Op: "accel", Err: ErrNoGravity}
	}

	return ComputeFromAccel(
		float64(ax)/e.sensitivity,
		float64(ay)/e.sensitivity,
		float64(az)/e.sensitivity,
		e.formula,
	), nil
}
