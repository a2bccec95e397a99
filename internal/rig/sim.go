// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rig

import (
	"sync"

	"github.com/relabs-tech/gait_stabilizer/internal/executor"
	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

// Sim body model constants.
const (
	simWindow = 5
	simGain   = 2.0
)

// SimBody is a crude body model for the "sim" backend. The body leans by
// the average offset from the standing pose over the last few poses it was
// commanded: mean hip angle drives pitch, the knee difference drives roll.
// Constant biases stand in for a badly trimmed robot.
type SimBody struct {
	driver    executor.Actuator
	pitchBias float64
	rollBias  float64

	mu     sync.Mutex
	recent []gait.AngleMap
}

// NewSimBody wraps d.
func NewSimBody(d executor.Actuator, pitchBias, rollBias float64) *SimBody {
	return &SimBody{driver: d, pitchBias: pitchBias, rollBias: rollBias}
}

// MoveAll forwards to the driver and remembers the resulting pose.
func (b *SimBody) MoveAll(m gait.AngleMap) error {
	if err := b.driver.MoveAll(m); err != nil {
		return err
	}
	pose := b.driver.Commanded()
	b.mu.Lock()
	b.recent = append(b.recent, pose)
	if len(b.recent) > simWindow {
		b.recent = b.recent[len(b.recent)-simWindow:]
	}
	b.mu.Unlock()
	return nil
}

// Commanded forwards to the driver.
func (b *SimBody) Commanded() gait.AngleMap {
	return b.driver.Commanded()
}

// Tilt is a sensors.TiltFunc.
func (b *SimBody) Tilt() (pitch, roll float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stand := gait.StandingPose()
	var p, r float64
	for _, pose := range b.recent {
		full := pose.Merge(stand)
		p += (full[joint.HipLeft]+full[joint.HipRight])/2 - 90
		r += (full[joint.KneeLeft] - stand[joint.KneeLeft]) - (full[joint.KneeRight] - stand[joint.KneeRight])
	}
	if n := float64(len(b.recent)); n > 0 {
		p /= n
		r /= n
	}
	return b.pitchBias + simGain*p, b.rollBias + simGain*r
}
