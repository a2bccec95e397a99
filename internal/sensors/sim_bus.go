// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/relabs-tech/gait_stabilizer/internal/imu"
)

// TiltFunc returns the true body tilt in degrees at the moment of a read.
type TiltFunc func() (pitchDeg, rollDeg float64)

// SimBus is a register-level stand-in for an MPU-6050. It synthesizes the
// gravity vector for the tilt reported by Tilt, adds Gaussian noise of
// NoiseDeg degrees, and serves it from the accelerometer registers.
type SimBus struct {
	Tilt     TiltFunc
	NoiseDeg float64

	mu    sync.Mutex
	rng   *rand.Rand
	awake bool
	regs  [256]byte
}

// NewSimBus returns a simulated sensor. seed makes the noise reproducible.
func NewSimBus(tilt TiltFunc, noiseDeg float64, seed uint64) *SimBus {
	s := &SimBus{
		Tilt:     tilt,
		NoiseDeg: noiseDeg,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	s.regs[imu.RegPwrMgmt1] = 0x40
	s.regs[imu.RegWhoAmI] = WhoAmIMPU6050
	return s
}

// WriteRegister stores value. Clearing SLEEP in PWR_MGMT_1 wakes the chip.
func (s *SimBus) WriteRegister(addr, value byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr == imu.RegWhoAmI {
		return fmt.Errorf("sim MPU6050: WHO_AM_I is read-only")
	}
	s.regs[addr] = value
	if addr == imu.RegPwrMgmt1 {
		s.awake = value&0x40 == 0
	}
	return nil
}

// ReadRegisterPair serves accelerometer registers from the tilt, gyro
// registers as zero and anything else from the register file.
func (s *SimBus) ReadRegisterPair(addr byte) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.awake {
		return 0, fmt.Errorf("sim MPU6050: read 0x%02X while asleep", addr)
	}

	switch addr {
	case imu.RegAccelXOutH, imu.RegAccelYOutH, imu.RegAccelZOutH:
	case imu.RegGyroXOutH, imu.RegGyroYOutH, imu.RegGyroZOutH:
		return 0, nil
	default:
		return uint16(s.regs[addr])<<8 | uint16(s.regs[addr+1]), nil
	}

	var pitch, roll float64
	if s.Tilt != nil {
		pitch, roll = s.Tilt()
	}
	pitch += s.rng.NormFloat64() * s.NoiseDeg
	roll += s.rng.NormFloat64() * s.NoiseDeg

	gx, gy, gz := GravityVector(pitch, roll)
	var g float64
	switch addr {
	case imu.RegAccelXOutH:
		g = gx
	case imu.RegAccelYOutH:
		g = gy
	default:
		g = gz
	}
	return imu.FromSigned(countsFromG(g)), nil
}

// GravityVector returns the accelerometer reading in g for a body tilted by
// pitch and roll degrees, consistent with pitch = atan2(ax, √(ay²+az²)) and
// roll = atan2(ay, az).
func GravityVector(pitchDeg, rollDeg float64) (ax, ay, az float64) {
	p := pitchDeg * math.Pi / 180
	r := rollDeg * math.Pi / 180
	return math.Sin(p), math.Cos(p) * math.Sin(r), math.Cos(p) * math.Cos(r)
}

func countsFromG(g float64) int16 {
	c := math.Round(g * imu.AccelSensitivity2G)
	if c > math.MaxInt16 {
		c = math.MaxInt16
	}
	if c < math.MinInt16 {
		c = math.MinInt16
	}
	return int16(c)
}
