// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// MPU-6050 register addresses used by this project.
const (
	RegAccelXOutH = 0x3B
	RegAccelYOutH = 0x3D
	RegAccelZOutH = 0x3F
	RegGyroXOutH  = 0x43
	RegGyroYOutH  = 0x45
	RegGyroZOutH  = 0x47
	RegPwrMgmt1   = 0x6B
	RegWhoAmI     = 0x75

	DefaultAddr = 0x68

	// AccelSensitivity2G is the ±2g full-scale sensitivity in LSB/g.
	AccelSensitivity2G = 16384.0
	// GyroSensitivity250 is the ±250°/s full-scale sensitivity in LSB/(°/s).
	GyroSensitivity250 = 131.0
)

// Raw represents a single raw accelerometer + gyroscope sample in counts.
type Raw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// RegisterBus is the register-level access the sensor needs.
// ReadRegisterPair returns the big-endian 16-bit value at addr, addr+1.
type RegisterBus interface {
	ReadRegisterPair(addr byte) (uint16, error)
	WriteRegister(addr, value byte) error
}

// ToSigned reinterprets a register pair as two's complement.
func ToSigned(v uint16) int16 {
	return int16(v)
}

// FromSigned is the inverse of ToSigned.
func FromSigned(v int16) uint16 {
	return uint16(v)
}
