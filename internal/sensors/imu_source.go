// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/gait_stabilizer/internal/imu"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "sensors"})

// I2CBus is an imu.RegisterBus on a periph I2C device.
type I2CBus struct {
	dev *i2c.Dev
}

// NewI2CBus binds addr on an already opened bus. The caller owns bus.
func NewI2CBus(bus i2c.Bus, addr uint16) *I2CBus {
	return &I2CBus{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// ReadRegisterPair reads addr (high byte) and addr+1 (low byte).
func (b *I2CBus) ReadRegisterPair(addr byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := b.dev.Tx([]byte{addr}, buf); err != nil {
		return 0, fmt.Errorf("i2c read 0x%02X: %w", addr, err)
	}
	return binary.BigEndian.Uint16(buf), nil
}

// WriteRegister writes a single register.
func (b *I2CBus) WriteRegister(addr, value byte) error {
	if _, err := b.dev.Write([]byte{addr, value}); err != nil {
		return fmt.Errorf("i2c write 0x%02X: %w", addr, err)
	}
	return nil
}

// MPU6050 reads accelerometer and gyroscope registers over a RegisterBus.
// No filtering or fusion is done here; values are raw counts.
type MPU6050 struct {
	bus imu.RegisterBus
}

// NewMPU6050 wraps bus. Call Wake before reading.
func NewMPU6050(bus imu.RegisterBus) *MPU6050 {
	return &MPU6050{bus: bus}
}

// Wake clears the sleep bit in PWR_MGMT_1. The chip powers up asleep.
func (m *MPU6050) Wake() error {
	if err := m.bus.WriteRegister(imu.RegPwrMgmt1, 0); err != nil {
		return fmt.Errorf("MPU6050 wake: %w", err)
	}
	log.Debug("MPU6050 awake")
	return nil
}

// ReadAccel returns the three accelerometer axes in counts.
func (m *MPU6050) ReadAccel() (ax, ay, az int16, err error) {
	if ax, err = m.readAxis(imu.RegAccelXOutH, "accel X"); err != nil {
		return 0, 0, 0, err
	}
	if ay, err = m.readAxis(imu.RegAccelYOutH, "accel Y"); err != nil {
		return 0, 0, 0, err
	}
	if az, err = m.readAxis(imu.RegAccelZOutH, "accel Z"); err != nil {
		return 0, 0, 0, err
	}
	return ax, ay, az, nil
}

// ReadRaw reads accelerometer and gyroscope.
func (m *MPU6050) ReadRaw() (imu.Raw, error) {
	ax, ay, az, err := m.ReadAccel()
	if err != nil {
		return imu.Raw{}, err
	}
	gx, err := m.readAxis(imu.RegGyroXOutH, "gyro X")
	if err != nil {
		return imu.Raw{}, err
	}
	gy, err := m.readAxis(imu.RegGyroYOutH, "gyro Y")
	if err != nil {
		return imu.Raw{}, err
	}
	gz, err := m.readAxis(imu.RegGyroZOutH, "gyro Z")
	if err != nil {
		return imu.Raw{}, err
	}

	return imu.Raw{Ax: ax, Ay: ay, Az: az, Gx: gx, Gy: gy, Gz: gz}, nil
}

func (m *MPU6050) readAxis(reg byte, name string) (int16, error) {
	v, err := m.bus.ReadRegisterPair(reg)
	if err != nil {
		return 0, fmt.Errorf("MPU6050 %s: %w", name, err)
	}
	return imu.ToSigned(v), nil
}
