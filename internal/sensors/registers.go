// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/gait_stabilizer/internal/imu"
)

// WhoAmIMPU6050 is the WHO_AM_I value of a genuine MPU-6050, independent of
// the AD0 strap.
const WhoAmIMPU6050 = 0x68

// BitField describes a group of bits inside a register.
type BitField struct {
	Bits        string `json:"bits"` // "7" or "4:3"
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RegisterInfo is one entry of the register map.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R" or "RW"
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// MPU6050Registers lists the configuration registers worth checking when a
// sensor misbehaves. Data registers are read by ReadAccel and ReadRaw.
var MPU6050Registers = []RegisterInfo{
	{Address: 0x19, Name: "SMPLRT_DIV", Description: "Sample rate divider", Access: "RW",
		BitFields: []BitField{
			{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample rate = gyro rate / (1 + SMPLRT_DIV)"},
		}},
	{Address: 0x1A, Name: "CONFIG", Description: "Configuration (DLPF)", Access: "RW",
		BitFields: []BitField{
			{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "FSYNC pin sampling"},
			{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital low pass filter"},
		}},
	{Address: 0x1B, Name: "GYRO_CONFIG", Description: "Gyroscope configuration", Access: "RW",
		BitFields: []BitField{
			{Bits: "4:3", Name: "FS_SEL", Description: "0=±250°/s 1=±500°/s 2=±1000°/s 3=±2000°/s"},
		}},
	{Address: 0x1C, Name: "ACCEL_CONFIG", Description: "Accelerometer configuration", Access: "RW",
		BitFields: []BitField{
			{Bits: "4:3", Name: "AFS_SEL", Description: "0=±2g 1=±4g 2=±8g 3=±16g"},
		}},
	{Address: imu.RegPwrMgmt1, Name: "PWR_MGMT_1", Description: "Power management 1", Access: "RW",
		BitFields: []BitField{
			{Bits: "7", Name: "DEVICE_RESET", Description: "Reset all registers"},
			{Bits: "6", Name: "SLEEP", Description: "Sleep mode, set at power-up"},
			{Bits: "2:0", Name: "CLKSEL", Description: "Clock source"},
		}},
	{Address: 0x6C, Name: "PWR_MGMT_2", Description: "Power management 2", Access: "RW"},
	{Address: imu.RegWhoAmI, Name: "WHO_AM_I", Description: "Device identity", Access: "R"},
}

// RegisterValue is a register read back from the chip.
type RegisterValue struct {
	RegisterInfo
	Value byte `json:"value"`
}

func (v RegisterValue) String() string {
	return fmt.Sprintf("0x%02X %-12s = 0x%02X (%08b)", v.Address, v.Name, v.Value, v.Value)
}

// ReadRegister reads a single register. The bus reads in pairs, so this is
// the high byte of the pair at addr.
func (m *MPU6050) ReadRegister(addr byte) (byte, error) {
	v, err := m.bus.ReadRegisterPair(addr)
	if err != nil {
		return 0, fmt.Errorf("MPU6050 register 0x%02X: %w", addr, err)
	}
	return byte(v >> 8), nil
}

// WhoAmI returns the identity register.
func (m *MPU6050) WhoAmI() (byte, error) {
	return m.ReadRegister(imu.RegWhoAmI)
}

// DumpRegisters reads every entry of MPU6050Registers.
func (m *MPU6050) DumpRegisters() ([]RegisterValue, error) {
	out := make([]RegisterValue, 0, len(MPU6050Registers))
	for _, info := range MPU6050Registers {
		v, err := m.ReadRegister(info.Address)
		if err != nil {
			return nil, err
		}
		out = append(out, RegisterValue{RegisterInfo: info, Value: v})
	}
	return out, nil
}

// FormatRegisters renders a dump one register per line.
func FormatRegisters(values []RegisterValue) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return b.String()
}
