// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pwm

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"
)

// Pololu Maestro compact protocol.
// See https://www.pololu.com/docs/pdf/0J40/maestro.pdf
const (
	maestroCmdSetTarget = 0x84
	maestroMaxChannel   = 23
)

// Maestro drives a Pololu Maestro USB/serial servo controller.
type Maestro struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
}

// OpenMaestro opens the controller's command port.
func OpenMaestro(portName string, baud uint) (*Maestro, error) {
	opts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("maestro open %s: %w", portName, err)
	}
	log.WithFields(logrus.Fields{"port": portName, "baud": baud}).Info("maestro port opened")
	return NewMaestro(port), nil
}

// NewMaestro wraps an already open port.
func NewMaestro(port io.ReadWriteCloser) *Maestro {
	return &Maestro{port: port}
}

// SetPulse implements Backend.
func (m *Maestro) SetPulse(channel int, micros float64) error {
	if err := checkPulse(channel, micros); err != nil {
		return err
	}
	return m.setTarget(channel, uint16(math.Round(micros*4)))
}

// Release implements Backend. A target of 0 stops the pulses.
func (m *Maestro) Release(channel int) error {
	return m.setTarget(channel, 0)
}

// Close closes the serial port.
func (m *Maestro) Close() error {
	return m.port.Close()
}

// setTarget sends a target in quarter-microseconds.
func (m *Maestro) setTarget(channel int, quarterMicros uint16) error {
	if channel < 0 || channel > maestroMaxChannel {
		return fmt.Errorf("maestro: channel %d out of range 0-%d", channel, maestroMaxChannel)
	}
	cmd := []byte{maestroCmdSetTarget, byte(channel), lo7(quarterMicros), hi7(quarterMicros)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.port.Write(cmd); err != nil {
		return fmt.Errorf("maestro channel %d: %w", channel, err)
	}
	return nil
}

func lo7(v uint16) byte { return byte(v & 0x7f) }
func hi7(v uint16) byte { return byte((v >> 7) & 0x7f) }
