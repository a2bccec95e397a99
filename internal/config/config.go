// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

// Config holds all application configuration values.
type Config struct {
	// Sensor bus
	I2CBus              string
	IMUI2CAddr          uint16
	IMUAccelSensitivity float64 // LSB per g
	RollFormula         string  // "yz" = atan2(ay, az), "xz" = atan2(ay, sqrt(ax²+az²))

	// PWM backend: "pca9685", "gpio", "maestro" or "sim"
	PWMBackend        string
	PCA9685I2CAddr    uint16
	PWMFrequencyHz    int
	MaestroSerialPort string
	MaestroBaudRate   uint

	// Joint bindings (channel + reversed flag), seeded from joint.DefaultTable
	Joints joint.Table

	// Timing (milliseconds)
	SettleDelay        int
	Dwell              int
	SampleInterval     int
	InterpolationSteps int

	// Search
	SampleCount          int
	Iterations           int
	CorrectionDivisor    float64
	ImprovementThreshold float64
	CandidateTrials      int
	MaxConsecutiveFaults int

	// Files
	PatternFile string
	PoseFile    string

	// MQTT
	MQTTBroker          string
	MQTTClientIDTuner   string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string
	MQTTClientIDMonitor string

	// Topics
	TopicOrientation string
	TopicSearch      string

	// Web / metrics
	WebServerPort int
	MetricsPort   int

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	// Simulated rig
	SimPitchBias float64
	SimRollBias  float64
	SimNoise     float64

	// Logging
	LogLevel string
	LogJSON  bool
}

// Package-level singleton, same pattern as the other tools in this repo:
// InitGlobal sets it once, Get reads it under a read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when a key is absent from the file.
// Values mirror the bench rig: MPU-6050 on bus 1, servos on BCM pins.
func Default() *Config {
	return &Config{
		I2CBus:              "1",
		IMUI2CAddr:          0x68,
		IMUAccelSensitivity: 16384.0,
		RollFormula:         "yz",

		PWMBackend:        "gpio",
		PCA9685I2CAddr:    0x40,
		PWMFrequencyHz:    50,
		MaestroSerialPort: "/dev/ttyACM0",
		MaestroBaudRate:   115200,

		Joints: joint.DefaultTable(),

		SettleDelay:        100,
		Dwell:              500,
		SampleInterval:     50,
		InterpolationSteps: 0,

		SampleCount:          10,
		Iterations:           10,
		CorrectionDivisor:    10,
		ImprovementThreshold: 0.5,
		CandidateTrials:      1,
		MaxConsecutiveFaults: 3,

		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDTuner:   "gait-tuner",
		MQTTClientIDWeb:     "gait-web-subscriber",
		MQTTClientIDDisplay: "gait-display",
		MQTTClientIDMonitor: "gait-monitor",

		TopicOrientation: "gait/orientation",
		TopicSearch:      "gait/search",

		WebServerPort: 8080,

		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 500,

		SimNoise: 0.5,

		LogLevel: "info",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	if strings.HasPrefix(key, "JOINT_") {
		return c.setJointValue(key, value)
	}

	switch key {
	// Sensor bus
	case "I2C_BUS":
		c.I2CBus = value
	case "IMU_I2C_ADDR":
		return parseAddr(key, value, &c.IMUI2CAddr)
	case "IMU_ACCEL_SENSITIVITY":
		return parsePositiveFloat(key, value, &c.IMUAccelSensitivity)
	case "ROLL_FORMULA":
		if value != "yz" && value != "xz" {
			return fmt.Errorf("ROLL_FORMULA must be yz or xz, got %q", value)
		}
		c.RollFormula = value

	// PWM
	case "PWM_BACKEND":
		switch value {
		case "pca9685", "gpio", "maestro", "sim":
		default:
			return fmt.Errorf("PWM_BACKEND must be pca9685, gpio, maestro or sim, got %q", value)
		}
		c.PWMBackend = value
	case "PCA9685_I2C_ADDR":
		return parseAddr(key, value, &c.PCA9685I2CAddr)
	case "PWM_FREQUENCY_HZ":
		return parseInt(key, value, 1, 1000, &c.PWMFrequencyHz)
	case "MAESTRO_SERIAL_PORT":
		c.MaestroSerialPort = value
	case "MAESTRO_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid MAESTRO_BAUD_RATE %q: %w", value, err)
		}
		c.MaestroBaudRate = uint(rate)

	// Timing
	case "SETTLE_DELAY_MS":
		return parseInt(key, value, 0, 10000, &c.SettleDelay)
	case "DWELL_MS":
		return parseInt(key, value, 0, 60000, &c.Dwell)
	case "SAMPLE_INTERVAL_MS":
		return parseInt(key, value, 0, 10000, &c.SampleInterval)
	case "INTERPOLATION_STEPS":
		return parseInt(key, value, 0, 100, &c.InterpolationSteps)

	// Search
	case "SAMPLE_COUNT":
		return parseInt(key, value, 1, 10000, &c.SampleCount)
	case "ITERATIONS":
		return parseInt(key, value, 0, 10000, &c.Iterations)
	case "CORRECTION_DIVISOR":
		return parsePositiveFloat(key, value, &c.CorrectionDivisor)
	case "IMPROVEMENT_THRESHOLD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid IMPROVEMENT_THRESHOLD %q: %w", value, err)
		}
		if v < 0 {
			return fmt.Errorf("IMPROVEMENT_THRESHOLD must be >= 0, got %v", v)
		}
		c.ImprovementThreshold = v
	case "CANDIDATE_TRIALS":
		return parseInt(key, value, 1, 100, &c.CandidateTrials)
	case "MAX_CONSECUTIVE_FAULTS":
		return parseInt(key, value, 1, 1000, &c.MaxConsecutiveFaults)

	// Files
	case "PATTERN_FILE":
		c.PatternFile = value
	case "POSE_FILE":
		c.PoseFile = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_TUNER":
		c.MQTTClientIDTuner = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value

	// Topics
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_SEARCH":
		c.TopicSearch = value

	// Web / metrics
	case "WEB_SERVER_PORT":
		return parseInt(key, value, 1, 65535, &c.WebServerPort)
	case "METRICS_PORT":
		return parseInt(key, value, 0, 65535, &c.MetricsPort)

	// Display
	case "DISPLAY_I2C_ADDR":
		return parseAddr(key, value, &c.DisplayI2CAddr)
	case "DISPLAY_UPDATE_INTERVAL":
		return parseInt(key, value, 10, 60000, &c.DisplayUpdateInterval)

	// Simulation
	case "SIM_PITCH_BIAS":
		return parseFloat(key, value, &c.SimPitchBias)
	case "SIM_ROLL_BIAS":
		return parseFloat(key, value, &c.SimRollBias)
	case "SIM_NOISE":
		return parseFloat(key, value, &c.SimNoise)

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)
	case "LOG_JSON":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_JSON %q: %w", value, err)
		}
		c.LogJSON = b

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// setJointValue handles JOINT_<NAME>_CHANNEL and JOINT_<NAME>_REVERSED,
// where NAME is the joint in upper snake case (e.g. JOINT_RIGHT_TOE_REVERSED).
func (c *Config) setJointValue(key, value string) error {
	rest := strings.TrimPrefix(key, "JOINT_")

	var field string
	switch {
	case strings.HasSuffix(rest, "_CHANNEL"):
		field = "CHANNEL"
		rest = strings.TrimSuffix(rest, "_CHANNEL")
	case strings.HasSuffix(rest, "_REVERSED"):
		field = "REVERSED"
		rest = strings.TrimSuffix(rest, "_REVERSED")
	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	j, err := joint.ParseKey(rest)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	b := c.Joints[j]
	switch field {
	case "CHANNEL":
		ch, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if ch < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", key, ch)
		}
		b.Channel = ch
	case "REVERSED":
		rev, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		b.Reversed = rev
	}
	c.Joints[j] = b
	return nil
}

// validate checks cross-field constraints.
func (c *Config) validate() error {
	if c.I2CBus == "" {
		return fmt.Errorf("I2C_BUS is required")
	}
	if c.PWMBackend == "maestro" && c.MaestroSerialPort == "" {
		return fmt.Errorf("MAESTRO_SERIAL_PORT is required for the maestro backend")
	}
	if err := c.Joints.Validate(); err != nil {
		return fmt.Errorf("joint table: %w", err)
	}
	return nil
}

// SettleDuration returns the post-MoveAll settle delay.
func (c *Config) SettleDuration() time.Duration {
	return time.Duration(c.SettleDelay) * time.Millisecond
}

// DwellDuration returns the per-phase dwell.
func (c *Config) DwellDuration() time.Duration {
	return time.Duration(c.Dwell) * time.Millisecond
}

// SampleIntervalDuration returns the spacing between scorer polls.
func (c *Config) SampleIntervalDuration() time.Duration {
	return time.Duration(c.SampleInterval) * time.Millisecond
}

func parseInt(key, value string, min, max int, dst *int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return fmt.Errorf("%s must be %d-%d, got %d", key, min, max, v)
	}
	*dst = v
	return nil
}

func parseFloat(key, value string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func parsePositiveFloat(key, value string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return fmt.Errorf("%s must be > 0, got %v", key, v)
	}
	*dst = v
	return nil
}

func parseAddr(key, value string, dst *uint16) error {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = uint16(addr)
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
