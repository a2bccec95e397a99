package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

func TestParseEmptyGivesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 100*time.Millisecond, cfg.SettleDuration())
	assert.Equal(t, 500*time.Millisecond, cfg.DwellDuration())
	assert.Equal(t, 50*time.Millisecond, cfg.SampleIntervalDuration())
}

func TestParseValues(t *testing.T) {
	input := `
# bench rig
I2C_BUS = 0
IMU_I2C_ADDR=0x69
ROLL_FORMULA=xz
PWM_BACKEND=pca9685
PCA9685_I2C_ADDR=0x41
MAESTRO_BAUD_RATE=9600
DWELL_MS=250
ITERATIONS=25
CORRECTION_DIVISOR=5
IMPROVEMENT_THRESHOLD=0
CANDIDATE_TRIALS=3
PATTERN_FILE=patterns/stride.yaml
MQTT_BROKER=tcp://pi.local:1883
TOPIC_SEARCH=robot/search
METRICS_PORT=9100
DISPLAY_I2C_ADDR=0x3D
SIM_PITCH_BIAS=-4.5
LOG_LEVEL=DEBUG
LOG_JSON=true
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "0", cfg.I2CBus)
	assert.Equal(t, uint16(0x69), cfg.IMUI2CAddr)
	assert.Equal(t, "xz", cfg.RollFormula)
	assert.Equal(t, "pca9685", cfg.PWMBackend)
	assert.Equal(t, uint16(0x41), cfg.PCA9685I2CAddr)
	assert.Equal(t, uint(9600), cfg.MaestroBaudRate)
	assert.Equal(t, 250*time.Millisecond, cfg.DwellDuration())
	assert.Equal(t, 25, cfg.Iterations)
	assert.Equal(t, 5.0, cfg.CorrectionDivisor)
	assert.Zero(t, cfg.ImprovementThreshold)
	assert.Equal(t, 3, cfg.CandidateTrials)
	assert.Equal(t, "patterns/stride.yaml", cfg.PatternFile)
	assert.Equal(t, "tcp://pi.local:1883", cfg.MQTTBroker)
	assert.Equal(t, "robot/search", cfg.TopicSearch)
	assert.Equal(t, "gait/orientation", cfg.TopicOrientation)
	assert.Equal(t, 9100, cfg.MetricsPort)
	assert.Equal(t, uint16(0x3D), cfg.DisplayI2CAddr)
	assert.Equal(t, -4.5, cfg.SimPitchBias)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
}

func TestParseJointBindings(t *testing.T) {
	input := "JOINT_HIP_LEFT_CHANNEL=0\nJOINT_RIGHT_TOE_REVERSED=false\nJOINT_KNEE_LEFT_REVERSED=1\n"
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, joint.Binding{Channel: 0}, cfg.Joints[joint.HipLeft])
	assert.Equal(t, joint.Binding{Channel: 26}, cfg.Joints[joint.RightToe])
	assert.Equal(t, joint.Binding{Channel: 22, Reversed: true}, cfg.Joints[joint.KneeLeft])

	// defaults are not shared between configs
	assert.Equal(t, 23, Default().Joints[joint.HipLeft].Channel)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no equals":        "I2C_BUS",
		"unknown key":      "FOO=1",
		"bad int":          "DWELL_MS=soon",
		"int out of range": "SAMPLE_COUNT=0",
		"zero divisor":     "CORRECTION_DIVISOR=0",
		"negative thresh":  "IMPROVEMENT_THRESHOLD=-1",
		"bad backend":      "PWM_BACKEND=arduino",
		"bad roll formula": "ROLL_FORMULA=zy",
		"bad addr":         "IMU_I2C_ADDR=0xZZ",
		"bad bool":         "LOG_JSON=maybe",
		"unknown joint":    "JOINT_ELBOW_CHANNEL=3",
		"joint field":      "JOINT_HIP_LEFT_SPEED=3",
		"negative channel": "JOINT_HIP_LEFT_CHANNEL=-1",
		"dup channel":      "JOINT_HIP_LEFT_CHANNEL=22",
		"empty bus":        "I2C_BUS=",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseReportsLine(t *testing.T) {
	_, err := Parse(strings.NewReader("# header\n\nDWELL_MS=x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestInitGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stabilizer_config.txt")
	require.NoError(t, os.WriteFile(path, []byte("ITERATIONS=3\n"), 0o644))

	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, 3, Get().Iterations)

	// later calls are no-ops
	require.NoError(t, InitGlobal(filepath.Join(t.TempDir(), "other.txt")))
	assert.Equal(t, 3, Get().Iterations)
}
