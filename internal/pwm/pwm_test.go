package pwm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

type bufPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufPort) Close() error {
	b.closed = true
	return nil
}

func TestMaestroSetTarget(t *testing.T) {
	port := &bufPort{}
	m := NewMaestro(port)

	// 1500 µs = 6000 quarter-µs = 0x1770 -> lo7 0x70, hi7 0x2E
	require.NoError(t, m.SetPulse(3, 1500))
	assert.Equal(t, []byte{0x84, 3, 0x70, 0x2E}, port.Bytes())

	port.Reset()
	require.NoError(t, m.Release(3))
	assert.Equal(t, []byte{0x84, 3, 0, 0}, port.Bytes())

	assert.Error(t, m.SetPulse(24, 1500))
	require.NoError(t, m.Close())
	assert.True(t, port.closed)
}

func TestPulseRangeRejected(t *testing.T) {
	r := NewRecorder()
	assert.ErrorIs(t, r.SetPulse(1, 2600), ErrPulseRange)
	assert.ErrorIs(t, r.SetPulse(1, -1), ErrPulseRange)
	assert.NoError(t, r.SetPulse(1, 0))
	assert.NoError(t, r.SetPulse(1, 2500))
}

func TestPulseToTicks(t *testing.T) {
	// 50 Hz -> 20000 µs period, 4096 ticks.
	assert.Equal(t, 102, PulseToTicks(500, 50))
	assert.Equal(t, 307, PulseToTicks(1500, 50))
	assert.Equal(t, 512, PulseToTicks(2500, 50))
	assert.Equal(t, 0, PulseToTicks(0, 50))
}

func TestPulseToDuty(t *testing.T) {
	assert.Equal(t, gpio.Duty(0), PulseToDuty(0, 50))
	assert.Equal(t, gpio.DutyMax/8, PulseToDuty(2500, 50))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.SetPulse(23, 1500))
	require.NoError(t, r.SetPulse(26, 900))
	require.NoError(t, r.Release(23))

	assert.Equal(t, 0.0, r.Last(23))
	assert.Equal(t, 900.0, r.Last(26))
	assert.Equal(t, map[int]int{23: 1}, r.Releases())
	assert.Len(t, r.Commands(), 3)

	boom := errors.New("boom")
	r.FailOn = map[int]error{26: boom}
	assert.ErrorIs(t, r.SetPulse(26, 1000), boom)

	require.NoError(t, r.Close())
	assert.True(t, r.Closed())
}
