package actuator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/joint"
	"github.com/relabs-tech/gait_stabilizer/internal/pwm"
)

func newTestDriver(t *testing.T) (*Driver, *pwm.Recorder, *[]time.Duration) {
	t.Helper()
	rec := pwm.NewRecorder()
	var slept []time.Duration
	d, err := NewDriver(rec, joint.DefaultTable(), WithSleep(func(d time.Duration) { slept = append(slept, d) }))
	require.NoError(t, err)
	return d, rec, &slept
}

func TestAngleToPulse(t *testing.T) {
	tests := []struct {
		angle float64
		pulse float64
	}{
		{0, 500},
		{45, 1000},
		{90, 1500},
		{135, 2000},
		{180, 2500},
		{-10, 500},
		{200, 2500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.pulse, AngleToPulse(tt.angle), "angle %v", tt.angle)
	}
}

func TestPhysicalAngle(t *testing.T) {
	for _, a := range []float64{0, 30, 90, 110, 180} {
		assert.Equal(t, a, PhysicalAngle(a, false))
		assert.Equal(t, 180-a, PhysicalAngle(a, true))
	}
	assert.Equal(t, 180.0, PhysicalAngle(-20, true))
	assert.Equal(t, 0.0, PhysicalAngle(250, true))
}

func TestSetAngleReversedJoint(t *testing.T) {
	d, rec, _ := newTestDriver(t)

	require.NoError(t, d.SetAngle(joint.RightToe, 110))
	// 180 - 110 = 70 degrees physical
	assert.InDelta(t, 500+70.0/180*2000, rec.Last(26), 1e-9)

	require.NoError(t, d.SetAngle(joint.LeftToe, 110))
	assert.InDelta(t, 500+110.0/180*2000, rec.Last(16), 1e-9)
}

func TestSetAngleClamps(t *testing.T) {
	d, rec, _ := newTestDriver(t)

	require.NoError(t, d.SetAngle(joint.HipLeft, 250))
	assert.Equal(t, 2500.0, rec.Last(23))
	assert.Equal(t, 180.0, d.Commanded()[joint.HipLeft])

	require.NoError(t, d.SetAngle(joint.HipLeft, -30))
	assert.Equal(t, 500.0, rec.Last(23))
	assert.Equal(t, 0.0, d.Commanded()[joint.HipLeft])
}

func TestSetAngleUnknownJoint(t *testing.T) {
	d, _, _ := newTestDriver(t)
	assert.ErrorIs(t, d.SetAngle(joint.Joint(0), 90), ErrUnbound)
}

func TestNewDriverRejectsBadTable(t *testing.T) {
	tbl := joint.DefaultTable()
	delete(tbl, joint.KneeRight)
	_, err := NewDriver(pwm.NewRecorder(), tbl)
	assert.Error(t, err)
}

func TestMoveAllSettlesOnce(t *testing.T) {
	d, rec, slept := newTestDriver(t)

	require.NoError(t, d.MoveAll(gait.StandingPose()))
	assert.Len(t, rec.Commands(), 6)
	assert.Equal(t, []time.Duration{DefaultSettle}, *slept)

	// Canonical order regardless of map iteration.
	var channels []int
	for _, c := range rec.Commands() {
		channels = append(channels, c.Channel)
	}
	assert.Equal(t, []int{23, 22, 27, 17, 16, 26}, channels)
}

func TestMoveAllStopsAtFirstFailure(t *testing.T) {
	d, rec, slept := newTestDriver(t)
	boom := errors.New("bus gone")
	rec.FailOn = map[int]error{27: boom}

	err := d.MoveAll(gait.StandingPose())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.Commands(), 2)
	assert.Empty(t, *slept)
}

func TestBaselineTwiceIsIdempotent(t *testing.T) {
	d, rec, _ := newTestDriver(t)

	require.NoError(t, d.MoveAll(gait.StandingPose()))
	first := rec.Commands()
	rec.Reset()
	require.NoError(t, d.MoveAll(gait.StandingPose()))
	assert.Equal(t, first, rec.Commands())
}

func TestReleaseAll(t *testing.T) {
	d, rec, _ := newTestDriver(t)
	require.NoError(t, d.MoveAll(gait.StandingPose()))

	require.NoError(t, d.ReleaseAll())
	for _, ch := range joint.DefaultTable().Channels() {
		assert.Equal(t, 1, rec.Releases()[ch])
		assert.Equal(t, 0.0, rec.Last(ch))
	}
	assert.Empty(t, d.Commanded())
}
