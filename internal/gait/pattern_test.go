package gait

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

func TestWeightShiftMatchesStandingPose(t *testing.T) {
	p := WeightShift(StandingPose(), 5)
	require.NoError(t, p.Validate())
	require.Len(t, p.Phases, 4)

	assert.Equal(t, RoleForwardShift, p.Phases[0].Role)
	assert.Equal(t, 85.0, p.Phases[0].Angles[joint.HipLeft])
	assert.Equal(t, 85.0, p.Phases[0].Angles[joint.HipRight])

	assert.Equal(t, RoleBackwardShift, p.Phases[1].Role)
	assert.Equal(t, 95.0, p.Phases[1].Angles[joint.HipLeft])

	assert.Equal(t, RoleLeftShift, p.Phases[2].Role)
	assert.Equal(t, 125.0, p.Phases[2].Angles[joint.KneeLeft])
	assert.Equal(t, 105.0, p.Phases[2].Angles[joint.RightToe])

	assert.Equal(t, RoleRightShift, p.Phases[3].Role)
	assert.Equal(t, 115.0, p.Phases[3].Angles[joint.KneeLeft])
	assert.Equal(t, 115.0, p.Phases[3].Angles[joint.LeftToe])

	assert.True(t, p.Baseline.Equal(StandingPose()))
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := WeightShift(StandingPose(), 5)
	c := orig.Clone()

	c.Phases[0].Angles[joint.HipLeft] = 1
	c.Baseline[joint.KneeLeft] = 2
	c.Phases = append(c.Phases, Phase{Angles: AngleMap{joint.HipLeft: 3}})

	assert.Equal(t, 85.0, orig.Phases[0].Angles[joint.HipLeft])
	assert.Equal(t, 120.0, orig.Baseline[joint.KneeLeft])
	assert.Len(t, orig.Phases, 4)
	assert.False(t, orig.Equal(c))
	assert.True(t, orig.Equal(orig.Clone()))
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Pattern{Baseline: StandingPose()}.Validate(), ErrEmptyPattern)

	bad := WeightShift(StandingPose(), 5)
	bad.Phases[1].Role = "sideways"
	assert.Error(t, bad.Validate())

	noBase := WeightShift(StandingPose(), 5)
	noBase.Baseline = nil
	assert.Error(t, noBase.Validate())
}

func TestLerp(t *testing.T) {
	from := AngleMap{joint.HipLeft: 80, joint.KneeLeft: 100}
	to := AngleMap{joint.HipLeft: 100, joint.LeftToe: 40}

	mid := from.Lerp(to, 0.5)
	assert.Equal(t, 90.0, mid[joint.HipLeft])
	assert.Equal(t, 40.0, mid[joint.LeftToe])
	_, hasKnee := mid[joint.KneeLeft]
	assert.False(t, hasKnee)

	assert.True(t, from.Lerp(to, 1).Equal(to))
}

func TestMergeAndClamped(t *testing.T) {
	m := AngleMap{joint.HipLeft: 200}.Merge(StandingPose())
	assert.Equal(t, 200.0, m[joint.HipLeft])
	assert.Equal(t, 60.0, m[joint.KneeRight])

	c := AngleMap{joint.HipLeft: 200, joint.KneeLeft: -5}.Clamped()
	assert.Equal(t, 180.0, c[joint.HipLeft])
	assert.Equal(t, 0.0, c[joint.KneeLeft])
}

func TestDecodeLegacyPoseJSON(t *testing.T) {
	legacy := []byte(`{"Hip Left": 90, "Knee Left": 120, "Hip Right": 90, "Knee Right": 60, "Left Toe": 110, "Right Toe": 110}`)
	m, err := DecodePose(legacy)
	require.NoError(t, err)
	assert.True(t, m.Equal(StandingPose()))

	_, err = DecodePose([]byte(`{"Tail": 10}`))
	assert.ErrorIs(t, err, joint.ErrUnknownJoint)
}

func TestPatternFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.yaml")
	p := WeightShift(StandingPose(), 3)

	require.NoError(t, SavePattern(path, p))
	got, err := LoadPattern(path)
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Equal(got))
}

func TestPoseFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pose.yaml")
	require.NoError(t, SavePose(path, StandingPose()))

	got, err := LoadPose(path)
	require.NoError(t, err)
	assert.True(t, got.Equal(StandingPose()))
}

func TestBuiltin(t *testing.T) {
	p, err := Builtin("large-stride", StandingPose())
	require.NoError(t, err)
	assert.Len(t, p.Phases, 5)
	require.NoError(t, p.Validate())

	_, err = Builtin("moonwalk", StandingPose())
	assert.Error(t, err)
}
