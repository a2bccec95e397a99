package joint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Joint
	}{
		{"Hip Left", HipLeft},
		{"hip left", HipLeft},
		{"KNEE_LEFT", KneeLeft},
		{"HipRight", HipRight},
		{"knee-right", KneeRight},
		{"Left Toe", LeftToe},
		{"RIGHT_TOE", RightToe},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse("Tail")
	assert.True(t, errors.Is(err, ErrUnknownJoint))
}

func TestTextRoundTripUsesHumanNames(t *testing.T) {
	b, err := RightToe.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Right Toe", string(b))

	var j Joint
	require.NoError(t, j.UnmarshalText(b))
	assert.Equal(t, RightToe, j)

	_, err = Joint(42).MarshalText()
	assert.Error(t, err)
}

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	require.NoError(t, tbl.Validate())

	for _, j := range All {
		assert.Equal(t, j == RightToe, tbl[j].Reversed, j.String())
	}
	assert.Equal(t, []int{23, 22, 27, 17, 16, 26}, tbl.Channels())
}

func TestTableValidate(t *testing.T) {
	dup := DefaultTable()
	dup[KneeLeft] = Binding{Channel: 23}
	assert.Error(t, dup.Validate())

	missing := DefaultTable()
	delete(missing, LeftToe)
	assert.Error(t, missing.Validate())

	unknown := DefaultTable()
	unknown[Joint(99)] = Binding{Channel: 1}
	assert.True(t, errors.Is(unknown.Validate(), ErrUnknownJoint))
}

func TestTableCloneIsIndependent(t *testing.T) {
	a := DefaultTable()
	b := a.Clone()
	b[HipLeft] = Binding{Channel: 5}
	assert.Equal(t, 23, a[HipLeft].Channel)
}

func TestClamp(t *testing.T) {
	for _, a := range []float64{-1000, -0.5, 0, 45.5, 90, 180, 180.01, 1e9} {
		got := Clamp(a)
		assert.GreaterOrEqual(t, got, MinAngle)
		assert.LessOrEqual(t, got, MaxAngle)
	}
	assert.Equal(t, 45.5, Clamp(45.5))
	assert.Equal(t, 0.0, Clamp(-3))
	assert.Equal(t, 180.0, Clamp(200))
}
