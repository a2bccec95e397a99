package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

type fakeActuator struct {
	moves     []gait.AngleMap
	commanded gait.AngleMap
	failAt    int
	err       error
}

func (f *fakeActuator) MoveAll(m gait.AngleMap) error {
	if f.err != nil && len(f.moves) == f.failAt {
		return f.err
	}
	f.moves = append(f.moves, m.Clone())
	f.commanded = m.Merge(f.commanded)
	return nil
}

func (f *fakeActuator) Commanded() gait.AngleMap { return f.commanded.Clone() }

type sleepLog struct {
	calls []time.Duration
	hook  func(n int)
}

func (s *sleepLog) sleep(d time.Duration) {
	s.calls = append(s.calls, d)
	if s.hook != nil {
		s.hook(len(s.calls))
	}
}

func TestExecuteEndsAtBaseline(t *testing.T) {
	act := &fakeActuator{}
	sl := &sleepLog{}
	e := New(act, WithDwell(500*time.Millisecond), WithSleep(sl.sleep))

	p := gait.WeightShift(gait.StandingPose(), 5)
	require.NoError(t, e.Execute(context.Background(), p))

	require.Len(t, act.moves, 5)
	for i, ph := range p.Phases {
		assert.True(t, ph.Angles.Equal(act.moves[i]), "phase %d", i)
	}
	assert.True(t, p.Baseline.Equal(act.moves[4]))
	assert.Len(t, sl.calls, 5)
	for _, d := range sl.calls {
		assert.Equal(t, 500*time.Millisecond, d)
	}
}

func TestExecuteDoesNotMutatePattern(t *testing.T) {
	act := &fakeActuator{}
	e := New(act, WithSleep(func(time.Duration) {}))
	p := gait.WeightShift(gait.StandingPose(), 5)
	orig := p.Clone()

	require.NoError(t, e.Execute(context.Background(), p))
	act.moves[0][joint.HipLeft] = 3

	assert.True(t, orig.Equal(p))
}

func TestExecuteRejectsInvalidPattern(t *testing.T) {
	act := &fakeActuator{}
	e := New(act, WithSleep(func(time.Duration) {}))

	err := e.Execute(context.Background(), gait.Pattern{Baseline: gait.StandingPose()})
	assert.ErrorIs(t, err, gait.ErrEmptyPattern)
	assert.Empty(t, act.moves)
}

func TestExecuteCancelledReturnsToBaseline(t *testing.T) {
	act := &fakeActuator{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sl := &sleepLog{hook: func(n int) {
		if n == 1 {
			cancel()
		}
	}}
	e := New(act, WithSleep(sl.sleep))

	p := gait.WeightShift(gait.StandingPose(), 5)
	err := e.Execute(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, act.moves, 2)
	assert.True(t, p.Phases[0].Angles.Equal(act.moves[0]))
	assert.True(t, p.Baseline.Equal(act.moves[1]))
}

func TestExecuteActuatorFault(t *testing.T) {
	boom := errors.New("pwm gone")
	act := &fakeActuator{failAt: 2, err: boom}
	e := New(act, WithSleep(func(time.Duration) {}))

	err := e.Execute(context.Background(), gait.WeightShift(gait.StandingPose(), 5))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, act.moves, 2)
}

func TestExecuteSubsteps(t *testing.T) {
	base := gait.AngleMap{joint.HipLeft: 90}
	act := &fakeActuator{commanded: base.Clone()}
	sl := &sleepLog{}
	e := New(act, WithDwell(500*time.Millisecond), WithSubsteps(5), WithSleep(sl.sleep))

	p := gait.Pattern{
		Name:     "one",
		Baseline: base,
		Phases:   []gait.Phase{{Angles: gait.AngleMap{joint.HipLeft: 100}}},
	}
	require.NoError(t, e.Execute(context.Background(), p))

	// 5 steps out, 5 steps back.
	require.Len(t, act.moves, 10)
	want := []float64{92, 94, 96, 98, 100, 98, 96, 94, 92, 90}
	for i, w := range want {
		assert.InDelta(t, w, act.moves[i][joint.HipLeft], 1e-9, "step %d", i)
	}
	assert.Len(t, sl.calls, 10)
	assert.Equal(t, 100*time.Millisecond, sl.calls[0])
}

func TestExecuteSubstepsFromUnknownPose(t *testing.T) {
	act := &fakeActuator{}
	e := New(act, WithSubsteps(5), WithSleep(func(time.Duration) {}))

	p := gait.WeightShift(gait.StandingPose(), 5)
	require.NoError(t, e.Execute(context.Background(), p))

	// Nothing commanded yet: the first phase is applied directly.
	assert.True(t, p.Phases[0].Angles.Equal(act.moves[0]))
	assert.Len(t, act.moves, 1+4*5)
	assert.True(t, p.Baseline.Equal(act.moves[len(act.moves)-1]))
}
