// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package executor plays a gait pattern on the actuators: every phase in
// order, then the baseline. An execution always ends at the baseline pose,
// including when it is cancelled.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/gait"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "executor"})

// DefaultDwell is the wait after each phase.
const DefaultDwell = 500 * time.Millisecond

// Actuator is the part of the driver the executor needs.
type Actuator interface {
	MoveAll(gait.AngleMap) error
	Commanded() gait.AngleMap
}

// Executor runs patterns. It is not safe for concurrent use; one logical
// owner drives the robot at a time.
type Executor struct {
	act      Actuator
	dwell    time.Duration
	substeps int
	sleep    func(time.Duration)
}

// Option configures an Executor.
type Option func(*Executor)

// WithDwell sets the per-phase dwell.
func WithDwell(d time.Duration) Option {
	return func(e *Executor) { e.dwell = d }
}

// WithSubsteps enables linear interpolation between poses. n <= 1 disables it.
func WithSubsteps(n int) Option {
	return func(e *Executor) { e.substeps = n }
}

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// New returns an executor driving act.
func New(act Actuator, opts ...Option) *Executor {
	e := &Executor{
		act:   act,
		dwell: DefaultDwell,
		sleep: time.Sleep,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute commands each phase of p followed by the dwell, then the baseline
// followed by one more dwell. ctx is checked between phases and sub-steps;
// once it is done the baseline is commanded and ctx.Err() returned, so the
// stop latency is at most one dwell. An actuator error is returned as is and
// leaves the robot wherever it got to.
func (e *Executor) Execute(ctx context.Context, p gait.Pattern) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("executor: %w", err)
	}
	p = p.Clone()

	current := e.act.Commanded()
	for i, ph := range p.Phases {
		if err := ctx.Err(); err != nil {
			return e.abort(p.Baseline, err)
		}
		log.WithFields(logrus.Fields{"pattern": p.Name, "phase": i, "role": string(ph.Role)}).Debug("phase")

		next, err := e.transition(ctx, current, ph.Angles)
		if err != nil {
			if ctx.Err() != nil {
				return e.abort(p.Baseline, ctx.Err())
			}
			return err
		}
		current = next
	}

	if err := ctx.Err(); err != nil {
		return e.abort(p.Baseline, err)
	}
	if _, err := e.transition(ctx, current, p.Baseline); err != nil {
		if ctx.Err() != nil {
			return e.abort(p.Baseline, ctx.Err())
		}
		return err
	}
	return nil
}

// transition moves from one pose to the next, in sub-steps if enabled, and
// returns the pose the robot is now commanded to.
func (e *Executor) transition(ctx context.Context, from, to gait.AngleMap) (gait.AngleMap, error) {
	reached := to.Merge(from)
	if e.substeps <= 1 || len(from) == 0 {
		if err := e.act.MoveAll(to); err != nil {
			return nil, err
		}
		e.wait(e.dwell)
		return reached, nil
	}

	step := e.dwell / time.Duration(e.substeps)
	for i := 1; i <= e.substeps; i++ {
		if i > 1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		pose := from.Lerp(to, float64(i)/float64(e.substeps))
		if err := e.act.MoveAll(pose); err != nil {
			return nil, err
		}
		e.wait(step)
	}
	return reached, nil
}

func (e *Executor) abort(baseline gait.AngleMap, cause error) error {
	log.WithError(cause).Info("execution cancelled, returning to baseline")
	if err := e.act.MoveAll(baseline); err != nil {
		return fmt.Errorf("executor: baseline after cancel: %w", err)
	}
	return cause
}

func (e *Executor) wait(d time.Duration) {
	if d > 0 {
		e.sleep(d)
	}
}
