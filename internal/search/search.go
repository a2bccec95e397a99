// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package search refines a gait pattern by greedy hill climbing on the
// measured tilt. Each iteration nudges the best pattern against the current
// tilt, tries it, and keeps it only if it scores better by a margin.
//
// There is no convergence guarantee: ending on the seed, or on a local
// optimum, is a normal outcome.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/orientation"
	"github.com/relabs-tech/gait_stabilizer/internal/stability"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "search"})

// Executor plays a pattern and leaves the robot at its baseline.
type Executor interface {
	Execute(ctx context.Context, p gait.Pattern) error
}

// Scorer measures tilt over a window.
type Scorer interface {
	Measure(ctx context.Context, count int, interval time.Duration) (stability.Deviation, error)
}

// Params tunes a run.
type Params struct {
	Iterations           int
	CorrectionDivisor    float64
	ImprovementThreshold float64
	SampleCount          int
	SampleInterval       time.Duration
	// CandidateTrials > 1 averages that many execute+measure rounds per score.
	CandidateTrials int
	// MaxConsecutiveFaults is how many iterations in a row may lose a sensor
	// read before the fault is treated as persistent.
	MaxConsecutiveFaults int
}

// DefaultParams matches the bench robot tuning.
func DefaultParams() Params {
	return Params{
		Iterations:           10,
		CorrectionDivisor:    10,
		ImprovementThreshold: 0.5,
		SampleCount:          10,
		SampleInterval:       50 * time.Millisecond,
		CandidateTrials:      1,
		MaxConsecutiveFaults: 3,
	}
}

func (p Params) validate() error {
	switch {
	case p.Iterations < 0:
		return errors.New("iterations must not be negative")
	case p.CorrectionDivisor <= 0:
		return errors.New("correction divisor must be positive")
	case p.ImprovementThreshold < 0:
		return errors.New("improvement threshold must not be negative")
	case p.SampleCount < 1:
		return errors.New("sample count must be at least 1")
	case p.CandidateTrials < 1:
		return errors.New("candidate trials must be at least 1")
	case p.MaxConsecutiveFaults < 1:
		return errors.New("max consecutive faults must be at least 1")
	}
	return nil
}

// State is the search's memory between iterations. It is replaced as a
// whole, never edited in place.
type State struct {
	Best                 gait.Pattern
	BestScore            float64
	Iteration            int
	CorrectionDivisor    float64
	ImprovementThreshold float64
}

// Result summarizes a run.
type Result struct {
	Best         gait.Pattern
	BestScore    float64
	InitialScore float64
	Iterations   int
	Accepted     int
	Faults       int
}

// Search owns one hill-climbing run.
type Search struct {
	exec     Executor
	scorer   Scorer
	guidance orientation.Source
	policy   Policy
	params   Params
	observer Observer

	mu    sync.Mutex
	state State
}

// Option configures a Search.
type Option func(*Search)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(s *Search) { s.policy = p }
}

// WithObserver receives an Event at every step.
func WithObserver(o Observer) Option {
	return func(s *Search) { s.observer = o }
}

// New prepares a search starting from seed. guidance supplies the single
// instantaneous sample that steers each correction.
func New(exec Executor, scorer Scorer, guidance orientation.Source, seed gait.Pattern, params Params, opts ...Option) (*Search, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("search: seed: %w", err)
	}
	s := &Search{
		exec:     exec,
		scorer:   scorer,
		guidance: guidance,
		policy:   DefaultPolicy(),
		params:   params,
		observer: nopObserver{},
		state: State{
			Best:                 seed.Clone(),
			CorrectionDivisor:    params.CorrectionDivisor,
			ImprovementThreshold: params.ImprovementThreshold,
		},
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return s, nil
}

// State returns a copy of the current state.
func (s *Search) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Best = st.Best.Clone()
	return st
}

func (s *Search) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run executes the seed and measures it, performs the configured number of
// iterations, then plays the best pattern once more. On cancellation the
// result so far is returned with ctx.Err(). A sensor fault only loses its
// iteration unless it repeats MaxConsecutiveFaults times in a row; any
// other error ends the run at once.
func (s *Search) Run(ctx context.Context) (Result, error) {
	st := s.State()
	res := Result{Best: st.Best}

	dev, err := s.evaluate(ctx, st.Best)
	if err != nil {
		return res, fmt.Errorf("search: initial measurement: %w", err)
	}
	st.BestScore = dev.Score()
	s.setState(st)
	res.InitialScore = st.BestScore
	res.BestScore = st.BestScore
	s.emit(Event{Kind: EventInitialized, Deviation: dev, Score: st.BestScore, BestScore: st.BestScore})
	log.WithField("score", st.BestScore).Info("seed measured")

	faults := 0
	for i := 1; i <= s.params.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return s.finish(res), err
		}

		accepted, err := s.iterate(ctx, i)
		switch {
		case err == nil:
			faults = 0
			res.Iterations++
			if accepted {
				res.Accepted++
			}
		case ctx.Err() != nil:
			return s.finish(res), ctx.Err()
		case orientation.IsSensorReadError(err):
			faults++
			res.Faults++
			s.emit(Event{Kind: EventFault, Iteration: i, Err: err.Error(), BestScore: s.State().BestScore})
			log.WithError(err).WithFields(logrus.Fields{"iteration": i, "consecutive": faults}).Warn("iteration aborted by sensor fault")
			if faults >= s.params.MaxConsecutiveFaults {
				return s.finish(res), fmt.Errorf("search: persistent sensor fault after %d iterations: %w", faults, err)
			}
		default:
			return s.finish(res), fmt.Errorf("search: iteration %d: %w", i, err)
		}
	}

	best := s.State().Best
	if err := s.exec.Execute(ctx, best); err != nil {
		return s.finish(res), fmt.Errorf("search: final execution: %w", err)
	}
	res = s.finish(res)
	s.emit(Event{Kind: EventFinished, Iteration: res.Iterations, Score: res.BestScore, BestScore: res.BestScore})
	log.WithFields(logrus.Fields{"best": res.BestScore, "initial": res.InitialScore, "accepted": res.Accepted}).Info("search finished")
	return res, nil
}

// iterate runs one step. State changes only when the candidate is accepted.
func (s *Search) iterate(ctx context.Context, i int) (bool, error) {
	st := s.State()

	if err := s.exec.Execute(ctx, st.Best); err != nil {
		return false, err
	}
	sample, err := s.guidance.ReadOrientation()
	if err != nil {
		return false, err
	}
	corr := Corrections(sample, st.CorrectionDivisor)
	candidate := s.policy.Apply(st.Best, corr)

	dev, err := s.evaluate(ctx, candidate)
	if err != nil {
		return false, err
	}
	score := dev.Score()
	accepted := Accept(score, st.BestScore, st.ImprovementThreshold)

	next := st
	next.Iteration = i
	if accepted {
		next.Best = candidate
		next.BestScore = score
	}
	s.setState(next)

	kind := EventRejected
	if accepted {
		kind = EventAccepted
	}
	s.emit(Event{
		Kind:       kind,
		Iteration:  i,
		Guidance:   sample,
		Correction: corr,
		Deviation:  dev,
		Score:      score,
		BestScore:  next.BestScore,
	})
	log.WithFields(logrus.Fields{
		"iteration":  i,
		"pitch":      sample.Pitch,
		"roll":       sample.Roll,
		"correction": fmt.Sprintf("%+g/%+g", corr.Pitch, corr.Roll),
		"score":      score,
		"best":       next.BestScore,
		"accepted":   accepted,
	}).Info("iteration")
	return accepted, nil
}

// evaluate executes p and measures it, CandidateTrials times, averaging.
func (s *Search) evaluate(ctx context.Context, p gait.Pattern) (stability.Deviation, error) {
	devs := make([]stability.Deviation, 0, s.params.CandidateTrials)
	for t := 0; t < s.params.CandidateTrials; t++ {
		if err := s.exec.Execute(ctx, p); err != nil {
			return stability.Deviation{}, err
		}
		d, err := s.scorer.Measure(ctx, s.params.SampleCount, s.params.SampleInterval)
		if err != nil {
			return stability.Deviation{}, err
		}
		devs = append(devs, d)
	}
	return stability.Average(devs), nil
}

func (s *Search) finish(res Result) Result {
	st := s.State()
	res.Best = st.Best
	res.BestScore = st.BestScore
	return res
}

func (s *Search) emit(e Event) {
	e.Time = time.Now()
	s.observer.Observe(e)
}
