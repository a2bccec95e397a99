// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package stability turns a window of orientation samples into a tilt score.
package stability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gait_stabilizer/internal/orientation"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "stability"})

// ErrNoSamples is returned when Measure is asked for fewer than one sample.
var ErrNoSamples = errors.New("sample count must be at least 1")

// Deviation is the mean absolute tilt over a measurement window, in degrees.
// PitchSpread and RollSpread are the standard deviation of the signed
// samples; they are informational and do not enter the score.
type Deviation struct {
	Pitch       float64 `json:"pitch"`
	Roll        float64 `json:"roll"`
	PitchSpread float64 `json:"pitch_spread"`
	RollSpread  float64 `json:"roll_spread"`
	Samples     int     `json:"samples"`
}

// Score is the combined instability, lower is better.
func (d Deviation) Score() float64 {
	return d.Pitch + d.Roll
}

// Average combines several measurements of the same pattern.
func Average(ds []Deviation) Deviation {
	if len(ds) == 0 {
		return Deviation{}
	}
	var out Deviation
	for _, d := range ds {
		out.Pitch += d.Pitch
		out.Roll += d.Roll
		out.PitchSpread += d.PitchSpread
		out.RollSpread += d.RollSpread
		out.Samples += d.Samples
	}
	n := float64(len(ds))
	out.Pitch /= n
	out.Roll /= n
	out.PitchSpread /= n
	out.RollSpread /= n
	return out
}

// Scorer samples an orientation source.
type Scorer struct {
	src   orientation.Source
	sleep func(time.Duration)
}

// NewScorer returns a scorer reading src. A nil sleep means time.Sleep.
func NewScorer(src orientation.Source, sleep func(time.Duration)) *Scorer {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Scorer{src: src, sleep: sleep}
}

// Measure reads count samples spaced interval apart and returns the mean
// absolute pitch and roll. Any read error aborts the whole measurement; no
// partial score is ever returned.
func (s *Scorer) Measure(ctx context.Context, count int, interval time.Duration) (Deviation, error) {
	if count < 1 {
		return Deviation{}, ErrNoSamples
	}

	pitch := make([]float64, count)
	roll := make([]float64, count)
	for i := 0; i < count; i++ {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return Deviation{}, err
			}
			if interval > 0 {
				s.sleep(interval)
			}
		}
		sample, err := s.src.ReadOrientation()
		if err != nil {
			log.WithError(err).WithField("sample", i).Warn("measurement aborted")
			return Deviation{}, fmt.Errorf("stability: sample %d: %w", i, err)
		}
		pitch[i] = sample.Pitch
		roll[i] = sample.Roll
	}

	d := Deviation{
		Pitch:   meanAbs(pitch),
		Roll:    meanAbs(roll),
		Samples: count,
	}
	if count > 1 {
		d.PitchSpread = stat.StdDev(pitch, nil)
		d.RollSpread = stat.StdDev(roll, nil)
	}
	log.WithFields(logrus.Fields{"pitch": d.Pitch, "roll": d.Roll, "score": d.Score()}).Debug("measured")
	return d, nil
}

func meanAbs(xs []float64) float64 {
	abs := make([]float64, len(xs))
	for i, x := range xs {
		abs[i] = math.Abs(x)
	}
	return stat.Mean(abs, nil)
}
