// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package search

import (
	"time"

	"github.com/relabs-tech/gait_stabilizer/internal/orientation"
	"github.com/relabs-tech/gait_stabilizer/internal/stability"
)

// EventKind names a step of the run.
type EventKind string

const (
	EventInitialized EventKind = "initialized"
	EventAccepted    EventKind = "accepted"
	EventRejected    EventKind = "rejected"
	EventFault       EventKind = "fault"
	EventFinished    EventKind = "finished"
)

// Event is published to observers. It is also the JSON payload the tuner
// sends over MQTT.
type Event struct {
	Kind       EventKind           `json:"kind"`
	Iteration  int                 `json:"iteration"`
	Guidance   orientation.Sample  `json:"guidance"`
	Correction Correction          `json:"correction"`
	Deviation  stability.Deviation `json:"deviation"`
	Score      float64             `json:"score"`
	BestScore  float64             `json:"best_score"`
	Err        string              `json:"error,omitempty"`
	Time       time.Time           `json:"time"`
}

// Observer is notified synchronously from the control loop and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out in order.
type Observers []Observer

func (os Observers) Observe(e Event) {
	for _, o := range os {
		o.Observe(e)
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
